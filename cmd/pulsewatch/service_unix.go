//go:build !windows

package main

import "fmt"

// isWindowsService always returns false on non-Windows platforms.
func isWindowsService() bool { return false }

// runAsService is a no-op stub on non-Windows platforms: PulseWatch's
// capture, idle-sensing, and input-synthesis backends are Windows-only, so
// there is nothing meaningful to host as a service elsewhere.
func runAsService(_ func() (*agentComponents, error)) error {
	return fmt.Errorf("Windows service mode is not available on this platform")
}
