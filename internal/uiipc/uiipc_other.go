//go:build !windows

package uiipc

import "net"

func newPlatformListener(pipeName string) (net.Listener, error) {
	return nil, ErrNotSupported
}

func newPlatformDialer(pipeName string) (net.Conn, error) {
	return nil, ErrNotSupported
}
