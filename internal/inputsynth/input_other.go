//go:build !windows

package inputsynth

// newPlatformSynthesizer returns an error on non-Windows platforms.
// PulseWatch is a Windows-desktop agent; the stub exists only so the rest
// of the module builds and tests on a dev machine of any OS.
func newPlatformSynthesizer() (Synthesizer, error) {
	return nil, ErrNotSupported
}
