// Package idlesensor implements IdleSensor: reports time since the last
// OS-level input event and the current cursor position.
package idlesensor

import "time"

// Sensor reports user hesitation and cursor position. Implementations
// never block and never return an error — an OS query failure is treated
// as "user is active" (Duration zero, cursor (0,0)) rather than
// propagated, since a failing sensor must not cause spurious escalations.
type Sensor interface {
	// IdleDuration returns the time elapsed since the last input event.
	IdleDuration() time.Duration
	// CursorPosition returns the current cursor position in screen
	// coordinates.
	CursorPosition() (x, y int)
}

// IsIdle reports whether s has been idle for at least threshold.
func IsIdle(s Sensor, threshold time.Duration) bool {
	return s.IdleDuration() >= threshold
}

// New creates a platform Sensor. Implementation is in idlesensor_*.go
// files.
func New() Sensor {
	return newPlatformSensor()
}
