// Package inputsynth implements the InputSynthesizer component: the
// platform boundary that turns an Action's parameters into actual mouse
// and keyboard events.
package inputsynth

import "fmt"

// ErrNotSupported is returned by platforms with no input synthesis backend.
var ErrNotSupported = fmt.Errorf("input synthesis not supported on this platform")

// KeyChord describes a key combination: a base key plus zero or more
// modifiers ("ctrl", "alt", "shift", "win", and "meta"/"cmd", which the
// Windows backend sends as Ctrl), pressed and released
// Repeat times (Repeat <= 1 means once) while the modifiers are held down
// once for the whole chord.
type KeyChord struct {
	Key       string
	Modifiers []string
	Repeat    int
}

// Synthesizer injects input at the OS level. All coordinates are absolute
// screen coordinates. Implementations must be safe to call from the single
// ActionExecutor goroutine that owns them; Synthesizer makes no concurrency
// guarantees beyond that.
type Synthesizer interface {
	// MoveMouse moves the cursor to (x, y) without pressing any button.
	MoveMouse(x, y int) error

	// Click performs a left-button press and release at (x, y).
	Click(x, y int) error

	// RightClick performs a right-button press and release at (x, y).
	RightClick(x, y int) error

	// DoubleClick performs two rapid left clicks at (x, y).
	DoubleClick(x, y int) error

	// TypeText synthesizes a key-down/key-up pair for every UTF-16 code
	// unit of s, in order.
	TypeText(s string) error

	// PressKeys presses the chord's modifiers, presses and releases the
	// base key chord.Repeat times (at least once), then releases the
	// modifiers in reverse order.
	PressKeys(chord KeyChord) error

	// Drag presses the left button at (startX, startY), moves to
	// (endX, endY), then releases.
	Drag(startX, startY, endX, endY int) error

	// Scroll moves the cursor to (x, y) and scrolls the wheel by amount
	// (positive = up, negative = down), in the same units the predictor's
	// scroll amount field uses.
	Scroll(x, y, amount int) error
}

// New creates a platform-specific Synthesizer. Implementation is in
// input_*.go files.
func New() (Synthesizer, error) {
	return newPlatformSynthesizer()
}
