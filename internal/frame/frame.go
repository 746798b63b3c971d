// Package frame defines the immutable data types shared between the
// capture, prediction, and planning stages of the pulse pipeline.
package frame

import "time"

// Frame is an immutable, append-only capture of the primary display at a
// single point in time. Once produced, a Frame's fields are never mutated.
type Frame struct {
	// Data is the lossy-compressed (JPEG) image bytes.
	Data []byte
	// CapturedAt is the monotonic-clock capture timestamp, in UTC wall time.
	CapturedAt time.Time
	Width      int
	Height     int
	CursorX    int
	CursorY    int
}

// CaptureContext is built at prediction time from the most recent Frame and
// the current IdleSensor reading.
type CaptureContext struct {
	MonitorWidth  int
	MonitorHeight int
	CursorX       int
	CursorY       int
	Timestamp     time.Time
}

// Region is a rectangle used as the target locus of an Action.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of the region.
func (r Region) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
