// Package capture implements the FrameSource component: a steady-cadence
// producer of compressed screen frames for the pulse pipeline.
package capture

import (
	"fmt"
	"image"
	"time"

	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/logging"
)

var log = logging.L("capture")

// ErrNotSupported is returned when screen capture is not supported on the platform.
var ErrNotSupported = fmt.Errorf("screen capture not supported on this platform")

// ErrPermissionDenied is returned when screen capture permissions are not granted.
var ErrPermissionDenied = fmt.Errorf("screen capture permission denied")

// ErrDisplayNotFound is returned when the configured display is not found.
var ErrDisplayNotFound = fmt.Errorf("display not found")

// Config holds FrameSource configuration.
type Config struct {
	// DisplayIndex selects which display to capture (0 = primary).
	DisplayIndex int
	// JPEGQuality is the quality (1-100) used when compressing each frame.
	JPEGQuality int
}

// DefaultConfig returns sensible capture defaults.
func DefaultConfig() Config {
	return Config{DisplayIndex: 0, JPEGQuality: 80}
}

// screenCapturer is the platform-specific raw-pixel capturer. FrameSource
// wraps it with JPEG encoding and cursor-position stamping to produce Frames.
type screenCapturer interface {
	// Capture acquires the next frame. Returns (nil, nil) on a timeout or
	// transient "no new frame" condition — never an error for those cases.
	Capture() (*image.RGBA, error)
	GetScreenBounds() (width, height int, err error)
	Close() error
}

// CursorReader reports the current cursor position. Frames are stamped with
// it so downstream consumers don't need a second platform-specific lookup.
type CursorReader interface {
	CursorPosition() (x, y int)
}

// FrameSource produces Frames of the primary display at a steady cadence.
// It is not required to be thread-safe for concurrent CaptureOne calls —
// only the PulseEngine driver calls it.
type FrameSource struct {
	cfg      Config
	capturer screenCapturer
	cursor   CursorReader
}

// New creates a FrameSource. Call Start before the first CaptureOne.
func New(cfg Config, cursor CursorReader) *FrameSource {
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 80
	}
	return &FrameSource{cfg: cfg, cursor: cursor}
}

// Start acquires platform resources for screen duplication. A fatal failure
// here propagates and is expected to shut the engine down. On Windows the
// DXGI device and duplication are created lazily by the first capture, so
// Start does not fail there; initialization failures show up as per-frame
// capture failures instead.
func (s *FrameSource) Start() error {
	capturer, err := newPlatformCapturer(s.cfg)
	if err != nil {
		return fmt.Errorf("start frame source: %w", err)
	}
	s.capturer = capturer
	return nil
}

// Stop releases platform resources. Idempotent.
func (s *FrameSource) Stop() {
	if s.capturer == nil {
		return
	}
	if err := s.capturer.Close(); err != nil {
		log.Debug("frame source close failed", "error", err)
	}
	s.capturer = nil
}

// CaptureOne attempts to fetch the next frame. Returns (nil, nil) on a
// timeout or transient "no new frame" condition — these are normal and not
// logged as errors. Recoverable platform errors trigger a lazy
// reinitialization and (nil, nil) for this tick; per-frame failures are
// logged and swallowed, never surfaced to the caller.
func (s *FrameSource) CaptureOne() (*frame.Frame, error) {
	if s.capturer == nil {
		return nil, fmt.Errorf("frame source not started")
	}

	img, err := s.capturer.Capture()
	if err != nil {
		log.Debug("capture failed, reinitializing lazily", "error", err)
		s.capturer.Close()
		capturer, startErr := newPlatformCapturer(s.cfg)
		if startErr != nil {
			log.Warn("frame source reinit failed", "error", startErr)
			s.capturer = nil
			return nil, nil
		}
		s.capturer = capturer
		return nil, nil
	}
	if img == nil {
		return nil, nil
	}

	data, err := EncodeJPEG(img, s.cfg.JPEGQuality)
	if err != nil {
		log.Warn("jpeg encode failed", "error", err)
		return nil, nil
	}

	cx, cy := 0, 0
	if s.cursor != nil {
		cx, cy = s.cursor.CursorPosition()
	}

	bounds := img.Bounds()
	return &frame.Frame{
		Data:       data,
		CapturedAt: time.Now().UTC(),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		CursorX:    cx,
		CursorY:    cy,
	}, nil
}
