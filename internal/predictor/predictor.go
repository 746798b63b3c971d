// Package predictor implements the Predictor client: a single-attempt,
// deadline-bounded HTTP call to the remote vision model that decides what
// action (if any) to suggest for the current screen activity.
package predictor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/logging"
)

var log = logging.L("predictor")

// DefaultTimeoutMs is the deadline for a prediction request. Spec docs
// mention a 5000ms figure elsewhere; that is stale — 500ms is the code
// default.
const DefaultTimeoutMs = 500

// Config holds Predictor client configuration.
type Config struct {
	Endpoint string
	APIKey   string
	TimeoutMs int
}

// Region mirrors frame.Region in the wire format.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CloudAction is one entry of the array-form response.
type CloudAction struct {
	Type         string  `json:"type"`
	Target       string  `json:"target,omitempty"`
	Region       *Region `json:"region,omitempty"`
	X            *int    `json:"x,omitempty"`
	Y            *int    `json:"y,omitempty"`
	Text         string  `json:"text,omitempty"`
	Keys         string  `json:"keys,omitempty"`
	SourceRegion *Region `json:"sourceRegion,omitempty"`
	TargetRegion *Region `json:"targetRegion,omitempty"`
	Direction    string  `json:"direction,omitempty"`
	Amount       int     `json:"amount,omitempty"`
}

// Coordinates is the legacy single-action coordinate pair.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Response is the predictor's reply, accepting either the array form or
// the legacy single-action form.
type Response struct {
	Confidence float64       `json:"confidence"`
	Description string       `json:"description"`
	Actions     []CloudAction `json:"actions,omitempty"`

	// Legacy back-compat form.
	Suggestion  string       `json:"suggestion,omitempty"`
	Action      string       `json:"action,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type requestBody struct {
	Frames    []string       `json:"frames"`
	Timestamp string         `json:"timestamp"`
	Context   contextPayload `json:"context"`
}

type contextPayload struct {
	MonitorWidth  int    `json:"monitorWidth"`
	MonitorHeight int    `json:"monitorHeight"`
	CursorX       int    `json:"cursorX"`
	CursorY       int    `json:"cursorY"`
	Timestamp     string `json:"timestamp"`
}

// Client calls the predictor endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A non-positive TimeoutMs falls back to
// DefaultTimeoutMs.
func New(cfg Config) *Client {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = DefaultTimeoutMs
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Predict sends the given frames and capture context to the predictor.
// A single attempt is made with a deadline derived from cfg.TimeoutMs; no
// retries. Non-2xx status, network/timeout errors, and unparseable bodies
// all resolve to (nil, nil) — "no prediction" is not an error condition
// the caller needs to handle specially.
func (c *Client) Predict(ctx context.Context, frames []frame.Frame, cc frame.CaptureContext) (*Response, error) {
	encoded := make([]string, len(frames))
	for i, f := range frames {
		encoded[i] = base64.StdEncoding.EncodeToString(f.Data)
	}

	body := requestBody{
		Frames:    encoded,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Context: contextPayload{
			MonitorWidth:  cc.MonitorWidth,
			MonitorHeight: cc.MonitorHeight,
			CursorX:       cc.CursorX,
			CursorY:       cc.CursorY,
			Timestamp:     cc.Timestamp.UTC().Format(time.RFC3339),
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal predictor request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build predictor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("predictor call failed, treating as no prediction", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug("predictor returned non-2xx, treating as no prediction", "status", resp.StatusCode)
		return nil, nil
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Debug("predictor response unparseable, treating as no prediction", "error", err)
		return nil, nil
	}

	return &out, nil
}
