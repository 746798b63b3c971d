package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsewatch/agent/internal/frame"
)

func intPtr(i int) *int { return &i }

func TestPredictArrayForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("X-API-Key = %q, want secret", got)
		}
		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Frames) != 1 {
			t.Errorf("frames = %d, want 1", len(body.Frames))
		}
		json.NewEncoder(w).Encode(Response{
			Confidence:  0.9,
			Description: "click the button",
			Actions:     []CloudAction{{Type: "click", X: intPtr(10), Y: intPtr(20)}},
		})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "secret"})
	resp, err := c.Predict(context.Background(), []frame.Frame{{Data: []byte("x")}}, frame.CaptureContext{Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if resp == nil || resp.Confidence != 0.9 || len(resp.Actions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPredictNon2xxIsNoPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "k"})
	resp, err := c.Predict(context.Background(), nil, frame.CaptureContext{})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response on 500, got %+v", resp)
	}
}

func TestPredictTimeoutIsNoPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "k", TimeoutMs: 5})
	resp, err := c.Predict(context.Background(), nil, frame.CaptureContext{})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response on timeout, got %+v", resp)
	}
}

func TestPredictUnparseableBodyIsNoPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "k"})
	resp, err := c.Predict(context.Background(), nil, frame.CaptureContext{})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response on unparseable body, got %+v", resp)
	}
}

func TestDefaultTimeout(t *testing.T) {
	c := New(Config{Endpoint: "http://example.invalid"})
	if c.cfg.TimeoutMs != DefaultTimeoutMs {
		t.Fatalf("TimeoutMs = %d, want %d", c.cfg.TimeoutMs, DefaultTimeoutMs)
	}
}
