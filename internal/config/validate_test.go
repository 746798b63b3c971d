package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredInvalidEndpointSchemeIsFatal(t *testing.T) {
	cfg := Default()
	cfg.PredictionEndpoint = "ftp://example.com"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("invalid endpoint scheme should be fatal")
	}
}

func TestValidateTieredControlCharsInAPIKeyIsFatal(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "token\x00with\x01control"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("control chars in api key should be fatal")
	}
}

func TestValidateTieredMalformedPipeNameIsFatal(t *testing.T) {
	cfg := Default()
	cfg.UIPipeName = "not-a-pipe-path"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("malformed pipe name should be fatal")
	}
}

func TestValidateTieredFramesPerSecondClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.FramesPerSecond = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped frames_per_second should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for clamped frames_per_second")
	}
	if cfg.FramesPerSecond != 1 {
		t.Fatalf("FramesPerSecond = %d, want 1 (clamped)", cfg.FramesPerSecond)
	}
}

func TestValidateTieredHighFramesPerSecondClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.FramesPerSecond = 9999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped frames_per_second should be warning, not fatal: %v", result.Fatals)
	}
	if cfg.FramesPerSecond != 30 {
		t.Fatalf("FramesPerSecond = %d, want 30 (clamped)", cfg.FramesPerSecond)
	}
}

func TestValidateTieredPauseThresholdClamping(t *testing.T) {
	cfg := Default()
	cfg.PauseThresholdMs = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped pause_threshold_ms should be warning: %v", result.Fatals)
	}
	if cfg.PauseThresholdMs != 100 {
		t.Fatalf("PauseThresholdMs = %d, want 100", cfg.PauseThresholdMs)
	}
}

func TestValidateTieredDelayRangeClamping(t *testing.T) {
	cfg := Default()
	cfg.MinDelayMs = 500
	cfg.MaxDelayMs = 100
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped delay range should be warning: %v", result.Fatals)
	}
	if cfg.MaxDelayMs != 500 {
		t.Fatalf("MaxDelayMs = %d, want 500 (raised to match MinDelayMs)", cfg.MaxDelayMs)
	}
}

func TestValidateTieredMinConfidenceClamping(t *testing.T) {
	cfg := Default()
	cfg.MinConfidence = 1.5
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("out-of-range min_confidence should not be fatal")
	}
	if cfg.MinConfidence != 1 {
		t.Fatalf("MinConfidence = %v, want 1 (clamped)", cfg.MinConfidence)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestAllErrorsReturnsBoth(t *testing.T) {
	cfg := Default()
	cfg.PredictionEndpoint = "ftp://bad" // fatal
	cfg.LogLevel = "verbose"             // warning
	result := cfg.ValidateTiered()

	all := result.AllErrors()
	if len(all) < 2 {
		t.Fatalf("AllErrors() returned %d errors, expected at least 2 (fatals + warnings)", len(all))
	}
	found := false
	for _, err := range result.Warnings {
		if strings.Contains(err.Error(), "verbose") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected warning about log level in result.Warnings")
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid config has warnings: %v", result.Warnings)
	}
}
