package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var pipeNameRegex = regexp.MustCompile(`^\\\\\.\\pipe\\[a-zA-Z0-9_-]+$`)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates validation problems that must block startup
// from ones that are merely logged. Fatals indicate a value that cannot be
// safely clamped or defaulted; Warnings indicate a value that was clamped
// or otherwise recovered automatically.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether any fatal error was recorded.
func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings, for callers that just want
// to log everything.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks the config for invalid values, clamping dangerous
// out-of-range numbers to safe defaults (recorded as warnings) and
// rejecting values that cannot be safely recovered (recorded as fatals).
func (c *Config) ValidateTiered() ValidationResult {
	var result ValidationResult

	if c.PredictionEndpoint != "" {
		u, err := url.Parse(c.PredictionEndpoint)
		if err != nil {
			result.Fatals = append(result.Fatals, fmt.Errorf("prediction_endpoint %q is not a valid URL: %w", c.PredictionEndpoint, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			result.Fatals = append(result.Fatals, fmt.Errorf("prediction_endpoint scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.APIKey != "" {
		for _, r := range c.APIKey {
			if unicode.IsControl(r) {
				result.Fatals = append(result.Fatals, fmt.Errorf("api_key contains control characters"))
				break
			}
		}
	}

	if c.UIPipeName != "" && !pipeNameRegex.MatchString(c.UIPipeName) {
		result.Fatals = append(result.Fatals, fmt.Errorf("ui_pipe_name %q is not a valid named pipe path (want \\\\.\\pipe\\name)", c.UIPipeName))
	}

	clampInt(&c.FramesPerSecond, 1, 30, "frames_per_second", &result)
	clampInt(&c.BufferSeconds, 1, 60, "buffer_seconds", &result)
	clampInt(&c.PauseThresholdMs, 100, 60000, "pause_threshold_ms", &result)
	clampInt(&c.CoolingPeriodMs, 0, 60000, "cooling_period_ms", &result)
	clampInt(&c.JPEGQuality, 1, 100, "jpeg_quality", &result)
	clampInt(&c.PredictorTimeoutMs, 50, 30000, "predictor_timeout_ms", &result)
	clampInt(&c.MinDelayMs, 0, 60000, "min_delay_ms", &result)
	clampInt(&c.MaxDelayMs, 0, 60000, "max_delay_ms", &result)
	clampInt(&c.LogMaxSizeMB, 1, 1000, "log_max_size_mb", &result)
	clampInt(&c.LogMaxBackups, 0, 100, "log_max_backups", &result)
	clampInt(&c.SuggestionLogMaxSizeMB, 1, 1000, "suggestion_log_max_size_mb", &result)
	clampInt(&c.SuggestionLogMaxBackups, 0, 100, "suggestion_log_max_backups", &result)

	if c.MinConfidence < 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("min_confidence %v is below 0, clamping", c.MinConfidence))
		c.MinConfidence = 0
	} else if c.MinConfidence > 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("min_confidence %v exceeds 1, clamping", c.MinConfidence))
		c.MinConfidence = 1
	}

	if c.MaxDelayMs < c.MinDelayMs {
		result.Warnings = append(result.Warnings, fmt.Errorf("max_delay_ms %d is below min_delay_ms %d, raising to match", c.MaxDelayMs, c.MinDelayMs))
		c.MaxDelayMs = c.MinDelayMs
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	return result
}

// clampInt forces *v into [min, max], recording a warning if it had to.
func clampInt(v *int, min, max int, name string, result *ValidationResult) {
	if *v < min {
		result.Warnings = append(result.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", name, *v, min))
		*v = min
	} else if *v > max {
		result.Warnings = append(result.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", name, *v, max))
		*v = max
	}
}
