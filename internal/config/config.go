package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/pulsewatch/agent/internal/logging"
)

var log = logging.L("config")

// Config holds every tunable option the agent recognizes. Fields group by
// the component that consumes them.
type Config struct {
	// Capture / pulse cadence
	FramesPerSecond  int     `mapstructure:"frames_per_second"`
	BufferSeconds    int     `mapstructure:"buffer_seconds"`
	PauseThresholdMs int     `mapstructure:"pause_threshold_ms"`
	MinConfidence    float64 `mapstructure:"min_confidence"`
	CoolingPeriodMs  int     `mapstructure:"cooling_period_ms"`
	DisplayIndex     int     `mapstructure:"display_index"`
	JPEGQuality      int     `mapstructure:"jpeg_quality"`

	// Execution pacing
	MinDelayMs int `mapstructure:"min_delay_ms"`
	MaxDelayMs int `mapstructure:"max_delay_ms"`

	// Predictor (remote vision endpoint)
	PredictionEndpoint string `mapstructure:"prediction_endpoint"`
	APIKey             string `mapstructure:"api_key"`
	PredictorTimeoutMs int    `mapstructure:"predictor_timeout_ms"`

	// Logging
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// Suggestion persistence log
	SuggestionLogEnabled    bool `mapstructure:"suggestion_log_enabled"`
	SuggestionLogMaxSizeMB  int  `mapstructure:"suggestion_log_max_size_mb"`
	SuggestionLogMaxBackups int  `mapstructure:"suggestion_log_max_backups"`

	// UI control-plane (named pipe)
	UIPipeName string `mapstructure:"ui_pipe_name"`
}

// Default returns the documented out-of-the-box defaults.
func Default() *Config {
	return &Config{
		FramesPerSecond:  3,
		BufferSeconds:    4,
		PauseThresholdMs: 1000,
		MinConfidence:    0.80,
		CoolingPeriodMs:  500,
		DisplayIndex:     0,
		JPEGQuality:      80,

		MinDelayMs: 100,
		MaxDelayMs: 300,

		PredictorTimeoutMs: 500,

		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  50,
		LogMaxBackups: 3,

		SuggestionLogEnabled:    true,
		SuggestionLogMaxSizeMB:  50,
		SuggestionLogMaxBackups: 3,

		UIPipeName: `\\.\pipe\pulsewatch-ui`,
	}
}

// Load reads config from cfgFile (or the platform default location/name if
// empty), overlays environment variables prefixed PULSEWATCH_, then
// validates it. Fatal validation errors block startup; warnings are logged
// and startup continues.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pulsewatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PULSEWATCH")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

// Save writes cfg to the platform default config path.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

// SaveTo writes cfg to cfgFile, or the platform default path if empty. Only
// the capture, execution and predictor fields are written; the logging,
// suggestion-log and UI pipe fields of cfg are not.
func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("frames_per_second", cfg.FramesPerSecond)
	viper.Set("buffer_seconds", cfg.BufferSeconds)
	viper.Set("pause_threshold_ms", cfg.PauseThresholdMs)
	viper.Set("min_confidence", cfg.MinConfidence)
	viper.Set("cooling_period_ms", cfg.CoolingPeriodMs)
	viper.Set("display_index", cfg.DisplayIndex)
	viper.Set("jpeg_quality", cfg.JPEGQuality)
	viper.Set("min_delay_ms", cfg.MinDelayMs)
	viper.Set("max_delay_ms", cfg.MaxDelayMs)
	viper.Set("prediction_endpoint", cfg.PredictionEndpoint)
	viper.Set("api_key", cfg.APIKey)
	viper.Set("predictor_timeout_ms", cfg.PredictorTimeoutMs)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "pulsewatch.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Restrict config file to owner-only access (contains the API key).
	return os.Chmod(cfgPath, 0600)
}

// GetDataDir returns the platform-specific data directory for the agent.
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "PulseWatch", "data")
	case "darwin":
		return "/Library/Application Support/PulseWatch/data"
	default:
		return "/var/lib/pulsewatch"
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "PulseWatch")
	case "darwin":
		return "/Library/Application Support/PulseWatch"
	default:
		return "/etc/pulsewatch"
	}
}
