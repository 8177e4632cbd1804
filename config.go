package leap

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the editing settings shared by the timeline, the gaze editor
// and the tools built on them.
type Config struct {
	// FrameRate is the edit frame rate in frames per second.
	FrameRate        float64       `yaml:"frame_rate"`
	TimewarpsEnabled bool          `yaml:"timewarps_enabled"`
	Gaze             GazeConfig    `yaml:"gaze"`
	Logging          LoggingConfig `yaml:"logging"`
	Store            StoreConfig   `yaml:"store"`
	// Debug checks the schedule invariants after every edit and panics on
	// corruption.
	Debug bool `yaml:"debug"`
}

// GazeConfig configures the gaze interval editor. Lengths are in seconds.
type GazeConfig struct {
	Layer string `yaml:"layer"`
	// MinLength is the shortest gaze shift that can reach its target.
	MinLength float64 `yaml:"min_length"`
	// MaxGapLength is the longest gap absorbed by extending the preceding
	// shift; longer gaps are covered by a coast.
	MaxGapLength float64 `yaml:"max_gap_length"`
	FillGaps     bool    `yaml:"fill_gaps"`
}

// LoggingConfig configures NewLogger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// StoreConfig configures the SQLite record store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default editing settings.
func DefaultConfig() Config {
	return Config{
		FrameRate:        DefaultFrameRate,
		TimewarpsEnabled: true,
		Gaze: GazeConfig{
			Layer:        "Gaze",
			MinLength:    1,
			MaxGapLength: 2,
			FillGaps:     true,
		},
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{Path: "leap.db"},
	}
}

// LoadConfig reads a YAML config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.FrameRate <= 0:
		return fmt.Errorf("config: frame_rate must be positive, got %v", c.FrameRate)
	case c.Gaze.Layer == "":
		return errors.New("config: gaze.layer must be set")
	case c.Gaze.MinLength <= 0:
		return fmt.Errorf("config: gaze.min_length must be positive, got %v", c.Gaze.MinLength)
	case c.Gaze.MaxGapLength < 0:
		return fmt.Errorf("config: gaze.max_gap_length must not be negative, got %v", c.Gaze.MaxGapLength)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil && c.Logging.Level != "" {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	return nil
}

// NewLogger builds a zap logger from the logging settings.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Logging.Level != "" {
		level, err := zapcore.ParseLevel(c.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("logging level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
