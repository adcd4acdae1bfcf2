// Package config loads the analyzer's tuning file. Fields are pointers so a
// partial JSON file only overrides what it mentions; the Get* accessors
// supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/thermal.report/internal/thermal"
	"github.com/banshee-data/thermal.report/internal/units"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultUnits  = units.Celsius
	DefaultDBPath = "thermal_data.db"
)

// Config holds the tunable parameters of the analyzer.
type Config struct {
	// MatchThresholdRGB is the RGB-space distance below which a nearest-match
	// calibration scan stops early.
	MatchThresholdRGB *float64 `json:"match_threshold_rgb,omitempty"`
	// Units selects the display unit for API responses (celsius, fahrenheit,
	// kelvin). Stored values stay °C.
	Units *string `json:"units,omitempty"`
	// DBPath is the sqlite file recording analysis history.
	DBPath *string `json:"db_path,omitempty"`
}

// Empty returns a Config with every field unset. The Get* methods fall back
// to defaults, so an empty config is fully usable.
func Empty() *Config {
	return &Config{}
}

// Load reads a config JSON file. The path must end in .json and the file is
// capped at 1MB. Omitted fields keep their defaults, so partial configs are
// safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate range-checks every set field.
func (c *Config) Validate() error {
	if c.MatchThresholdRGB != nil {
		v := *c.MatchThresholdRGB
		if v <= 0 || v > thermal.MaxRGBDistance {
			return fmt.Errorf("match_threshold_rgb must be in (0, %.2f], got %v", thermal.MaxRGBDistance, v)
		}
	}
	if c.Units != nil {
		if err := units.Validate(*c.Units); err != nil {
			return err
		}
	}
	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	return nil
}

// GetMatchThresholdRGB returns the configured threshold or the engine default.
func (c *Config) GetMatchThresholdRGB() float64 {
	if c.MatchThresholdRGB != nil {
		return *c.MatchThresholdRGB
	}
	return thermal.DefaultMatchThreshold
}

// GetUnits returns the configured display unit or °C.
func (c *Config) GetUnits() string {
	if c.Units != nil {
		return *c.Units
	}
	return DefaultUnits
}

// GetDBPath returns the configured database path or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath != nil {
		return *c.DBPath
	}
	return DefaultDBPath
}
