// Package config loads and persists kluster configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete kluster configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Matching MatchingConfig `json:"matching" mapstructure:"matching"`
	Monitor  MonitorConfig  `json:"monitor" mapstructure:"monitor"`
	Actions  ActionsConfig  `json:"actions" mapstructure:"actions"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// MatchingConfig contains the cross-category matcher tolerances
type MatchingConfig struct {
	// NameSimilarityCutoff is the minimum fuzzy-match ratio for file names
	NameSimilarityCutoff float64 `json:"nameSimilarityCutoff" mapstructure:"nameSimilarityCutoff"`
	// TimeToleranceSeconds bounds the start/end delta for time-window overlap
	TimeToleranceSeconds float64 `json:"timeToleranceSeconds" mapstructure:"timeToleranceSeconds"`
	// WeeklySecondsWindow bounds the nav-to-project weekly seconds comparison
	WeeklySecondsWindow float64 `json:"weeklySecondsWindow" mapstructure:"weeklySecondsWindow"`
}

// MonitorConfig contains directory monitor configuration
type MonitorConfig struct {
	PollIntervalMs int      `json:"pollIntervalMs" mapstructure:"pollIntervalMs"`
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// ActionsConfig controls action generation and execution behavior
type ActionsConfig struct {
	// AutoProcess regenerates and executes processing actions after each convert
	AutoProcess bool `json:"autoProcess" mapstructure:"autoProcess"`
	// OutputFolder is where synthesized project instances are created
	OutputFolder string `json:"outputFolder" mapstructure:"outputFolder"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Matching: MatchingConfig{
			NameSimilarityCutoff: 0.6,
			TimeToleranceSeconds: 2.0,
			WeeklySecondsWindow:  86400.0,
		},
		Monitor: MonitorConfig{
			PollIntervalMs: 2000,
			DebounceMs:     1000,
			IgnorePatterns: []string{"*.tmp", "*.part", "~*"},
		},
		Actions: ActionsConfig{
			AutoProcess:  false,
			OutputFolder: "",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.kluster/config.json, returning
// defaults when no config file exists
func Load(root string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".kluster"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to <root>/.kluster/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ".kluster")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}
