// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables shared by the player and the render tool.
type Config struct {
	PoolSeconds   int     `yaml:"pool_seconds"`    // pool window length in seconds (default: 6)
	ReadAhead     float64 `yaml:"read_ahead"`      // refill threshold as a fraction of the window (default: 0.75)
	StopTimeoutMS int     `yaml:"stop_timeout_ms"` // bounded reader join (default: 3000)
	Resample      bool    `yaml:"resample"`        // convert files to the host rate
	LogLevel      string  `yaml:"log_level"`       // debug, info, warn, error
	BlockSize     int     `yaml:"block_size"`      // frames per process call in the render tool
	SampleRate    float64 `yaml:"sample_rate"`     // host rate used by the render tool
}

const (
	DefaultPoolSeconds   = 6
	DefaultReadAhead     = 0.75
	DefaultStopTimeoutMS = 3000
	DefaultBlockSize     = 512
	DefaultSampleRate    = 48000
	DefaultLogLevel      = "info"
)

// Default returns a configuration with every field set.
func Default() Config {
	return Config{
		PoolSeconds:   DefaultPoolSeconds,
		ReadAhead:     DefaultReadAhead,
		StopTimeoutMS: DefaultStopTimeoutMS,
		Resample:      true,
		LogLevel:      DefaultLogLevel,
		BlockSize:     DefaultBlockSize,
		SampleRate:    DefaultSampleRate,
	}
}

// Load reads and parses a YAML configuration file. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML data on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// StopTimeout is StopTimeoutMS as a duration.
func (c Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMS) * time.Millisecond
}

// Level maps LogLevel to a slog level. Validate rejects unknown names.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
