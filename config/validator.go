// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"log/slog"

	"github.com/ik5/audstream/pool"
)

// Validate checks cfg and fills zero values with defaults.
func Validate(cfg *Config) error {
	if cfg.PoolSeconds < 0 {
		return fmt.Errorf("%w: pool_seconds must be > 0", ErrInvalid)
	}
	if cfg.PoolSeconds == 0 {
		cfg.PoolSeconds = DefaultPoolSeconds
	}

	if cfg.ReadAhead == 0 {
		cfg.ReadAhead = DefaultReadAhead
	}
	if cfg.ReadAhead < 0 || cfg.ReadAhead > 1 {
		return fmt.Errorf("%w: read_ahead must be in (0, 1], got %v", ErrInvalid, cfg.ReadAhead)
	}

	if cfg.StopTimeoutMS < 0 {
		return fmt.Errorf("%w: stop_timeout_ms must be >= 0", ErrInvalid)
	}
	if cfg.StopTimeoutMS == 0 {
		cfg.StopTimeoutMS = DefaultStopTimeoutMS
	}

	if cfg.BlockSize < 0 {
		return fmt.Errorf("%w: block_size must be > 0", ErrInvalid)
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	if cfg.SampleRate < 0 {
		return fmt.Errorf("%w: sample_rate must be > 0", ErrInvalid)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if frames := int64(cfg.SampleRate) * int64(cfg.PoolSeconds); frames > pool.MaxFrames {
		return fmt.Errorf("%w: pool of %d frames exceeds %d", ErrInvalid, frames, pool.MaxFrames)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, cfg.LogLevel)
	}

	return nil
}
