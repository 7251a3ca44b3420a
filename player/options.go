// SPDX-License-Identifier: EPL-2.0

package player

import (
	"log/slog"
	"time"

	"github.com/ik5/audstream/config"
	"github.com/ik5/audstream/pool"
	"github.com/ik5/audstream/reader"
)

type options struct {
	logger      *slog.Logger
	open        reader.Opener
	poolSeconds int
	readAhead   float64
	stopTimeout time.Duration
	resample    bool
}

func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		poolSeconds: pool.DefaultSeconds,
		readAhead:   reader.DefaultReadAhead,
		stopTimeout: reader.DefaultStopTimeout,
	}
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOpener sets how LoadCustomData("file", ...) opens media.
func WithOpener(open reader.Opener) Option {
	return func(o *options) { o.open = open }
}

func WithPoolSeconds(seconds int) Option {
	return func(o *options) {
		if seconds > 0 {
			o.poolSeconds = seconds
		}
	}
}

func WithReadAhead(fraction float64) Option {
	return func(o *options) { o.readAhead = fraction }
}

func WithStopTimeout(d time.Duration) Option {
	return func(o *options) { o.stopTimeout = d }
}

// WithResample converts media to the host sample rate on load.
func WithResample(enabled bool) Option {
	return func(o *options) { o.resample = enabled }
}

// WithConfig applies the pool, reader and resampling settings of cfg.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		WithPoolSeconds(cfg.PoolSeconds)(o)
		o.readAhead = cfg.ReadAhead
		o.stopTimeout = cfg.StopTimeout()
		o.resample = cfg.Resample
	}
}
