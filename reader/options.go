// SPDX-License-Identifier: EPL-2.0

package reader

import (
	"log/slog"
	"time"
)

const (
	// DefaultReadAhead is the fraction of the window consumed before a
	// refill is requested.
	DefaultReadAhead = 0.75

	// DefaultStopTimeout bounds how long Stop waits for the worker.
	DefaultStopTimeout = 3 * time.Second
)

type Option func(*Reader)

func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReadAhead sets the refill threshold as a fraction of the pool size.
// Values outside (0, 1] are ignored.
func WithReadAhead(fraction float64) Option {
	return func(r *Reader) {
		if fraction > 0 && fraction <= 1 {
			r.readAhead = fraction
		}
	}
}

func WithStopTimeout(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.stopTimeout = d
		}
	}
}

// WithResample converts sources whose rate differs from sampleRate, so
// pool frames always count host-rate frames. Zero disables conversion.
func WithResample(sampleRate int) Option {
	return func(r *Reader) {
		if sampleRate > 0 {
			r.targetRate = sampleRate
		}
	}
}
