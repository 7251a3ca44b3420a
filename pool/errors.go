// SPDX-License-Identifier: EPL-2.0

package pool

import "errors"

var (
	// ErrInvalidSize indicates a sample rate or duration that yields no frames
	ErrInvalidSize = errors.New("pool: size must be positive")

	// ErrTooLarge indicates a pool larger than MaxFrames
	ErrTooLarge = errors.New("pool: size exceeds MaxFrames")
)
