// SPDX-License-Identifier: EPL-2.0

package player

import "errors"

var (
	// ErrNoOpener is returned by New when no file opener was configured.
	ErrNoOpener = errors.New("player: no file opener")

	// ErrClosed is returned by LoadCustomData after Close.
	ErrClosed = errors.New("player: closed")
)
