// SPDX-License-Identifier: EPL-2.0

package reader

import "errors"

var (
	// ErrUnsupportedChannels is returned by Load for sources that are
	// neither mono nor stereo.
	ErrUnsupportedChannels = errors.New("reader: only mono and stereo sources are supported")

	// ErrAlreadyRunning is returned by Start when the worker is running.
	ErrAlreadyRunning = errors.New("reader: already running")

	// ErrClosed is returned by operations on a closed reader.
	ErrClosed = errors.New("reader: closed")

	// ErrWorkerStuck is returned by Load while a worker abandoned by Stop
	// is still inside a decode.
	ErrWorkerStuck = errors.New("reader: abandoned worker still decoding")

	// ErrNilPool is returned by New without a pool.
	ErrNilPool = errors.New("reader: nil pool")
)
