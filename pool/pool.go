// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// DefaultSeconds is the window length used when none is configured.
	DefaultSeconds = 6

	// MaxFrames caps a single pool at one minute of 384 kHz audio.
	MaxFrames = 384000 * 60
)

// Pool is a fixed window of decoded stereo audio. Slot i of each channel
// holds the sample for absolute transport frame StartFrame()+i, or zero when
// it was never filled or has already been consumed.
//
// The background reader writes with Refill, which blocks on the lock. The
// realtime consumer reads with Drain, which only ever try-locks.
type Pool struct {
	mu     sync.Mutex
	buffer [2][]float32

	size       atomic.Int64
	startFrame atomic.Uint64
}

// New allocates a zeroed pool of int(sampleRate)*seconds frames per channel.
func New(sampleRate float64, seconds int) (*Pool, error) {
	size := int64(sampleRate) * int64(seconds)
	if size <= 0 {
		return nil, fmt.Errorf("%w: %v Hz x %d s", ErrInvalidSize, sampleRate, seconds)
	}
	if size > MaxFrames {
		return nil, fmt.Errorf("%w: %d frames", ErrTooLarge, size)
	}

	p := &Pool{}
	p.buffer[0] = make([]float32, size)
	p.buffer[1] = make([]float32, size)
	p.size.Store(size)

	return p, nil
}

// Size returns the capacity in frames, or 0 once destroyed.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return int(p.size.Load())
}

// StartFrame returns the transport frame of slot 0. It is safe to call
// without holding the lock; the value only changes inside Refill.
func (p *Pool) StartFrame() uint64 {
	if p == nil {
		return 0
	}
	return p.startFrame.Load()
}

// Destroy releases the buffers. It is safe to call more than once and on a
// nil pool.
func (p *Pool) Destroy() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer[0] = nil
	p.buffer[1] = nil
	p.size.Store(0)
	p.startFrame.Store(0)
}

// Refill replaces the whole window. Slots past the end of left/right are
// zeroed. The lock is held only for the copy.
func (p *Pool) Refill(start uint64, left, right []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buffer[0] == nil {
		return
	}

	fill(p.buffer[0], left)
	fill(p.buffer[1], right)
	p.startFrame.Store(start)
}

func fill(dst, src []float32) {
	n := copy(dst, src)
	clear(dst[n:])
}

// Drain copies the samples for transport frames [frame, frame+len(left))
// into left and right and zeroes every slot it reads. Frames outside the
// window come out as zero.
//
// Drain never blocks: if the lock is held by a refill it writes silence and
// returns false. left and right must have equal length.
func (p *Pool) Drain(frame uint64, left, right []float32) bool {
	if !p.mu.TryLock() {
		clear(left)
		clear(right)
		return false
	}
	defer p.mu.Unlock()

	bufL, bufR := p.buffer[0], p.buffer[1]
	size := int64(len(bufL))
	offset := int64(frame) - int64(p.startFrame.Load())

	for i := range left {
		idx := offset + int64(i)
		if idx < 0 || idx >= size {
			left[i], right[i] = 0, 0
			continue
		}
		left[i], right[i] = bufL[idx], bufR[idx]
		bufL[idx], bufR[idx] = 0, 0
	}

	return true
}

// Snapshot copies the current window into left and right without consuming
// it and returns the window's start frame. It blocks on the lock and is meant
// for inspection off the realtime path.
func (p *Pool) Snapshot(left, right []float32) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	copy(left, p.buffer[0])
	copy(right, p.buffer[1])

	return p.startFrame.Load()
}
