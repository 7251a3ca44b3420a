// SPDX-License-Identifier: EPL-2.0

package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/pool"
)

// Opener opens a media file as a seekable source.
type Opener func(path string) (audio.SeekableSource, error)

// Reader decodes windows of a source into a pool on a background goroutine.
//
// The realtime thread talks to it only through atomics and a one-slot wake
// channel: SetLastFrame, SetNeedsRead and TryPutData never block. Load,
// Start, Stop and Close belong to the control thread.
type Reader struct {
	pool   *pool.Pool
	open   Opener
	logger *slog.Logger

	readAhead   float64
	stopTimeout time.Duration
	targetRate  int

	// ctl serialises the control plane.
	ctl    sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
	// stuck is the done channel of a worker abandoned by Stop. Until it is
	// closed that worker may still hold readMu.
	stuck chan struct{}

	// readMu guards src and the scratch buffers. Only readPoll and Load take it.
	readMu      sync.Mutex
	src         audio.SeekableSource
	scratch     []float32
	left, right []float32

	channels   atomic.Int32
	sampleRate atomic.Int32
	maxFrame   atomic.Uint64

	needsRead atomic.Bool
	doProcess atomic.Bool
	loop      atomic.Bool
	lastFrame atomic.Uint64
	state     atomic.Int32

	wake       chan struct{}
	generation atomic.Uint64
	requested  atomic.Uint64
	served     atomic.Uint64
}

// New creates an idle reader bound to p. Scratch space for one full window
// is allocated here so reads never allocate.
func New(p *pool.Pool, open Opener, opts ...Option) (*Reader, error) {
	if p == nil || p.Size() == 0 {
		return nil, ErrNilPool
	}

	r := &Reader{
		pool:        p,
		open:        open,
		logger:      slog.Default(),
		readAhead:   DefaultReadAhead,
		stopTimeout: DefaultStopTimeout,
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}

	size := p.Size()
	r.scratch = make([]float32, size*2)
	r.left = make([]float32, size)
	r.right = make([]float32, size)

	return r, nil
}

// Ready reports whether a source is loaded and the pool has been primed.
func (r *Reader) Ready() bool { return r.doProcess.Load() }

// MaxFrame is the length of the loaded media in pool frames.
func (r *Reader) MaxFrame() uint64 { return r.maxFrame.Load() }

func (r *Reader) Channels() int   { return int(r.channels.Load()) }
func (r *Reader) SampleRate() int { return int(r.sampleRate.Load()) }
func (r *Reader) State() State    { return State(r.state.Load()) }
func (r *Reader) NeedsRead() bool { return r.needsRead.Load() }
func (r *Reader) LastFrame() uint64 {
	return r.lastFrame.Load()
}

// Looping reports whether reads continue from frame 0 at the end of media.
func (r *Reader) Looping() bool { return r.loop.Load() }

// SetLoop makes reads wrap at the end of media, so window slot i holds
// media frame (start+i) mod MaxFrame.
func (r *Reader) SetLoop(on bool) { r.loop.Store(on) }

// SetLastFrame records the transport frame most recently seen by the
// consumer. The next read starts there.
func (r *Reader) SetLastFrame(frame uint64) { r.lastFrame.Store(frame) }

// SetNeedsRead requests a refill at the last recorded frame.
func (r *Reader) SetNeedsRead() {
	r.needsRead.Store(true)
	r.signal()
}

// TryPutData records frame and wakes the worker when a refill is due:
// a read was requested, or the consumer is past the read-ahead threshold
// of the current window. It never blocks.
func (r *Reader) TryPutData(frame uint64) {
	if !r.doProcess.Load() {
		return
	}

	r.lastFrame.Store(frame)
	if r.needsRead.Load() || r.pastThreshold(frame) {
		r.signal()
	}
}

func (r *Reader) pastThreshold(frame uint64) bool {
	maxFrame := r.maxFrame.Load()
	if maxFrame == 0 || (frame >= maxFrame && !r.loop.Load()) {
		return false
	}

	start := r.pool.StartFrame()
	if frame < start {
		return false
	}

	threshold := uint64(float64(r.pool.Size()) * r.readAhead)
	return frame-start >= threshold
}

// signal queues a wake without blocking. A full channel already holds a
// wake the worker has not consumed, so nothing is lost.
func (r *Reader) signal() {
	r.requested.Add(1)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Load swaps the source. It must be called with the worker stopped.
// On failure the reader stays not ready and the pool is left untouched.
// While a worker abandoned by Stop is still decoding, Load returns
// ErrWorkerStuck instead of waiting for it.
func (r *Reader) Load(path string) error {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.closed {
		return ErrClosed
	}

	r.doProcess.Store(false)

	if r.stuckLocked() {
		r.logger.Warn("audstream: refusing load while an abandoned reader holds the source", "path", path)
		return fmt.Errorf("%w: loading %q", ErrWorkerStuck, path)
	}

	r.readMu.Lock()
	defer r.readMu.Unlock()

	r.closeSourceLocked()

	src, err := r.open(path)
	if err != nil {
		r.logger.Error("audstream: failed to open media", "path", path, "error", err)
		return fmt.Errorf("reader: opening %q: %w", path, err)
	}

	channels := src.Channels()
	if channels != 1 && channels != 2 {
		if cerr := src.Close(); cerr != nil {
			r.logger.Debug("audstream: closing rejected source", "error", cerr)
		}
		r.logger.Warn("audstream: rejected media", "path", path, "channels", channels)
		return fmt.Errorf("%w: %q has %d channels", ErrUnsupportedChannels, path, channels)
	}

	if r.targetRate > 0 && src.SampleRate() != r.targetRate {
		r.logger.Debug("audstream: resampling media",
			"path", path,
			"from", src.SampleRate(),
			"to", r.targetRate,
		)
		src = audio.NewResampler(src, r.targetRate)
	}

	total := src.TotalFrames()
	if total < 0 {
		total = 0
	}

	r.src = src
	r.channels.Store(int32(channels))
	r.sampleRate.Store(int32(src.SampleRate()))
	r.maxFrame.Store(uint64(total))

	r.readPollLocked(r.generation.Load())

	r.doProcess.Store(true)

	r.logger.Info("audstream: media loaded",
		"path", path,
		"channels", channels,
		"sample_rate", src.SampleRate(),
		"frames", total,
	)

	return nil
}

func (r *Reader) closeSourceLocked() {
	if r.src == nil {
		return
	}
	if err := r.src.Close(); err != nil {
		r.logger.Debug("audstream: closing source", "error", err)
	}
	r.src = nil
	r.channels.Store(0)
	r.sampleRate.Store(0)
	r.maxFrame.Store(0)
}

// stuckLocked reports whether a worker abandoned by Stop is still running.
func (r *Reader) stuckLocked() bool {
	if r.stuck == nil {
		return false
	}

	select {
	case <-r.stuck:
		r.stuck = nil
		return false
	default:
		return true
	}
}

// readPollLocked decodes one window starting at lastFrame and refills the
// pool. Decode errors and short reads leave silence in the missing tail.
// gen identifies the worker; a stale worker never touches the pool.
//
// While looping, lastFrame may lie past the end of media; it is read from
// lastFrame mod MaxFrame and the window keeps its unwrapped start.
func (r *Reader) readPollLocked(gen uint64) {
	// Cleared first so a request raised during the read is kept.
	r.needsRead.Store(false)

	maxFrame := r.maxFrame.Load()
	if maxFrame == 0 || r.src == nil {
		return
	}

	loop := r.loop.Load()
	last := r.lastFrame.Load()
	if last >= maxFrame && !loop {
		return
	}

	channels := int(r.channels.Load())
	buf := r.scratch[:len(r.left)*channels]

	n := r.decodeLocked(buf, last%maxFrame, maxFrame, loop)
	frames := audio.Deinterleave(r.left, r.right, buf[:n], channels)

	if r.generation.Load() != gen {
		r.logger.Debug("audstream: dropping read from stopped worker", "frame", last)
		return
	}

	r.pool.Refill(last, r.left, r.right)

	r.logger.Debug("audstream: pool refilled", "start", last, "frames", frames)
}

// decodeLocked fills buf from media frame pos and returns the number of
// samples decoded. With loop set, reaching the end of media continues from
// frame 0 until buf is full.
func (r *Reader) decodeLocked(buf []float32, pos, maxFrame uint64, loop bool) int {
	channels := uint64(r.channels.Load())

	total := 0
	for total < len(buf) {
		if err := r.src.SeekFrame(int64(pos)); err != nil {
			r.logger.Warn("audstream: seek failed, filling with silence", "frame", pos, "error", err)
			return total
		}

		n, err := audio.ReadFull(r.src, buf[total:])
		total += n
		if err != nil && err != io.EOF {
			r.logger.Warn("audstream: decode failed, filling with silence", "frame", pos, "error", err)
			return total
		}

		// A short read before the end of media is not a loop point.
		pos += uint64(n) / channels
		if !loop || n == 0 || pos < maxFrame {
			return total
		}
		pos = 0
	}

	return total
}

// Start launches the worker goroutine.
func (r *Reader) Start() error {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.cancel != nil {
		return ErrAlreadyRunning
	}

	gen := r.generation.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	r.state.Store(int32(Idle))
	go r.run(ctx, gen, done)

	if r.needsRead.Load() {
		r.signal()
	}

	return nil
}

func (r *Reader) setState(gen uint64, s State) {
	if r.generation.Load() == gen {
		r.state.Store(int32(s))
	}
}

func (r *Reader) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			r.setState(gen, Quitting)
			return
		case <-r.wake:
		}

		seen := r.requested.Load()

		// Re-evaluated on every wake; a wake alone is not a reason to read.
		if r.needsRead.Load() || r.pastThreshold(r.lastFrame.Load()) {
			r.setState(gen, Reading)
			r.readMu.Lock()
			r.readPollLocked(gen)
			r.readMu.Unlock()
			r.setState(gen, Idle)
		}

		r.served.Store(seen)
	}
}

// Stop cancels the worker and waits for it up to the stop timeout. On
// timeout the goroutine is abandoned; it can no longer write to the pool.
func (r *Reader) Stop() {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	r.stopLocked()
}

// stopLocked reports whether the worker exited in time.
func (r *Reader) stopLocked() bool {
	if r.cancel == nil {
		return true
	}

	r.cancel()

	clean := true
	select {
	case <-r.done:
		r.logger.Debug("audstream: reader stopped")
	case <-time.After(r.stopTimeout):
		// Invalidate the abandoned worker.
		r.generation.Add(1)
		r.stuck = r.done
		r.state.Store(int32(Quitting))
		r.logger.Warn("audstream: reader stop timeout exceeded, abandoning worker",
			"timeout", r.stopTimeout,
		)
		clean = false
	}

	r.cancel = nil
	r.done = nil

	return clean
}

// Close stops the worker and closes the source. The reader cannot be
// reused afterwards. Calling Close twice is safe.
func (r *Reader) Close() error {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.doProcess.Store(false)

	if !r.stopLocked() || r.stuckLocked() {
		// The abandoned worker may still hold the source.
		r.logger.Warn("audstream: source left open to abandoned reader")
		return nil
	}

	r.readMu.Lock()
	defer r.readMu.Unlock()

	r.closeSourceLocked()

	return nil
}

// WaitIdle blocks until every wake raised before the call has been handled
// by the worker, or ctx is done.
func (r *Reader) WaitIdle(ctx context.Context) error {
	target := r.requested.Load()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for r.served.Load() < target {
		select {
		case <-ctx.Done():
			return fmt.Errorf("reader: waiting for worker: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	return nil
}
