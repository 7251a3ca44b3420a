// SPDX-License-Identifier: EPL-2.0

package reader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/internal/audiotest"
	"github.com/ik5/audstream/pool"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	pool   *pool.Pool
	opener *audiotest.Opener
	reader *Reader
}

func newFixture(t *testing.T, poolSize int, opts ...Option) *fixture {
	t.Helper()

	p, err := pool.New(float64(poolSize), 1)
	if err != nil {
		t.Fatalf("pool.New() error = %v", err)
	}

	o := audiotest.NewOpener()
	open := func(path string) (audio.SeekableSource, error) {
		src, err := o.Lookup(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	r, err := New(p, open, append([]Option{WithLogger(quiet)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })

	return &fixture{pool: p, opener: o, reader: r}
}

func (f *fixture) window() ([]float32, []float32, uint64) {
	left := make([]float32, f.pool.Size())
	right := make([]float32, f.pool.Size())
	start := f.pool.Snapshot(left, right)
	return left, right, start
}

func waitIdle(t *testing.T, r *Reader) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}
}

func TestNew_NilPool(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); !errors.Is(err, ErrNilPool) {
		t.Errorf("New(nil) error = %v, want ErrNilPool", err)
	}

	p, _ := pool.New(8, 1)
	p.Destroy()
	if _, err := New(p, nil); !errors.Is(err, ErrNilPool) {
		t.Errorf("New(destroyed) error = %v, want ErrNilPool", err)
	}
}

func TestLoad_PrimesWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		src       *audiotest.MockSource
		wantLeft  []float32
		wantRight []float32
	}{
		{
			name:      "stereo",
			src:       audiotest.NewRampSource(44100, 2, 100),
			wantLeft:  []float32{1, 2, 3, 4, 5, 6},
			wantRight: []float32{-1, -2, -3, -4, -5, -6},
		},
		{
			name:      "mono duplicated",
			src:       audiotest.NewRampSource(44100, 1, 100),
			wantLeft:  []float32{1, 2, 3, 4, 5, 6},
			wantRight: []float32{1, 2, 3, 4, 5, 6},
		},
		{
			name:      "short source zero tail",
			src:       audiotest.NewRampSource(44100, 2, 4),
			wantLeft:  []float32{1, 2, 3, 4, 0, 0},
			wantRight: []float32{-1, -2, -3, -4, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 6)
			f.opener.Add("a.wav", tt.src)

			if err := f.reader.Load("a.wav"); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !f.reader.Ready() {
				t.Error("Ready() = false after a successful Load")
			}
			if f.reader.MaxFrame() != uint64(tt.src.TotalFrames()) {
				t.Errorf("MaxFrame() = %d, want %d", f.reader.MaxFrame(), tt.src.TotalFrames())
			}
			if f.reader.Channels() != tt.src.Channels() {
				t.Errorf("Channels() = %d, want %d", f.reader.Channels(), tt.src.Channels())
			}

			left, right, start := f.window()
			if start != 0 {
				t.Errorf("StartFrame() = %d, want 0", start)
			}
			for i := range tt.wantLeft {
				if left[i] != tt.wantLeft[i] || right[i] != tt.wantRight[i] {
					t.Errorf("slot %d = (%v, %v), want (%v, %v)",
						i, left[i], right[i], tt.wantLeft[i], tt.wantRight[i])
				}
			}
		})
	}
}

func TestLoad_RejectsChannelCount(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	src := audiotest.NewRampSource(44100, 3, 100)
	f.opener.Add("surround.wav", src)

	sentinel := []float32{7, 7, 7, 7}
	f.pool.Refill(42, sentinel, sentinel)

	err := f.reader.Load("surround.wav")
	if !errors.Is(err, ErrUnsupportedChannels) {
		t.Fatalf("Load() error = %v, want ErrUnsupportedChannels", err)
	}
	if f.reader.Ready() {
		t.Error("Ready() = true after a rejected Load")
	}
	if !src.Closed() {
		t.Error("rejected source was not closed")
	}

	left, _, start := f.window()
	if start != 42 || left[0] != 7 || left[3] != 7 {
		t.Errorf("pool mutated: start=%d window=%v", start, left)
	}
}

func TestLoad_OpenError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)

	err := f.reader.Load("missing.wav")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Load() error = %v, want wrapped open error", err)
	}
	if f.reader.Ready() {
		t.Error("Ready() = true after a failed Load")
	}
}

func TestLoad_ReplacesSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	first := audiotest.NewRampSource(44100, 2, 10)
	second := audiotest.NewConstantSource(44100, 1, 20, 0.5)
	f.opener.Add("first.wav", first)
	f.opener.Add("second.wav", second)

	if err := f.reader.Load("first.wav"); err != nil {
		t.Fatal(err)
	}

	// A failed load in between leaves the reader silent.
	if err := f.reader.Load("missing.wav"); err == nil {
		t.Fatal("Load(missing) error = nil")
	}
	if !first.Closed() {
		t.Error("previous source not closed by Load")
	}
	if f.reader.MaxFrame() != 0 {
		t.Errorf("MaxFrame() = %d after failed load, want 0", f.reader.MaxFrame())
	}

	if err := f.reader.Load("second.wav"); err != nil {
		t.Fatal(err)
	}
	if f.reader.MaxFrame() != 20 || f.reader.Channels() != 1 {
		t.Errorf("MaxFrame()/Channels() = %d/%d, want 20/1", f.reader.MaxFrame(), f.reader.Channels())
	}

	left, right, _ := f.window()
	if left[0] != 0.5 || right[3] != 0.5 {
		t.Errorf("window = %v %v, want constant 0.5", left, right)
	}
}

func TestReadPoll_PastEndIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 10))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	f.reader.SetLastFrame(10)
	f.reader.needsRead.Store(true)

	f.reader.readMu.Lock()
	f.reader.readPollLocked(f.reader.generation.Load())
	f.reader.readMu.Unlock()

	if f.reader.NeedsRead() {
		t.Error("NeedsRead() = true after a past-end poll")
	}
	if _, _, start := f.window(); start != 0 {
		t.Errorf("StartFrame() = %d, want 0 (no refill past end)", start)
	}
}

func TestReadPoll_SeekFailureIsSilence(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	src := audiotest.NewRampSource(44100, 2, 100)
	f.opener.Add("a.wav", src)
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	src.FailSeek = true
	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}
	f.reader.SetLastFrame(50)
	f.reader.SetNeedsRead()
	waitIdle(t, f.reader)

	left, right, start := f.window()
	if start != 50 {
		t.Errorf("StartFrame() = %d, want 50", start)
	}
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Errorf("slot %d = (%v, %v), want silence", i, left[i], right[i])
		}
	}
	if !f.reader.Ready() {
		t.Error("a decode failure must not stop playback")
	}
}

func TestWorker_RefillsOnRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 6)
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 100))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}
	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}

	f.reader.SetLastFrame(20)
	f.reader.SetNeedsRead()
	waitIdle(t, f.reader)

	left, right, start := f.window()
	if start != 20 {
		t.Fatalf("StartFrame() = %d, want 20", start)
	}
	for i := range left {
		if left[i] != float32(21+i) || right[i] != -float32(21+i) {
			t.Errorf("slot %d = (%v, %v), want (%d, %d)", i, left[i], right[i], 21+i, -(21 + i))
		}
	}
	if f.reader.NeedsRead() {
		t.Error("NeedsRead() still set after the refill")
	}
	if f.reader.State() != Idle {
		t.Errorf("State() = %v, want idle", f.reader.State())
	}
}

func TestTryPutData_ReadAheadThreshold(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8)
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 100))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}
	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}

	// 5 of 8 frames consumed: below three quarters.
	f.reader.TryPutData(5)
	waitIdle(t, f.reader)
	if start := f.pool.StartFrame(); start != 0 {
		t.Fatalf("StartFrame() = %d after TryPutData(5), want 0", start)
	}

	f.reader.TryPutData(6)
	waitIdle(t, f.reader)
	if start := f.pool.StartFrame(); start != 6 {
		t.Errorf("StartFrame() = %d after TryPutData(6), want 6", start)
	}
}

func TestTryPutData_CustomReadAhead(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8, WithReadAhead(0.5))
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 100))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	if f.reader.pastThreshold(3) {
		t.Error("pastThreshold(3) = true with read-ahead 0.5 of 8")
	}
	if !f.reader.pastThreshold(4) {
		t.Error("pastThreshold(4) = false with read-ahead 0.5 of 8")
	}
	if f.reader.pastThreshold(100) {
		t.Error("pastThreshold() = true past the end of media")
	}
}

func TestTryPutData_NotReady(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8)
	f.reader.TryPutData(1000)

	if f.reader.LastFrame() != 0 {
		t.Errorf("LastFrame() = %d, want 0 before any load", f.reader.LastFrame())
	}
	if len(f.reader.wake) != 0 {
		t.Error("TryPutData woke the worker before any load")
	}
}

func TestTryPutData_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	f := newFixture(t, 8)
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 100))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	allocs := testing.AllocsPerRun(100, func() {
		f.reader.TryPutData(7)
		f.reader.SetNeedsRead()
		f.reader.SetLastFrame(7)
	})

	if allocs > 0 {
		t.Errorf("realtime hooks allocated %v times, want 0", allocs)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)

	if err := f.reader.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.reader.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	f.reader.Stop()
	if f.reader.State() != Quitting {
		t.Errorf("State() after Stop = %v, want quitting", f.reader.State())
	}
	f.reader.Stop()

	if err := f.reader.Start(); err != nil {
		t.Errorf("Start() after Stop error = %v", err)
	}
}

func TestStop_TimeoutAbandonsWorker(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4, WithStopTimeout(20*time.Millisecond))
	src := audiotest.NewRampSource(44100, 2, 100)
	f.opener.Add("a.wav", src)
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	block := make(chan struct{})
	src.Block = block

	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}
	f.reader.SetLastFrame(40)
	f.reader.SetNeedsRead()

	deadline := time.Now().Add(2 * time.Second)
	for f.reader.State() != Reading {
		if time.Now().After(deadline) {
			t.Fatal("worker never started reading")
		}
		time.Sleep(time.Millisecond)
	}

	began := time.Now()
	f.reader.Stop()
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Errorf("Stop() took %v, want bounded by the timeout", elapsed)
	}

	// Release the stuck read and wait for it to finish.
	close(block)
	f.reader.readMu.Lock()
	f.reader.readMu.Unlock()

	if start := f.pool.StartFrame(); start != 0 {
		t.Errorf("abandoned worker refilled the pool at %d", start)
	}
}

func TestLoad_RefusedWhileWorkerStuck(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4, WithStopTimeout(20*time.Millisecond))
	src := audiotest.NewRampSource(44100, 2, 100)
	f.opener.Add("a.wav", src)
	f.opener.Add("b.wav", audiotest.NewConstantSource(44100, 2, 100, 0.5))
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	block := make(chan struct{})
	src.Block = block

	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}
	f.reader.SetLastFrame(40)
	f.reader.SetNeedsRead()

	deadline := time.Now().Add(2 * time.Second)
	for f.reader.State() != Reading {
		if time.Now().After(deadline) {
			close(block)
			t.Fatal("worker never started reading")
		}
		time.Sleep(time.Millisecond)
	}
	f.reader.Stop()

	began := time.Now()
	err := f.reader.Load("b.wav")
	if !errors.Is(err, ErrWorkerStuck) {
		t.Errorf("Load() error = %v, want ErrWorkerStuck", err)
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Errorf("Load() took %v, want an immediate refusal", elapsed)
	}
	if f.reader.Ready() {
		t.Error("Ready() = true after a refused Load")
	}
	if src.Closed() {
		t.Error("refused Load closed the source under the stuck worker")
	}

	close(block)

	// Once the abandoned worker has exited the next load goes through.
	deadline = time.Now().Add(2 * time.Second)
	for {
		err = f.reader.Load("b.wav")
		if !errors.Is(err, ErrWorkerStuck) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Load() still refused after the worker exited")
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !src.Closed() {
		t.Error("previous source not closed after the worker exited")
	}
	if left, _, _ := f.window(); left[0] != 0.5 {
		t.Errorf("window = %v, want the new source", left)
	}
}

// A decoder that comes back short in the middle of the media leaves the
// rest of the window silent.
func TestReadPoll_ShortReadMidMedia(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8)
	src := audiotest.NewRampSource(44100, 2, 100)
	f.opener.Add("a.wav", src)
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}

	src.ShortBy = 3
	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}
	f.reader.SetLastFrame(40)
	f.reader.SetNeedsRead()
	waitIdle(t, f.reader)

	left, right, start := f.window()
	if start != 40 {
		t.Fatalf("StartFrame() = %d, want 40", start)
	}
	wantLeft := []float32{41, 42, 43, 44, 45, 0, 0, 0}
	wantRight := []float32{-41, -42, -43, -44, -45, 0, 0, 0}
	for i := range wantLeft {
		if left[i] != wantLeft[i] || right[i] != wantRight[i] {
			t.Errorf("slot %d = (%v, %v), want (%v, %v)", i, left[i], right[i], wantLeft[i], wantRight[i])
		}
	}
	if !f.reader.Ready() {
		t.Error("a short read must not stop playback")
	}
}

func TestReadPoll_LoopWrapsWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int
		last  uint64
		want  []float32
	}{
		{name: "across the end", total: 10, last: 7, want: []float32{8, 9, 10, 1, 2, 3}},
		{name: "past the end", total: 10, last: 27, want: []float32{8, 9, 10, 1, 2, 3}},
		{name: "media shorter than the window", total: 4, last: 2, want: []float32{3, 4, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 6)
			f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, tt.total))
			f.reader.SetLoop(true)
			if err := f.reader.Load("a.wav"); err != nil {
				t.Fatal(err)
			}
			if err := f.reader.Start(); err != nil {
				t.Fatal(err)
			}

			f.reader.SetLastFrame(tt.last)
			f.reader.SetNeedsRead()
			waitIdle(t, f.reader)

			left, right, start := f.window()
			if start != tt.last {
				t.Errorf("StartFrame() = %d, want %d", start, tt.last)
			}
			for i := range tt.want {
				if left[i] != tt.want[i] || right[i] != -tt.want[i] {
					t.Errorf("slot %d = (%v, %v), want (%v, %v)", i, left[i], right[i], tt.want[i], -tt.want[i])
				}
			}
		})
	}
}

func TestPastThreshold_Loop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8)
	f.opener.Add("a.wav", audiotest.NewRampSource(44100, 2, 10))
	f.reader.SetLoop(true)
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}
	if !f.reader.Looping() {
		t.Fatal("Looping() = false after SetLoop(true)")
	}

	f.pool.Refill(8, make([]float32, 8), make([]float32, 8))
	if !f.reader.pastThreshold(14) {
		t.Error("pastThreshold(14) = false past the end of media while looping")
	}

	f.reader.SetLoop(false)
	if f.reader.pastThreshold(14) {
		t.Error("pastThreshold(14) = true past the end of media without looping")
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	src := audiotest.NewRampSource(44100, 2, 100)
	f.opener.Add("a.wav", src)
	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}
	if err := f.reader.Start(); err != nil {
		t.Fatal(err)
	}

	if err := f.reader.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.reader.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if !src.Closed() {
		t.Error("source not closed")
	}
	if f.reader.Ready() {
		t.Error("Ready() = true after Close")
	}
	if err := f.reader.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
	if err := f.reader.Load("a.wav"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close error = %v, want ErrClosed", err)
	}
}

func TestLoad_Resamples(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4, WithResample(8000))
	f.opener.Add("a.wav", audiotest.NewConstantSource(16000, 2, 100, 0.25))

	if err := f.reader.Load("a.wav"); err != nil {
		t.Fatal(err)
	}
	if f.reader.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", f.reader.SampleRate())
	}
	if f.reader.MaxFrame() != 50 {
		t.Errorf("MaxFrame() = %d, want 50", f.reader.MaxFrame())
	}

	left, _, _ := f.window()
	for i, v := range left {
		if v < 0.2 || v > 0.3 {
			t.Errorf("slot %d = %v, want ~0.25", i, v)
		}
	}
}

func TestWaitIdle_Timeout(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	f.reader.SetNeedsRead()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := f.reader.WaitIdle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitIdle() error = %v, want DeadlineExceeded", err)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Reading, "reading"},
		{Quitting, "quitting"},
		{State(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
