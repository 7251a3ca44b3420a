// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

var ErrSeek = errors.New("audiotest: seek failed")

// MockSource is a seekable test source. Sample values come from waveform,
// which receives the absolute frame index and channel.
// It implements audio.SeekableSource without importing it to avoid cycles.
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int
	pos         int
	waveform    func(frame int, channel int) float32

	// ShortBy makes every ReadFull-sized request come back this many frames short.
	ShortBy int
	// FailSeek makes SeekFrame return ErrSeek.
	FailSeek bool

	seeks  atomic.Int64
	closed atomic.Bool

	// Block, when set, is waited on at the start of every ReadSamples call.
	Block chan struct{}
}

func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewRampSource produces frame+1 on the left channel and -(frame+1) on the
// right, so every frame is identifiable and non-zero.
func NewRampSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) float32 {
		if channel == 1 {
			return -float32(frame + 1)
		}
		return float32(frame + 1)
	})
}

func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 { return 0 })
}

func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 { return value })
}

func (m *MockSource) SampleRate() int    { return m.sampleRate }
func (m *MockSource) Channels() int      { return m.channels }
func (m *MockSource) TotalFrames() int64 { return int64(m.totalFrames) }

func (m *MockSource) Close() error {
	m.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed.Load() }

// Seeks reports how many successful SeekFrame calls were made.
func (m *MockSource) Seeks() int64 { return m.seeks.Load() }

func (m *MockSource) SeekFrame(frame int64) error {
	if m.FailSeek {
		return ErrSeek
	}
	if frame < 0 || frame > int64(m.totalFrames) {
		return io.ErrUnexpectedEOF
	}
	m.pos = int(frame)
	m.seeks.Add(1)
	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.Block != nil {
		<-m.Block
	}

	if m.pos >= m.totalFrames {
		return 0, io.EOF
	}

	framesRequested := len(dst)/m.channels - m.ShortBy
	if framesRequested <= 0 {
		return 0, io.EOF
	}
	framesToWrite := min(framesRequested, m.totalFrames-m.pos)

	for f := range framesToWrite {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.pos+f, ch)
		}
	}

	m.pos += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.pos >= m.totalFrames || m.ShortBy > 0 {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}

// Opener returns an open function serving sources by path, the shape the
// streaming reader expects. Unknown paths yield io.ErrUnexpectedEOF.
type Opener struct {
	mu      sync.Mutex
	sources map[string]*MockSource
	opened  []string
}

func NewOpener() *Opener {
	return &Opener{sources: make(map[string]*MockSource)}
}

func (o *Opener) Add(path string, src *MockSource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sources[path] = src
}

// Opened lists the paths requested so far.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func (o *Opener) Lookup(path string) (*MockSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opened = append(o.opened, path)
	src, ok := o.sources[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	src.pos = 0
	src.closed.Store(false)
	return src, nil
}
