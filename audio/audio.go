// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that know their length and can jump
// to an arbitrary frame. Frames are counted per channel.
type Seeker interface {
	// TotalFrames is the length of the stream in frames, 0 when unknown.
	TotalFrames() int64
	// SeekFrame positions the stream so the next ReadSamples starts at frame.
	SeekFrame(frame int64) error
}

// SeekableSource is what the streaming reader consumes.
type SeekableSource interface {
	Source
	Seeker
}

// Decoder constructs a Source from an input reader.
// Decoders return a SeekableSource when r is an io.ReadSeeker.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats lists the registered format keys in no particular order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		out = append(out, k)
	}
	return out
}

// AsSeekable returns src as a SeekableSource, or ErrNotSeekable.
func AsSeekable(src Source) (SeekableSource, error) {
	s, ok := src.(SeekableSource)
	if !ok {
		return nil, ErrNotSeekable
	}
	return s, nil
}
