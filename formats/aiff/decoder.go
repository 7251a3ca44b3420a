// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.SeekableSource
type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer

	// rewind returns a fresh decoder positioned at the first frame.
	rewind      func() (aiffReader, error)
	totalFrames int64
	pos         int64
}

func (s *source) SampleRate() int    { return s.sampleRate }
func (s *source) Channels() int      { return s.channels }
func (s *source) Close() error       { return nil }
func (s *source) TotalFrames() int64 { return s.totalFrames }

// SeekFrame restarts decoding from the top of the SSND chunk and discards
// frames up to the target; go-audio/aiff has no random access.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.totalFrames {
		return fmt.Errorf("aiff: frame %d of %d: %w", frame, s.totalFrames, audio.ErrSeekOutOfRange)
	}

	if frame < s.pos {
		dec, err := s.rewind()
		if err != nil {
			return fmt.Errorf("aiff: %w", err)
		}
		s.dec = dec
		s.pos = 0
	}

	skip := int((frame - s.pos) * int64(s.channels))
	for skip > 0 {
		buf := s.buffer(min(skip, 4096*s.channels))
		n, err := s.dec.PCMBuffer(buf)
		skip -= n
		s.pos += int64(n / s.channels)
		if err != nil || n == 0 {
			if skip > 0 {
				return fmt.Errorf("aiff: %w", io.ErrUnexpectedEOF)
			}
			break
		}
	}

	return nil
}

func (s *source) buffer(size int) *goaudio.IntBuffer {
	if s.intBuf == nil || cap(s.intBuf.Data) < size {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, size),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:size]
	return s.intBuf
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) / s.channels * s.channels
	if want == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	buf := s.buffer(want)
	n, err := s.dec.PCMBuffer(buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("aiff: %w", err)
		}
		return 0, io.EOF
	}

	scale := utils.FullScale(s.bitDepth)
	for i := range n {
		dst[i] = float32(buf.Data[i]) / scale
	}
	s.pos += int64(n / s.channels)

	// A short read without an error is the end of the SSND chunk.
	if n < want && err == nil {
		return n, io.EOF
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("aiff: %w", err)
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrUnsupportedAiffLayout
	}

	rewind := func() (aiffReader, error) {
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, err
		}
		d := aiff.NewDecoder(rs)
		if !d.IsValidFile() {
			return nil, ErrNotAiffFile
		}
		d.ReadInfo()
		return d, nil
	}

	return &source{
		dec:         dec,
		sampleRate:  format.SampleRate,
		channels:    format.NumChannels,
		bitDepth:    int(dec.BitDepth),
		rewind:      rewind,
		totalFrames: int64(dec.NumSampleFrames),
	}, nil
}
