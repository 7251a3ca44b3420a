// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = 4
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// carry holds a partial frame left over from the previous Read.
	carry int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }

func (s *source) TotalFrames() int64 {
	if l := s.dec.Length(); l > 0 {
		return l / bytesPerFrame
	}
	return 0
}

// SeekFrame translates the frame into a byte offset of the decoded stream.
func (s *source) SeekFrame(frame int64) error {
	total := s.TotalFrames()
	if frame < 0 || frame > total {
		return fmt.Errorf("mp3: frame %d of %d: %w", frame, total, audio.ErrSeekOutOfRange)
	}

	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("mp3: %w", err)
	}
	s.carry = 0

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / channels
	if frames == 0 {
		if len(dst) == 0 {
			return 0, nil
		}
		return 0, audio.ErrInvalidDstSize
	}

	need := frames * bytesPerFrame
	if cap(s.buf) < need {
		grown := make([]byte, need)
		copy(grown, s.buf[:s.carry])
		s.buf = grown
	}
	s.buf = s.buf[:need]

	// Fill whole frames so the channel order never drifts.
	n := s.carry
	var err error
	for n < need && err == nil {
		var m int
		m, err = s.dec.Read(s.buf[n:])
		n += m
		if m == 0 {
			break
		}
	}

	whole := n - n%bytesPerFrame
	samples := utils.DecodeLE(dst, s.buf[:whole], 16, false)

	s.carry = copy(s.buf, s.buf[whole:n])

	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return samples, io.EOF
		}
		return samples, fmt.Errorf("mp3: %w", err)
	}

	return samples, nil
}

type Decoder struct{}

// Decode reads the MP3 stream with go-mp3. The source is seekable, so
// readers without io.Seeker are buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, ok := r.(io.Seeker); !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading mp3 data: %w", err)
		}
		r = bytes.NewReader(data)
	}

	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
