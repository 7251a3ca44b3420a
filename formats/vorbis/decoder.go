// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/audstream/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	// Read returns the number of values (frames * channels) decoded.
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int    { return s.sampleRate }
func (s *source) Channels() int      { return s.channels }
func (s *source) Close() error       { return nil }
func (s *source) TotalFrames() int64 { return s.dec.Length() }

func (s *source) SeekFrame(frame int64) error {
	total := s.dec.Length()
	if frame < 0 || frame > total {
		return fmt.Errorf("vorbis: frame %d of %d: %w", frame, total, audio.ErrSeekOutOfRange)
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis: %w", err)
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	n := len(dst) / s.channels * s.channels
	if n == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	got, err := s.dec.Read(dst[:n])
	if err != nil && err != io.EOF {
		return got, fmt.Errorf("vorbis: %w", err)
	}

	return got, err
}

type Decoder struct{}

// Decode opens an Ogg Vorbis stream. Readers without io.Seeker are buffered in
// memory because oggvorbis needs to seek for Length and SetPosition.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, ok := r.(io.Seeker); !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading vorbis data: %w", err)
		}
		r = bytes.NewReader(data)
	}

	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
