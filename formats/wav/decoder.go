// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

type source struct {
	r          io.ReadSeeker
	sampleRate int
	channels   int
	bitDepth   int
	float      bool

	blockAlign  int64
	dataStart   int64
	totalFrames int64
	pos         int64

	buf []byte
}

func (s *source) SampleRate() int    { return s.sampleRate }
func (s *source) Channels() int      { return s.channels }
func (s *source) TotalFrames() int64 { return s.totalFrames }
func (s *source) Close() error       { return nil }

// SeekFrame moves the read cursor inside the data chunk.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.totalFrames {
		return fmt.Errorf("wav: frame %d of %d: %w", frame, s.totalFrames, audio.ErrSeekOutOfRange)
	}

	if _, err := s.r.Seek(s.dataStart+frame*s.blockAlign, io.SeekStart); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	s.pos = frame

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	remaining := s.totalFrames - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}

	frames := min(int64(len(dst)/s.channels), remaining)
	if frames == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	need := int(frames * s.blockAlign)
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.r, s.buf)
	truncated := err == io.ErrUnexpectedEOF || err == io.EOF
	if err != nil && !truncated {
		return 0, fmt.Errorf("wav: %w", err)
	}

	got := int64(n) / s.blockAlign
	samples := utils.DecodeLE(dst, s.buf[:got*s.blockAlign], s.bitDepth, s.float)
	s.pos += got

	if truncated {
		// The data chunk claimed more than the file holds.
		s.totalFrames = s.pos
	}
	if s.pos >= s.totalFrames {
		return samples, io.EOF
	}

	return samples, nil
}

type Decoder struct{}

// Decode parses the RIFF headers with go-audio/wav and returns a seekable
// source positioned at the first PCM frame. Readers that cannot seek are
// buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	fwdErr := dec.FwdToPCM()

	if dec.NumChans == 0 {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
		}
		return nil, ErrNotWavFile
	}
	if fwdErr != nil || dec.PCMChunk == nil {
		return nil, ErrMissingDataChunk
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)

	float := false
	switch dec.WavAudioFormat {
	case formatPCM, formatExtensible:
	case formatFloat:
		float = true
	default:
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	switch bitDepth {
	case 8, 16, 24:
		if float {
			return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedEncoding, bitDepth)
		}
	case 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupportedEncoding, bitDepth)
	}

	dataStart, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	if _, err := rs.Seek(dataStart, io.SeekStart); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	blockAlign := int64(channels * bitDepth / 8)
	dataLen := int64(dec.PCMSize)
	if dataLen <= 0 || dataStart+dataLen > end {
		dataLen = end - dataStart
	}

	return &source{
		r:           rs,
		sampleRate:  int(dec.SampleRate),
		channels:    channels,
		bitDepth:    bitDepth,
		float:       float,
		blockAlign:  blockAlign,
		dataStart:   dataStart,
		totalFrames: dataLen / blockAlign,
		buf:         make([]byte, 4096),
	}, nil
}
