// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/audstream/utils"
)

// Writer streams interleaved float32 samples into a 16-bit PCM WAV file.
// Sizes in the RIFF header are patched on Close, so w must be seekable.
type Writer struct {
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	frames int
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if channels < 1 {
		return nil, ErrInvalidChannels
	}

	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, 16, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, 0, 8192),
			SourceBitDepth: 16,
		},
	}, nil
}

// Write converts samples to 16-bit PCM and appends them to the file.
func (w *Writer) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	data := w.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(utils.Float32ToInt16(s)))
	}
	w.buf.Data = data

	return w.flush()
}

// WriteInt16 appends already converted PCM samples.
func (w *Writer) WriteInt16(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	data := w.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	w.buf.Data = data

	return w.flush()
}

func (w *Writer) flush() error {
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += w.buf.NumFrames()
	return nil
}

// Frames returns the number of complete frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Close finalizes the RIFF header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.frames == 0 {
		// The encoder only emits headers on the first Write.
		w.buf.Data = w.buf.Data[:0]
		if err := w.flush(); err != nil {
			return err
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// WritePCM16 writes a complete 16-bit PCM WAV file of interleaved samples.
func WritePCM16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	wr, err := NewWriter(w, sampleRate, channels)
	if err != nil {
		return err
	}

	if err := wr.WriteInt16(samples); err != nil {
		return err
	}

	return wr.Close()
}
