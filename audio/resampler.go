// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/audstream/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples and preserves channel count.
//
// When src is a SeekableSource the Resampler is one too: frame positions and
// lengths are expressed at the target rate.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // source frames per output frame
	channels int

	// frames[1] is the frame at floor(pos), frames[0] the one before it,
	// frames[2] and frames[3] the two after.
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Fractional position between frames[1] and frames[2].
	pos float64

	srcBuf []float32
	eof    bool

	// One-pole low-pass state, only used when downsampling.
	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	useFilter := ratio > 1.0
	var filterAlpha float32
	if useFilter {
		filterAlpha = 0.5
	}

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   useFilter,
		filterAlpha: filterAlpha,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// TotalFrames reports the source length converted to the target rate.
func (r *Resampler) TotalFrames() int64 {
	s, ok := r.src.(Seeker)
	if !ok {
		return 0
	}
	return s.TotalFrames() * int64(r.dstRate) / int64(r.srcRate)
}

// SeekFrame positions the resampler at an output-rate frame.
func (r *Resampler) SeekFrame(frame int64) error {
	s, ok := r.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if frame < 0 {
		return ErrSeekOutOfRange
	}

	exact := float64(frame) * r.ratio
	srcFrame := int64(math.Floor(exact))
	if err := s.SeekFrame(srcFrame); err != nil {
		return fmt.Errorf("resampler seek: %w", err)
	}

	r.reset()
	r.pos = exact - float64(srcFrame)

	return nil
}

func (r *Resampler) reset() {
	for i := range r.frames {
		clear(r.frames[i])
		r.hasFrame[i] = false
	}
	clear(r.filterState)
	r.primed = false
	r.eof = false
	r.pos = 0
}

// readFrame pulls one source frame into dst, applying the anti-alias filter.
func (r *Resampler) readFrame(dst []float32, first bool) (bool, error) {
	if r.eof {
		return false, nil
	}

	n, err := r.src.ReadSamples(r.srcBuf)
	got := n >= r.channels
	if got {
		if first && r.useFilter {
			copy(r.filterState, r.srcBuf)
		}
		copy(dst, r.srcBuf)
		if r.useFilter {
			for c := range r.channels {
				dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = dst[c]
			}
		}
	}

	if err == io.EOF {
		r.eof = true
		return got, nil
	}
	if err != nil {
		return got, fmt.Errorf("%w", err)
	}
	if !got {
		// A zero read without EOF is treated as the end of the stream.
		r.eof = true
	}

	return got, nil
}

// prime loads the window so frames[1] is the current source frame.
// frames[0] duplicates it since there is no history after a seek.
func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.readFrame(r.frames[1], true)
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	copy(r.frames[0], r.frames[1])
	r.hasFrame[0], r.hasFrame[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err := r.readFrame(r.frames[i], false)
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
		if !ok {
			break
		}
	}

	return nil
}

// advance shifts the window one source frame forward.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.hasFrame[0] = r.hasFrame[1]
	r.hasFrame[1] = r.hasFrame[2]
	r.hasFrame[2] = r.hasFrame[3]

	ok, err := r.readFrame(r.frames[3], false)
	if err != nil {
		return err
	}
	r.hasFrame[3] = ok

	if !r.hasFrame[1] {
		return io.EOF
	}
	return nil
}

// ReadSamples produces dst samples at the target rate.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		if !r.hasFrame[1] {
			return written * r.channels, io.EOF
		}

		// Past the last source frame there is nothing to interpolate towards.
		if !r.hasFrame[2] {
			if r.pos > 0 {
				return written * r.channels, io.EOF
			}
			copy(dst[written*r.channels:], r.frames[1])
			written++
			r.pos += r.ratio
			continue
		}

		alpha := float32(r.pos)
		for c := range r.channels {
			y0 := r.frames[0][c]
			y1 := r.frames[1][c]
			y2 := r.frames[2][c]
			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}

			dst[written*r.channels+c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
