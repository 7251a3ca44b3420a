// SPDX-License-Identifier: EPL-2.0

package audio

// Deinterleave splits interleaved samples into left and right.
// Mono input is duplicated to both sides; for more than two channels only
// the first two are kept. Frames of left/right not covered by src are
// zero-filled. It returns the number of frames taken from src.
func Deinterleave(left, right, src []float32, channels int) int {
	if channels < 1 {
		clear(left)
		clear(right)
		return 0
	}

	frames := min(len(src)/channels, len(left), len(right))

	switch channels {
	case 1:
		copy(left[:frames], src[:frames])
		copy(right[:frames], src[:frames])
	case 2:
		for f := range frames {
			idx := f << 1
			left[f] = src[idx]
			right[f] = src[idx+1]
		}
	default:
		for f := range frames {
			idx := f * channels
			left[f] = src[idx]
			right[f] = src[idx+1]
		}
	}

	clear(left[frames:])
	clear(right[frames:])

	return frames
}

// ReadFull reads from src until dst is full, EOF, or an error. It returns
// the number of samples read. A short read at EOF is not an error.
func ReadFull(src Source, dst []float32) (int, error) {
	channels := src.Channels()
	if channels < 1 || len(dst)%channels != 0 {
		return 0, ErrInvalidDstSize
	}

	total := 0
	stalls := 0
	for total < len(dst) {
		n, err := src.ReadSamples(dst[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			// Decoders may return 0, nil between frames; give up after a few.
			stalls++
			if stalls > 3 {
				return total, nil
			}
			continue
		}
		stalls = 0
	}

	return total, nil
}
