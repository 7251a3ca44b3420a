// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
)

// Float32ToInt16 clamps x to [-1,1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// FullScale returns the divisor that maps a signed integer sample of the
// given bit depth to [-1,1]. Unknown depths fall back to 16-bit.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

// DecodeLE converts little-endian PCM bytes into float32 samples.
// 8-bit PCM is unsigned, larger depths are signed. When float is true the
// data is IEEE 754 32-bit. Returns the number of samples written.
func DecodeLE(dst []float32, src []byte, bitDepth int, float bool) int {
	width := bitDepth / 8
	if width < 1 {
		return 0
	}

	n := min(len(src)/width, len(dst))

	if float && bitDepth == 32 {
		for i := range n {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
		}
		return n
	}

	scale := FullScale(bitDepth)

	switch bitDepth {
	case 8:
		for i := range n {
			dst[i] = float32(int(src[i])-128) / scale
		}
	case 16:
		for i := range n {
			dst[i] = float32(int16(binary.LittleEndian.Uint16(src[2*i:]))) / scale
		}
	case 24:
		for i := range n {
			b := src[3*i:]
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			dst[i] = float32(v) / scale
		}
	case 32:
		for i := range n {
			dst[i] = float32(int32(binary.LittleEndian.Uint32(src[4*i:]))) / scale
		}
	default:
		return 0
	}

	return n
}
