// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported with any channel count.
// Samples come back interleaved as float32 in [-1, 1].
//
// go-audio/aiff reads the SSND chunk sequentially, so SeekFrame restarts the
// decoder and discards frames when moving backwards. Forward seeks only
// discard. Readers without io.Seeker are buffered in memory by Decode.
//
//	f, _ := os.Open("audio.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	seekable, _ := audio.AsSeekable(src)
//	seekable.SeekFrame(0)
package aiff
