// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
// Samples come back interleaved as float32 in [-1, 1] with the stream's own
// channel count. The source implements audio.Seeker:
//
//	f, _ := os.Open("audio.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	seekable, _ := audio.AsSeekable(src)
//	seekable.SeekFrame(seekable.TotalFrames() / 2)
//
// oggvorbis finds the stream length by reading the last page, so Decode
// buffers readers that do not implement io.Seeker.
package vorbis
