// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, even for mono streams, so the
// returned source reports two channels. Sample rate comes from the first
// frame of the file.
//
// The source implements audio.Seeker. go-mp3 seeks by byte offset of the
// decoded PCM stream and needs an io.Seeker underneath, so readers that cannot
// seek are buffered in memory by Decode:
//
//	f, _ := os.Open("audio.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	seekable, _ := audio.AsSeekable(src)
//	seekable.SeekFrame(44100)
//
// TotalFrames needs a full scan of the frame headers, which go-mp3 does once
// while opening the decoder.
//
// Encoding MP3 is not supported.
package mp3
