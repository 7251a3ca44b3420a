// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes WAV files on top of github.com/go-audio/wav.
//
// # Decoding
//
// The Decoder walks the RIFF chunks with go-audio/wav, then reads the data
// chunk itself so the returned source can seek by frame:
//
//	f, _ := os.Open("audio.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	seekable, _ := audio.AsSeekable(src)
//	seekable.SeekFrame(48000)
//
// Supported encodings are integer PCM at 8, 16, 24 and 32 bits (format tags 1
// and 0xFFFE) and 32-bit IEEE float (format tag 3). Any channel count is
// decoded; samples come back interleaved as float32 in [-1, 1].
//
// Readers that do not implement io.Seeker are buffered in memory.
//
// A data chunk that claims more bytes than the file holds is clamped to the
// end of the file.
//
// # Encoding
//
// Writer streams float32 blocks into a 16-bit PCM file. The RIFF sizes are
// patched on Close, so the destination must be an io.WriteSeeker:
//
//	f, _ := os.Create("out.wav")
//	w, _ := wav.NewWriter(f, 48000, 2)
//	w.Write(block)
//	w.Close()
//
// WritePCM16 writes a whole file of already converted samples in one call.
package wav
