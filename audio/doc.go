// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding primitives the streaming player reads from.
//
// # Source Interface
//
// Every decoder produces a Source of interleaved float32 samples in [-1,1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Sources opened from an io.ReadSeeker additionally implement Seeker, so the
// background reader can jump to any frame of the file:
//
//	type Seeker interface {
//	    TotalFrames() int64
//	    SeekFrame(frame int64) error
//	}
//
// # Resampling
//
// The Resampler converts a source to the host sample rate using cubic
// interpolation. When the wrapped source is seekable the Resampler is too,
// and frame positions are expressed at the output rate:
//
//	r := audio.NewResampler(src, 48000)
//	_ = r.SeekFrame(48000) // one second in, at 48kHz
//
// # Channel Layout
//
// Deinterleave splits interleaved samples into the left/right channel
// arrays of the playback pool. Mono is duplicated to both sides.
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get("wav")
//
// # Error Handling
//
// ReadSamples returns io.EOF when no more data is available. A short read
// followed by io.EOF is normal at the end of a stream.
package audio
