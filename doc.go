// SPDX-License-Identifier: EPL-2.0

// Package audstream streams audio files into realtime audio callbacks.
//
// A player instance owns a fixed window of decoded stereo audio (package
// pool) that a background goroutine (package reader) keeps filled ahead of
// the host transport. The audio thread only copies out of the window; it
// never blocks, allocates or decodes.
//
// This package wires the pieces together with the decoders shipped in
// formats/:
//
//	plugins, err := audstream.NewPluginRegistry()
//	if err != nil {
//		return err
//	}
//
//	host := plugin.NewTransport(48000)
//	p, err := plugins.Instantiate(player.ID, host)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	if err := p.LoadCustomData(player.KeyFile, "loop.ogg"); err != nil {
//		return err
//	}
//
//	host.Play()
//	p.Process(nil, [][]float32{left, right}, len(left))
//
// # Supported Formats
//
//   - WAV (PCM 8/16/24/32-bit, IEEE float) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 8/16/24/32-bit) via formats/aiff
//
// Files are matched to a decoder by extension.
package audstream
