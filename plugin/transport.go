// SPDX-License-Identifier: EPL-2.0

package plugin

import (
	"sync/atomic"
)

// Transport is a Host driven by the caller: an offline renderer or a test
// moves the play head explicitly. It is safe to use from several goroutines.
type Transport struct {
	sampleRate float64
	playing    atomic.Bool
	frame      atomic.Uint64
}

func NewTransport(sampleRate float64) *Transport {
	return &Transport{sampleRate: sampleRate}
}

func (t *Transport) SampleRate() float64 { return t.sampleRate }

func (t *Transport) TimeInfo() TimeInfo {
	return TimeInfo{
		Playing: t.playing.Load(),
		Frame:   t.frame.Load(),
	}
}

func (t *Transport) Play()             { t.playing.Store(true) }
func (t *Transport) Pause()            { t.playing.Store(false) }
func (t *Transport) Seek(frame uint64) { t.frame.Store(frame) }
func (t *Transport) Frame() uint64     { return t.frame.Load() }
func (t *Transport) Playing() bool     { return t.playing.Load() }

// Advance moves the play head by frames when playing.
func (t *Transport) Advance(frames int) {
	if t.playing.Load() && frames > 0 {
		t.frame.Add(uint64(frames))
	}
}
