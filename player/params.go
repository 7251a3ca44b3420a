// SPDX-License-Identifier: EPL-2.0

package player

import (
	"math"
	"sync/atomic"

	"github.com/ik5/audstream/plugin"
)

// Parameter ids.
const (
	ParamLoop uint32 = iota
	ParamHostSync
	ParamVolume
	ParamEnabled
	ParamChannels
	ParamSampleRate
	ParamLength
	ParamPosition

	paramCount
)

// Parameters lists the player's parameters in id order.
var Parameters = []plugin.Parameter{
	{ID: ParamLoop, Name: "Loop", Min: 0, Max: 1, Default: 1, Flags: plugin.CanAutomate | plugin.IsBoolean},
	{ID: ParamHostSync, Name: "Host Sync", Min: 0, Max: 1, Default: 1, Flags: plugin.CanAutomate | plugin.IsBoolean},
	{ID: ParamVolume, Name: "Volume", Unit: "x", Min: 0, Max: 2, Default: 1, Flags: plugin.CanAutomate},
	{ID: ParamEnabled, Name: "Enabled", Min: 0, Max: 1, Default: 1, Flags: plugin.CanAutomate | plugin.IsBoolean},
	{ID: ParamChannels, Name: "Num Channels", Min: 0, Max: 2, Flags: plugin.IsReadOnly},
	{ID: ParamSampleRate, Name: "Sample Rate", Unit: "Hz", Min: 0, Max: 384000, Flags: plugin.IsReadOnly},
	{ID: ParamLength, Name: "Length", Unit: "s", Min: 0, Max: math.MaxFloat32, Flags: plugin.IsReadOnly},
	{ID: ParamPosition, Name: "Position", Unit: "%", Min: 0, Max: 100, Flags: plugin.IsReadOnly},
}

// paramValue is a float32 readable from the audio thread without locking.
type paramValue struct {
	bits atomic.Uint32
}

func (v *paramValue) Load() float32   { return math.Float32frombits(v.bits.Load()) }
func (v *paramValue) Store(f float32) { v.bits.Store(math.Float32bits(f)) }
func (v *paramValue) On() bool        { return v.Load() > 0.5 }
