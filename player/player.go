// SPDX-License-Identifier: EPL-2.0

package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ik5/audstream/plugin"
	"github.com/ik5/audstream/pool"
	"github.com/ik5/audstream/reader"
)

// ID identifies the player in a plugin registry.
const ID = "audstream.audiofile"

// KeyFile is the custom data key that loads a media file.
const KeyFile = "file"

// Info describes the player.
var Info = plugin.Info{
	ID:       ID,
	Name:     "Audio File",
	Version:  "1.0.0",
	Vendor:   "audstream",
	Category: "Generator",
}

// NewDescriptor returns a registry entry creating players with opts.
func NewDescriptor(opts ...Option) plugin.Descriptor {
	return plugin.Descriptor{
		Info:       Info,
		Parameters: Parameters,
		Outputs:    2,
		New: func(host plugin.Host) (plugin.Plugin, error) {
			return New(host, opts...)
		},
	}
}

// Player streams a media file to two outputs in step with the host
// transport. Process is the realtime consumer; LoadCustomData drives the
// background reader from the control thread.
type Player struct {
	id     uuid.UUID
	host   plugin.Host
	logger *slog.Logger

	pool   *pool.Pool
	reader *reader.Reader

	// internal is the transport used while host sync is off. It always plays.
	internal *plugin.Transport

	params [paramCount]paramValue

	// Consumer state. lastFrame is only written by Process.
	lastFrame uint64
	position  atomic.Uint64
	maxFrame  atomic.Uint64

	ctl    sync.Mutex
	file   string
	closed bool
}

var _ plugin.Plugin = (*Player)(nil)

// New creates a player bound to host. The pool is sized from the host
// sample rate; a rate that cannot be served fails instantiation.
func New(host plugin.Host, opts ...Option) (*Player, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.open == nil {
		return nil, ErrNoOpener
	}

	sampleRate := host.SampleRate()
	p, err := pool.New(sampleRate, o.poolSeconds)
	if err != nil {
		return nil, fmt.Errorf("player: allocating pool: %w", err)
	}

	id := uuid.New()
	logger := o.logger.With("instance", id.String())

	readerOpts := []reader.Option{
		reader.WithLogger(logger),
		reader.WithReadAhead(o.readAhead),
		reader.WithStopTimeout(o.stopTimeout),
	}
	if o.resample {
		readerOpts = append(readerOpts, reader.WithResample(int(sampleRate)))
	}

	r, err := reader.New(p, o.open, readerOpts...)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("player: creating reader: %w", err)
	}

	pl := &Player{
		id:       id,
		host:     host,
		logger:   logger,
		pool:     p,
		reader:   r,
		internal: plugin.NewTransport(sampleRate),
	}
	pl.internal.Play()

	for _, param := range Parameters {
		pl.params[param.ID].Store(param.Default)
	}
	r.SetLoop(pl.params[ParamLoop].On())

	logger.Debug("audstream: player created",
		"sample_rate", sampleRate,
		"pool_frames", p.Size(),
	)

	return pl, nil
}

// InstanceID is the id carried by every log line of this player.
func (p *Player) InstanceID() uuid.UUID { return p.id }

// Frames is the length of the loaded media in host frames.
func (p *Player) Frames() uint64 { return p.maxFrame.Load() }

// WaitIdle blocks until the reader has served every refill requested so
// far. Offline hosts call it between blocks so the window never falls
// behind the transport.
func (p *Player) WaitIdle(ctx context.Context) error {
	return p.reader.WaitIdle(ctx)
}

// File returns the path of the loaded media, or "" when none is loaded.
func (p *Player) File() string {
	p.ctl.Lock()
	defer p.ctl.Unlock()
	return p.file
}

func (p *Player) GetParameter(id uint32) float32 {
	switch id {
	case ParamChannels:
		return float32(p.reader.Channels())
	case ParamSampleRate:
		return float32(p.reader.SampleRate())
	case ParamLength:
		rate := p.reader.SampleRate()
		if rate == 0 {
			return 0
		}
		return float32(float64(p.maxFrame.Load()) / float64(rate))
	case ParamPosition:
		maxFrame := p.maxFrame.Load()
		if maxFrame == 0 {
			return 0
		}
		return float32(float64(p.position.Load()) / float64(maxFrame) * 100)
	}

	if id >= paramCount {
		return 0
	}
	return p.params[id].Load()
}

// SetParameter clamps value to the parameter range. Read-only and unknown
// ids are ignored.
func (p *Player) SetParameter(id uint32, value float32) {
	if id >= paramCount {
		return
	}

	param := Parameters[id]
	if param.Flags&plugin.IsReadOnly != 0 {
		return
	}

	p.params[id].Store(param.Clamp(value))

	if id == ParamLoop {
		p.reader.SetLoop(p.params[id].On())
	}
}

// LoadCustomData handles KeyFile: it stops the reader, loads the file with
// a synchronous first read and restarts the reader. It blocks and must not
// be called from the audio thread. It waits at most the stop timeout for
// the worker; a worker stuck in a decode fails the load with
// reader.ErrWorkerStuck.
func (p *Player) LoadCustomData(key, value string) error {
	if key != KeyFile {
		return fmt.Errorf("%w: %q", plugin.ErrUnknownKey, key)
	}

	p.ctl.Lock()
	defer p.ctl.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.reader.Stop()
	p.maxFrame.Store(0)
	p.file = ""

	if err := p.reader.Load(value); err != nil {
		return fmt.Errorf("player: loading %q: %w", value, err)
	}

	p.maxFrame.Store(p.reader.MaxFrame())
	p.internal.Seek(0)
	p.file = value

	if err := p.reader.Start(); err != nil {
		return fmt.Errorf("player: starting reader: %w", err)
	}

	return nil
}

// Close stops the reader and releases the pool. Process renders silence
// afterwards.
func (p *Player) Close() error {
	p.ctl.Lock()
	defer p.ctl.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.reader.Close()
	p.pool.Destroy()

	p.logger.Debug("audstream: player closed")

	return err
}

// Process renders frames samples of the loaded media into outputs[0] and
// outputs[1]. With fewer than two outputs it renders silence.
//
// The block is classified in order: not ready, transport stopped, out of
// reach of the pool window, and in range. Only the last one copies from
// the pool. Process never blocks, allocates or logs.
//
// With Loop on, the window is indexed by transport frame and the reader
// fills it across the loop point, so frames past the end of media play
// media frame mod Frames.
func (p *Player) Process(_, outputs [][]float32, frames int) {
	if frames <= 0 {
		return
	}
	if len(outputs) < 2 {
		silence(outputs, frames)
		return
	}

	frames = min(frames, len(outputs[0]), len(outputs[1]))
	left, right := outputs[0][:frames], outputs[1][:frames]
	silence(outputs[2:], frames)

	var ti plugin.TimeInfo
	if p.params[ParamHostSync].On() {
		ti = p.host.TimeInfo()
	} else {
		ti = p.internal.TimeInfo()
		p.internal.Advance(frames)
	}

	frame := ti.Frame
	maxFrame := p.maxFrame.Load()
	loop := p.params[ParamLoop].On() && maxFrame > 0

	prev := p.lastFrame
	p.lastFrame = frame
	if loop {
		p.position.Store(frame % maxFrame)
	} else {
		p.position.Store(frame)
	}

	if !p.params[ParamEnabled].On() || !p.reader.Ready() {
		clear(left)
		clear(right)
		return
	}

	if !ti.Playing {
		clear(left)
		clear(right)
		if frame == 0 && prev > 0 {
			p.reader.SetLastFrame(0)
			p.reader.SetNeedsRead()
		}
		return
	}

	if p.outOfReach(frame, frames, maxFrame, loop) {
		clear(left)
		clear(right)
		p.reader.SetLastFrame(frame)
		p.reader.SetNeedsRead()
		return
	}

	p.reader.TryPutData(frame)

	if !p.pool.Drain(frame, left, right) {
		return
	}

	if gain := p.params[ParamVolume].Load(); gain != 1 {
		for i := range left {
			left[i] *= gain
			right[i] *= gain
		}
	}
}

// outOfReach reports whether no sample of [frame, frame+frames) can come
// from the current pool window, checking both window edges and, unless
// looping, the end of the media.
func (p *Player) outOfReach(frame uint64, frames int, maxFrame uint64, loop bool) bool {
	start := p.pool.StartFrame()
	end := start + uint64(p.pool.Size())

	if frame+uint64(frames) < start || frame >= end {
		return true
	}
	return !loop && frame >= maxFrame
}

func silence(outputs [][]float32, frames int) {
	for _, out := range outputs {
		clear(out[:min(frames, len(out))])
	}
}
