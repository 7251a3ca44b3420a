// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ik5/audstream/config"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/player"
	"github.com/ik5/audstream/plugin"
)

var errNotFreewheel = errors.New("plugin cannot render offline")

// freewheeler is a plugin an offline host can keep in lockstep with its
// background reader.
type freewheeler interface {
	plugin.Plugin
	Frames() uint64
	WaitIdle(ctx context.Context) error
}

type result struct {
	Input   string
	Output  string
	Frames  int
	Peak    float32
	Elapsed time.Duration
	Err     error
}

func outputPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".wav")
}

// render plays input through a fresh player instance and writes the stereo
// output at the configured rate to a WAV file in outDir.
func render(ctx context.Context, plugins *plugin.Registry, cfg config.Config, input, outDir string, logger *slog.Logger) (res result) {
	res = result{Input: input, Output: outputPath(outDir, input)}
	started := time.Now()
	defer func() { res.Elapsed = time.Since(started) }()

	host := plugin.NewTransport(cfg.SampleRate)
	p, err := plugins.Instantiate(player.ID, host)
	if err != nil {
		res.Err = err
		return res
	}
	defer p.Close()

	fw, ok := p.(freewheeler)
	if !ok {
		res.Err = fmt.Errorf("%w: %T", errNotFreewheel, p)
		return res
	}

	p.SetParameter(player.ParamLoop, 0)
	p.SetParameter(player.ParamHostSync, 1)

	if err := p.LoadCustomData(player.KeyFile, input); err != nil {
		res.Err = err
		return res
	}

	f, err := os.Create(res.Output)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	w, err := wav.NewWriter(f, int(cfg.SampleRate), 2)
	if err != nil {
		res.Err = err
		return res
	}

	total := int(fw.Frames())
	block := cfg.BlockSize
	left := make([]float32, block)
	right := make([]float32, block)
	interleaved := make([]float32, block*2)
	outputs := [][]float32{left, right}

	logger.Debug("audstream: rendering", "input", input, "frames", total, "block", block)

	host.Play()
	for res.Frames < total {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		n := min(block, total-res.Frames)
		outputs[0], outputs[1] = left[:n], right[:n]
		p.Process(nil, outputs, n)
		host.Advance(n)

		for i := range n {
			interleaved[i*2] = left[i]
			interleaved[i*2+1] = right[i]
			res.Peak = max(res.Peak, abs(left[i]), abs(right[i]))
		}
		if err := w.Write(interleaved[:n*2]); err != nil {
			res.Err = err
			return res
		}
		res.Frames += n

		if err := fw.WaitIdle(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	if err := w.Close(); err != nil {
		res.Err = err
		return res
	}

	logger.Info("audstream: rendered",
		"input", input,
		"output", res.Output,
		"frames", res.Frames,
		"peak_dbfs", dbfs(res.Peak),
	)

	return res
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// floorDBFS is reported for silence and anything quieter.
const floorDBFS = -120

func dbfs(peak float32) float64 {
	if peak <= 0 {
		return floorDBFS
	}
	return max(20*math.Log10(float64(peak)), floorDBFS)
}
