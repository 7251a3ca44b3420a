// SPDX-License-Identifier: EPL-2.0

// Command audstream-render plays audio files through the streaming player
// as an offline host and writes what it rendered to stereo WAV files.
//
//	audstream-render [-config audstream.yaml] [-out dir] file...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/config"
	"github.com/ik5/audstream/player"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	outDir := flag.String("out", ".", "Output directory")
	jobs := flag.Int("j", runtime.NumCPU(), "Files rendered concurrently")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("audstream: creating output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	results, err := renderAll(ctx, cfg, flag.Args(), *outDir, *jobs, logger)
	if err != nil {
		logger.Error("audstream: render failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(summary(results, cfg.SampleRate))

	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}

// renderAll renders inputs with at most jobs files in flight. A failing
// file does not stop the others; its error is kept in its result.
func renderAll(ctx context.Context, cfg config.Config, inputs []string, outDir string, jobs int, logger *slog.Logger) ([]result, error) {
	plugins, err := audstream.NewPluginRegistry(player.WithConfig(cfg), player.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	results := make([]result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = render(gctx, plugins, cfg, input, outDir, logger)
			if r := results[i]; r.Err != nil {
				logger.Warn("audstream: render failed", "input", input, "error", r.Err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
