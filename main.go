package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/game"
	"github.com/iburimskiy/particle-field/internal/hand"
	"github.com/iburimskiy/particle-field/internal/metrics"
	"github.com/iburimskiy/particle-field/internal/mic"
	"github.com/iburimskiy/particle-field/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(opts config.Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewCollector("particle_field")
	tracker := hand.NewTracker(log.Named("hand"))
	tracker.OnConnections = func(n int) { m.HandFeeds.Set(float64(n)) }

	if opts.HandAddr != "" {
		go func() {
			if err := server.Run(ctx, opts.HandAddr, server.NewRouter(tracker, m.Handler()), log.Named("server")); err != nil {
				log.Error("hand feed server stopped", zap.Error(err))
			}
		}()
	}

	fileLog := log.Named("file")
	sources := game.Sources{
		Mic:  mic.Opener(log.Named("mic")),
		File: func(path string) audio.Opener { return audio.FileOpener(path, fileLog) },
	}
	if opts.Source != config.SourceMic {
		sources.Initial = sources.File(opts.Source)
	}

	g := game.New(ctx, opts, sources, tracker, m, log)
	defer g.Close()

	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle("Particle Field - A: audio, O: open file, M: microphone, H: hud, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		g.Close()
		log.Fatal("render loop failed", zap.Error(err))
	}
}
