package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720

	// Capture and analysis
	SampleRate            = 44100
	FFTSize               = 256
	BinCount              = FFTSize / 2
	TapSize               = 8192
	SmoothingTimeConstant = 0.8
	MinDecibels           = -100.0
	MaxDecibels           = -30.0

	// Volume and clap detection
	ClapThreshold = 0.3
	ClapRatio     = 1.5
	VolumeFloor   = 0.01

	// Particle population
	ParticleCount   = 2000
	MinParticleSize = 1.0
	MaxParticleSize = 4.0

	// Forces
	PointerRadius    = 150.0
	PointerStrength  = 5.0
	HandRadius       = 200.0
	HandStrength     = 6.0
	JitterThreshold  = 0.05
	SpringGain       = 0.05
	Damping          = 0.90
	MinForceDistance = 1e-6

	// Compositing
	VolumeSizeBoost = 5.0
	TrailAlpha      = 25 // of 255
	PointerAbsent   = -1000.0

	ColorShiftSpeed = 0.2
	ClapShiftStep   = 30.0
)

// SourceMic selects the default microphone as the capture device.
const SourceMic = "mic"

// Options holds the host settings taken from the command line, with
// PARTICLES_* environment variables as defaults.
type Options struct {
	Width           int
	Height          int
	AudioReactive   bool
	Source          string
	ColorShiftSpeed float64
	HandAddr        string
	LogLevel        string
	Dev             bool
}

// Parse reads options from args. Unset flags fall back to the environment,
// then to the package defaults.
func Parse(args []string) (Options, error) {
	fs := flag.NewFlagSet("particle-field", flag.ContinueOnError)

	var o Options
	fs.IntVar(&o.Width, "width", envInt("PARTICLES_WIDTH", WindowWidth), "window width")
	fs.IntVar(&o.Height, "height", envInt("PARTICLES_HEIGHT", WindowHeight), "window height")
	fs.BoolVar(&o.AudioReactive, "audio", envBool("PARTICLES_AUDIO", true), "start with audio reactivity enabled")
	fs.StringVar(&o.Source, "source", envString("PARTICLES_SOURCE", SourceMic), `capture source: "mic" or a wav/mp3/flac file`)
	fs.Float64Var(&o.ColorShiftSpeed, "shift-speed", envFloat("PARTICLES_SHIFT_SPEED", ColorShiftSpeed), "hue rotation in degrees per frame")
	fs.StringVar(&o.HandAddr, "hand-addr", envString("PARTICLES_HAND_ADDR", "127.0.0.1:8765"), "listen address for the hand feed and metrics (empty disables)")
	fs.StringVar(&o.LogLevel, "log-level", envString("PARTICLES_LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&o.Dev, "dev", envBool("PARTICLES_DEV", false), "human readable development logging")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", o.Width, o.Height)
	}
	if o.Source == "" {
		return errors.New("empty capture source")
	}
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", o.LogLevel)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
