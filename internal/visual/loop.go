// Package visual ties capture, detection and the particle field into one
// per-frame tick that any refresh-driven host can call.
package visual

import (
	"context"
	"image/color"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/field"
	"go.uber.org/zap"
)

// Capture is the audio side of the loop; *audio.Session implements it.
type Capture interface {
	Enable(ctx context.Context)
	Disable()
	Sample() ([]uint8, bool)
}

// Surface is the drawing target of one frame.
type Surface interface {
	field.Canvas
	// Fade paints a translucent overlay of clr across the whole surface.
	Fade(clr color.Color)
}

// Settings is the host-supplied configuration. Changing AudioReactive starts
// or stops capture on the next Configure call.
type Settings struct {
	AudioReactive  bool
	ColorShift     float64
	OnVolumeChange func(volume float64)
	OnClap         func()
}

// Frame is the input snapshot for one tick.
type Frame struct {
	Pointer    field.Point
	Hand       field.Point
	HandActive bool
}

// FrameResult is what one tick produced.
type FrameResult struct {
	Volume     float64
	Clapped    bool
	Magnitudes []uint8
}

// Loop holds the per-frame state: one detector, one field and the capture
// session. It is driven from a single goroutine.
type Loop struct {
	capture  Capture
	detector *audio.Detector
	field    *field.Field
	settings Settings
	log      *zap.Logger

	last FrameResult
}

func NewLoop(capture Capture, f *field.Field, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		capture:  capture,
		detector: audio.NewDetector(),
		field:    f,
		log:      log,
	}
}

// Configure applies new settings. Turning reactivity on starts acquisition,
// turning it off releases the device.
func (l *Loop) Configure(ctx context.Context, s Settings) {
	prev := l.settings.AudioReactive
	l.settings = s
	switch {
	case s.AudioReactive && !prev:
		l.capture.Enable(ctx)
	case !s.AudioReactive && prev:
		l.capture.Disable()
	}
}

// Resize rebuilds the particle population for a new surface size.
func (l *Loop) Resize(width, height int) {
	l.field.Resize(width, height)
	l.log.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
}

// Tick samples audio, runs detection, delivers callbacks and advances the
// field by one frame. It never blocks on capture: without a sample the frame
// runs at zero volume.
func (l *Loop) Tick(in Frame) FrameResult {
	var r audio.Reading
	var mags []uint8
	if l.settings.AudioReactive {
		if m, ok := l.capture.Sample(); ok {
			mags = m
			r = l.detector.Update(m)
		} else {
			r = l.detector.Silence()
		}
	} else {
		r = l.detector.Silence()
	}

	res := FrameResult{Volume: r.Volume, Clapped: r.Clap, Magnitudes: mags}
	if res.Clapped {
		l.log.Debug("clap", zap.Float64("volume", r.Volume), zap.Float64("previous", r.PreviousVolume))
		if l.settings.OnClap != nil {
			l.settings.OnClap()
		}
	}
	if l.settings.OnVolumeChange != nil {
		l.settings.OnVolumeChange(res.Volume)
	}

	l.field.Step(field.Inputs{
		Volume:     res.Volume,
		Pointer:    in.Pointer,
		Hand:       in.Hand,
		HandActive: in.HandActive,
	})
	l.last = res
	return res
}

// Paint draws the trail overlay and the particles for the last tick.
func (l *Loop) Paint(dst Surface) {
	dst.Fade(trailColor)
	l.field.Render(dst, l.last.Volume, l.settings.ColorShift)
}

// Close stops capture.
func (l *Loop) Close() {
	l.capture.Disable()
}

var trailColor = color.RGBA{A: config.TrailAlpha}
