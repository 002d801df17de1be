package game

import (
	"context"
	"errors"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/field"
	"github.com/iburimskiy/particle-field/internal/hand"
	"github.com/iburimskiy/particle-field/internal/metrics"
	"github.com/iburimskiy/particle-field/internal/notify"
	"github.com/iburimskiy/particle-field/internal/visual"
	"go.uber.org/zap"
)

var captureStates = []string{
	audio.StateIdle.String(),
	audio.StateAcquiring.String(),
	audio.StateActive.String(),
	audio.StateError.String(),
}

// Sources are the capture openers the player can switch between.
type Sources struct {
	Mic  audio.Opener
	File func(path string) audio.Opener
	// Initial is used at startup; nil means Mic.
	Initial audio.Opener
}

// HandSource supplies the latest hand position.
type HandSource interface {
	Snapshot() hand.Position
}

type pickResult struct {
	path string
	err  error
}

// Game hosts the particle field in an ebiten window.
type Game struct {
	ctx      context.Context
	opts     config.Options
	log      *zap.Logger
	session  *audio.Session
	loop     *visual.Loop
	sources  Sources
	hand     HandSource
	metrics  *metrics.Collector
	notifier *notify.Notifier

	canvas        *ebiten.Image
	width, height int
	outW, outH    int

	reactive   bool
	colorShift float64
	volume     float64
	last       visual.FrameResult
	claps      int
	showHUD    bool
	touches    []ebiten.TouchID

	picking atomic.Bool
	picked  chan pickResult
}

// New wires capture, detection and the field. Capture starts on the first
// Update when opts.AudioReactive is set.
func New(ctx context.Context, opts config.Options, sources Sources, hs HandSource, m *metrics.Collector, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Game{
		ctx:      ctx,
		opts:     opts,
		log:      log,
		sources:  sources,
		hand:     hs,
		metrics:  m,
		notifier: notify.New(log),
		reactive: opts.AudioReactive,
		showHUD:  true,
		picked:   make(chan pickResult, 1),
	}
	initial := sources.Initial
	if initial == nil {
		initial = sources.Mic
	}
	g.session = audio.NewSession(initial, log.Named("capture"), g.onTransition)
	g.loop = visual.NewLoop(g.session, field.New(nil, field.DefaultPalette), log.Named("loop"))
	m.SetCaptureState(audio.StateIdle.String(), captureStates...)
	return g
}

// onTransition runs on whichever goroutine changed the session state.
func (g *Game) onTransition(t audio.Transition) {
	g.metrics.SetCaptureState(t.To.String(), captureStates...)
	if t.To != audio.StateError {
		return
	}
	reason := "unavailable"
	if errors.Is(t.Err, audio.ErrPermissionDenied) {
		reason = "denied"
	}
	g.metrics.CaptureFailures.WithLabelValues(reason).Inc()
	g.notifier.CaptureFailed(t.Err)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	g.handleKeys()
	g.receivePick()

	if g.outW > 0 && g.outH > 0 && (g.outW != g.width || g.outH != g.height) {
		g.resize(g.outW, g.outH)
	}

	g.colorShift += g.opts.ColorShiftSpeed
	g.loop.Configure(g.ctx, visual.Settings{
		AudioReactive:  g.reactive,
		ColorShift:     g.colorShift,
		OnVolumeChange: g.onVolumeChange,
		OnClap:         g.onClap,
	})

	start := time.Now()
	g.last = g.loop.Tick(g.frame())
	g.metrics.ObserveFrame(g.last.Volume, g.last.Clapped, time.Since(start))
	return nil
}

func (g *Game) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.reactive = !g.reactive
		g.log.Info("audio reactivity", zap.Bool("enabled", g.reactive))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) && g.sources.Mic != nil {
		g.session.SetOpener(g.ctx, g.sources.Mic)
		g.reactive = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) && g.sources.File != nil && g.picking.CompareAndSwap(false, true) {
		go func() {
			defer g.picking.Store(false)
			path, ok, err := notify.SelectAudioFile()
			if ok || err != nil {
				g.picked <- pickResult{path: path, err: err}
			}
		}()
	}
}

func (g *Game) receivePick() {
	select {
	case res := <-g.picked:
		if res.err != nil {
			g.log.Warn("file dialog failed", zap.Error(res.err))
			return
		}
		g.log.Info("capture source selected", zap.String("path", res.path))
		g.session.SetOpener(g.ctx, g.sources.File(res.path))
		g.reactive = true
	default:
	}
}

func (g *Game) onVolumeChange(v float64) { g.volume = v }

func (g *Game) onClap() {
	g.claps++
	g.colorShift += config.ClapShiftStep
}

func (g *Game) frame() visual.Frame {
	f := visual.Frame{Pointer: g.pointer()}
	if g.hand != nil {
		if p := g.hand.Snapshot(); p.Active {
			f.Hand = field.Point{X: p.X, Y: p.Y}
			f.HandActive = true
		}
	}
	return f
}

// pointer returns the first touch, else the cursor while it is over a
// focused window, else the offscreen point.
func (g *Game) pointer() field.Point {
	g.touches = ebiten.AppendTouchIDs(g.touches[:0])
	if len(g.touches) > 0 {
		x, y := ebiten.TouchPosition(g.touches[0])
		return field.Point{X: float64(x), Y: float64(y)}
	}
	if !ebiten.IsFocused() {
		return field.Offscreen
	}
	x, y := ebiten.CursorPosition()
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return field.Offscreen
	}
	return field.Point{X: float64(x), Y: float64(y)}
}

func (g *Game) resize(w, h int) {
	if g.canvas != nil {
		g.canvas.Deallocate()
	}
	g.canvas = ebiten.NewImage(w, h)
	g.canvas.Fill(color.Black)
	g.width, g.height = w, h
	g.loop.Resize(w, h)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.canvas == nil {
		return
	}
	g.loop.Paint(surface{img: g.canvas})
	screen.DrawImage(g.canvas, nil)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

// Layout keeps the surface at the window size; a change is applied on the
// next Update so it never interleaves with a physics step.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outW, g.outH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Close stops capture and waits for any in-flight acquisition to release
// its device.
func (g *Game) Close() {
	g.loop.Close()
	g.session.Close()
}
