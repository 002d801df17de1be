package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/iburimskiy/particle-field/internal/audio"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	hudMargin    = 20
	hudBarHeight = 60
	hudMeterW    = 12
)

func (g *Game) drawHUD(screen *ebiten.Image) {
	g.drawSpectrum(screen)
	g.drawVolumeMeter(screen)

	state := g.session.State()
	status := fmt.Sprintf("audio: %s", state)
	switch {
	case !g.reactive:
		status = "audio: off"
	case state == audio.StateActive:
		status += " " + formatDuration(g.session.Uptime())
	case state == audio.StateError:
		if err := g.session.Err(); err != nil {
			status += " | Error: " + err.Error()
		}
	}
	status += fmt.Sprintf(" | volume %.2f | claps %d", g.volume, g.claps)
	if g.hand != nil && g.hand.Snapshot().Active {
		status += " | hand"
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)
	ebitenutil.DebugPrintAt(screen, "A: audio  O: open file  M: microphone  H: hud  Esc/Q: quit", 12, 28)
}

// drawSpectrum draws the last frame's bins along the bottom edge.
func (g *Game) drawSpectrum(screen *ebiten.Image) {
	mags := g.last.Magnitudes
	if len(mags) == 0 {
		return
	}

	barWidth := g.width - 2*hudMargin - hudMeterW - 8
	barY := g.height - hudBarHeight - hudMargin
	if barWidth <= 0 || barY <= 0 {
		return
	}
	segmentWidth := float64(barWidth) / float64(len(mags))

	vector.DrawFilledRect(screen, hudMargin, float32(barY), float32(barWidth), hudBarHeight, color.RGBA{R: 20, G: 25, B: 35, A: 160}, false)

	for i, m := range mags {
		level := float64(m) / 255
		segmentHeight := level * float64(hudBarHeight-10)
		if segmentHeight < 2 {
			segmentHeight = 2
		}

		hue := float64(i)/float64(len(mags))*180 + g.colorShift
		c := colorful.Hsv(hueWrap(hue), 0.8, 0.9)
		r, gv, b := c.RGB255()
		segmentColor := color.RGBA{R: r, G: gv, B: b, A: uint8(100 + 155*level)}

		segmentX := float64(hudMargin) + float64(i)*segmentWidth
		segmentY := float64(barY) + hudBarHeight - segmentHeight
		vector.DrawFilledRect(screen, float32(segmentX), float32(segmentY), float32(segmentWidth-1), float32(segmentHeight), segmentColor, false)
	}

	ebitenutil.DebugPrintAt(screen, "Low", hudMargin, barY-15)
	ebitenutil.DebugPrintAt(screen, "High", hudMargin+barWidth-25, barY-15)
}

// drawVolumeMeter draws the normalized volume as a vertical gauge.
func (g *Game) drawVolumeMeter(screen *ebiten.Image) {
	x := float32(g.width - hudMargin - hudMeterW)
	y := float32(g.height - hudBarHeight - hudMargin)
	if x <= 0 || y <= 0 {
		return
	}
	vector.StrokeRect(screen, x, y, hudMeterW, hudBarHeight, 1, color.RGBA{R: 100, G: 110, B: 130, A: 255}, false)

	fill := float32(clamp01(g.volume)) * hudBarHeight
	meter := color.RGBA{R: 60, G: 200, B: 120, A: 255}
	if g.last.Clapped {
		meter = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	vector.DrawFilledRect(screen, x, y+hudBarHeight-fill, hudMeterW, fill, meter, false)
}

func hueWrap(h float64) float64 {
	for h >= 360 {
		h -= 360
	}
	for h < 0 {
		h += 360
	}
	return h
}
