package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// surface adapts an offscreen ebiten image to visual.Surface. The image is
// never cleared, so Fade leaves a trail of earlier frames.
type surface struct {
	img *ebiten.Image
}

func (s surface) FillCircle(x, y, r float32, clr color.Color) {
	vector.DrawFilledCircle(s.img, x, y, r, clr, false)
}

func (s surface) Fade(clr color.Color) {
	b := s.img.Bounds()
	vector.DrawFilledRect(s.img, 0, 0, float32(b.Dx()), float32(b.Dy()), clr, false)
}
