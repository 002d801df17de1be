// Package field simulates the particle population: repulsion from the pointer
// and hand, audio jitter, a homing spring to each particle's rest position,
// damping and explicit Euler integration.
package field

import (
	"image/color"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/iburimskiy/particle-field/internal/config"
)

// Particle is one simulated dot. Only position and velocity change after
// creation.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Size   float64
	Color  color.RGBA

	baseX, baseY float64
}

// Base returns the rest position the particle is pulled back to.
func (p *Particle) Base() (x, y float64) { return p.baseX, p.baseY }

// Point is a position in surface pixels.
type Point struct{ X, Y float64 }

// Offscreen is where an absent pointer is parked.
var Offscreen = Point{X: config.PointerAbsent, Y: config.PointerAbsent}

// Inputs is the per-frame snapshot consumed by Step.
type Inputs struct {
	Volume     float64
	Pointer    Point
	Hand       Point
	HandActive bool
}

// Canvas receives filled discs.
type Canvas interface {
	FillCircle(x, y, r float32, clr color.Color)
}

// Field owns the particle population. Resize, Step and Render are
// serialized.
type Field struct {
	mu        sync.Mutex
	rng       *rand.Rand
	palette   []color.RGBA
	particles []Particle
	width     float64
	height    float64
}

func New(rng *rand.Rand, palette []color.RGBA) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Field{rng: rng, palette: palette}
}

// Resize replaces the whole population with config.ParticleCount particles
// spread uniformly over a width x height surface.
func (f *Field) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, h := float64(width), float64(height)
	ps := make([]Particle, config.ParticleCount)
	for i := range ps {
		x := f.rng.Float64() * w
		y := f.rng.Float64() * h
		ps[i] = Particle{
			X:     x,
			Y:     y,
			baseX: x,
			baseY: y,
			Size:  config.MinParticleSize + f.rng.Float64()*(config.MaxParticleSize-config.MinParticleSize),
			Color: f.palette[f.rng.IntN(len(f.palette))],
		}
	}
	f.particles = ps
	f.width, f.height = w, h
}

// Step advances every particle by one frame.
func (f *Field) Step(in Inputs) {
	f.mu.Lock()
	defer f.mu.Unlock()

	jitter := in.Volume > config.JitterThreshold
	for i := range f.particles {
		p := &f.particles[i]

		repel(p, in.Pointer, config.PointerRadius, config.PointerStrength)
		if in.HandActive {
			repel(p, in.Hand, config.HandRadius, config.HandStrength)
		}
		if jitter {
			p.VX += (f.rng.Float64()*2 - 1) * in.Volume
			p.VY += (f.rng.Float64()*2 - 1) * in.Volume
		}

		p.VX += (p.baseX - p.X) * config.SpringGain
		p.VY += (p.baseY - p.Y) * config.SpringGain

		p.VX *= config.Damping
		p.VY *= config.Damping

		p.X += p.VX
		p.Y += p.VY
	}
}

// repel pushes p away from src with a force falling off linearly to zero at
// radius. Coincident points get no force.
func repel(p *Particle, src Point, radius, strength float64) {
	dx := p.X - src.X
	dy := p.Y - src.Y
	dist := math.Hypot(dx, dy)
	if dist >= radius || dist < config.MinForceDistance {
		return
	}
	force := (radius - dist) / radius * strength
	p.VX += dx / dist * force
	p.VY += dy / dist * force
}

// Render draws every particle inflated by volume and hue shifted by shift
// degrees.
func (f *Field) Render(dst Canvas, volume, shift float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tones := make(map[color.RGBA]color.RGBA, len(f.palette))
	for _, c := range f.palette {
		tones[c] = ShiftColor(c, shift)
	}
	boost := volume * config.VolumeSizeBoost
	for i := range f.particles {
		p := &f.particles[i]
		dst.FillCircle(float32(p.X), float32(p.Y), float32(p.Size+boost), tones[p.Color])
	}
}

// Len returns the population size.
func (f *Field) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.particles)
}

// Particles returns a copy of the current population.
func (f *Field) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Particle(nil), f.particles...)
}
