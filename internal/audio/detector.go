package audio

import (
	"math"

	"github.com/iburimskiy/particle-field/internal/config"
)

// Reading is the per-frame loudness summary.
type Reading struct {
	Volume         float64
	PreviousVolume float64
	Clap           bool
}

// Detector turns frequency magnitudes into a normalized volume and raises a
// clap on a sudden relative spike. It remembers the previous frame's volume.
type Detector struct {
	prev float64
}

func NewDetector() *Detector {
	return &Detector{prev: config.VolumeFloor}
}

// Update evaluates one frame of magnitudes.
func (d *Detector) Update(magnitudes []uint8) Reading {
	return d.evaluate(Volume(magnitudes))
}

// Silence records a frame with no active capture: volume 0, never a clap.
func (d *Detector) Silence() Reading {
	return d.evaluate(0)
}

// Previous returns the volume the next frame is compared against.
func (d *Detector) Previous() float64 { return d.prev }

func (d *Detector) evaluate(volume float64) Reading {
	r := Reading{
		Volume:         volume,
		PreviousVolume: d.prev,
		Clap:           volume > config.ClapThreshold && volume > d.prev*config.ClapRatio,
	}
	d.prev = math.Max(volume, config.VolumeFloor)
	return r
}

// Volume is the mean magnitude scaled to [0,1].
func Volume(magnitudes []uint8) float64 {
	if len(magnitudes) == 0 {
		return 0
	}
	var sum int
	for _, m := range magnitudes {
		sum += int(m)
	}
	return float64(sum) / float64(len(magnitudes)) / 255
}
