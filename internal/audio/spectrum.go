package audio

import (
	"math"
	"math/cmplx"

	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrum is the frequency analysis node: a windowed real FFT whose bin
// magnitudes are smoothed over time and mapped from decibels onto bytes.
type Spectrum struct {
	size      int
	window    []float64
	frame     []float64
	smoothed  []float64
	smoothing float64
	minDB     float64
	maxDB     float64
}

func NewSpectrum(size int) *Spectrum {
	return &Spectrum{
		size:      size,
		window:    window.Blackman(size),
		frame:     make([]float64, size),
		smoothed:  make([]float64, size/2),
		smoothing: config.SmoothingTimeConstant,
		minDB:     config.MinDecibels,
		maxDB:     config.MaxDecibels,
	}
}

// Bins is the length of every buffer returned by Analyze.
func (s *Spectrum) Bins() int { return s.size / 2 }

// Analyze transforms one window of time-domain samples. Shorter input is
// zero padded at the front. The returned slice is freshly allocated.
func (s *Spectrum) Analyze(samples []float64) []uint8 {
	pad := s.size - len(samples)
	if pad < 0 {
		samples = samples[-pad:]
		pad = 0
	}
	for i := 0; i < pad; i++ {
		s.frame[i] = 0
	}
	for i, v := range samples {
		s.frame[pad+i] = v * s.window[pad+i]
	}

	bins := fft.FFTReal(s.frame)
	out := make([]uint8, s.Bins())
	scale := 255 / (s.maxDB - s.minDB)
	n := float64(s.size)
	for k := range out {
		mag := cmplx.Abs(bins[k]) / n
		s.smoothed[k] = s.smoothing*s.smoothed[k] + (1-s.smoothing)*mag
		out[k] = toByte((20*math.Log10(s.smoothed[k]) - s.minDB) * scale)
	}
	return out
}

// Reset clears the smoothing history.
func (s *Spectrum) Reset() {
	for i := range s.smoothed {
		s.smoothed[i] = 0
	}
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
