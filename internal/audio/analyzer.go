package audio

import (
	"context"

	"github.com/iburimskiy/particle-field/internal/config"
	"go.uber.org/zap"
)

// Device is an open capture stream that feeds a Tap.
type Device interface {
	// Err reports a failure that ended the stream, if any.
	Err() error
	Close() error
}

// Opener acquires a capture device writing into tap. It blocks until the
// device is granted or refused and should honour ctx cancellation.
type Opener func(ctx context.Context, tap *Tap) (Device, error)

// Analyzer owns one capture session: the device handle, its ring buffer and
// the spectrum node. It is not safe for concurrent use.
type Analyzer struct {
	open Opener
	log  *zap.Logger

	device   Device
	tap      *Tap
	spectrum *Spectrum
	frame    []float64
}

func NewAnalyzer(open Opener, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{open: open, log: log}
}

// Start acquires the device. On failure nothing is retained and the error
// wraps ErrPermissionDenied or ErrDeviceUnavailable, unless ctx was cancelled.
func (a *Analyzer) Start(ctx context.Context) error {
	if a.device != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tap := NewTap(config.TapSize)
	dev, err := a.open(ctx, tap)
	if err != nil {
		return classify(err)
	}
	if err := ctx.Err(); err != nil {
		_ = dev.Close()
		return err
	}

	a.device = dev
	a.tap = tap
	a.spectrum = NewSpectrum(config.FFTSize)
	a.frame = make([]float64, config.FFTSize)
	a.log.Debug("capture started")
	return nil
}

// Active reports whether a device is held.
func (a *Analyzer) Active() bool { return a.device != nil }

// Err reports a device failure observed since Start.
func (a *Analyzer) Err() error {
	if a.device == nil {
		return nil
	}
	return a.device.Err()
}

// Sample analyses the most recent window. Without a device it returns an
// all-zero buffer of the same length.
func (a *Analyzer) Sample() []uint8 {
	if a.device == nil {
		return make([]uint8, config.BinCount)
	}
	a.tap.Snapshot(a.frame)
	return a.spectrum.Analyze(a.frame)
}

// Stop releases the device and the analysis state. It is safe to call
// repeatedly and before Start.
func (a *Analyzer) Stop() {
	if a.device == nil {
		return
	}
	if err := a.device.Close(); err != nil {
		a.log.Warn("closing capture device", zap.Error(err))
	}
	a.tap.Reset()
	a.device = nil
	a.tap = nil
	a.spectrum = nil
	a.frame = nil
	a.log.Debug("capture stopped")
}
