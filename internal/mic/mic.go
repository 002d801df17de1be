// Package mic captures the default input device through PortAudio.
package mic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/iburimskiy/particle-field/internal/config"
	"go.uber.org/zap"
)

// Opener returns an audio.Opener for the default microphone. Samples are
// delivered by the PortAudio callback straight into the tap.
func Opener(log *zap.Logger) audio.Opener {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, tap *audio.Tap) (audio.Device, error) {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("%w: %w", audio.ErrDeviceUnavailable, err)
		}

		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			portaudio.Terminate()
			return nil, fmt.Errorf("%w: no default input: %w", audio.ErrDeviceUnavailable, err)
		}
		if err := ctx.Err(); err != nil {
			portaudio.Terminate()
			return nil, err
		}

		stream, err := portaudio.OpenDefaultStream(1, 0, config.SampleRate, config.FFTSize, tap.WriteMono)
		if err != nil {
			portaudio.Terminate()
			return nil, classify(err)
		}
		if err := stream.Start(); err != nil {
			_ = stream.Close()
			portaudio.Terminate()
			return nil, classify(err)
		}

		log.Info("capturing from microphone", zap.String("device", info.Name))
		return &device{stream: stream}, nil
	}
}

// classify separates a refused microphone from a missing or busy one.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return fmt.Errorf("%w: %w", audio.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", audio.ErrDeviceUnavailable, err)
}

type device struct {
	stream *portaudio.Stream
	once   sync.Once
}

// Err is always nil: PortAudio reports no asynchronous stream failures to
// input callbacks.
func (d *device) Err() error { return nil }

func (d *device) Close() error {
	var err error
	d.once.Do(func() {
		if stopErr := d.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := d.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if termErr := portaudio.Terminate(); termErr != nil && err == nil {
			err = termErr
		}
	})
	return err
}
