package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/iburimskiy/particle-field/internal/config"
	"go.uber.org/zap"
)

// ErrUnsupportedFile is returned for files that cannot be decoded.
var ErrUnsupportedFile = errors.New("unsupported file type")

const filePumpInterval = 10 * time.Millisecond

// FileOpener captures from an audio file instead of a microphone. The file is
// decoded, resampled and looped, and fed into the tap in real time. Nothing
// is played back.
func FileOpener(path string, log *zap.Logger) Opener {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, tap *Tap) (Device, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		streamer, format, err := decode(f, filepath.Ext(path))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, path, err)
		}
		if err := ctx.Err(); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return nil, err
		}

		var src beep.Streamer = beep.Loop(-1, streamer)
		if format.SampleRate != config.SampleRate {
			src = beep.Resample(4, format.SampleRate, config.SampleRate, src)
		}

		d := &fileDevice{
			streamer: streamer,
			src:      src,
			tap:      tap,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go d.pump()
		log.Info("capturing from file", zap.String("path", path), zap.Int("sample_rate", int(format.SampleRate)))
		return d, nil
	}
}

func decode(f *os.File, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
}

type fileDevice struct {
	streamer beep.StreamSeekCloser
	src      beep.Streamer
	tap      *Tap

	mu  sync.Mutex
	err error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// pump streams wall-clock paced chunks into the tap.
func (d *fileDevice) pump() {
	defer close(d.done)

	ticker := time.NewTicker(filePumpInterval)
	defer ticker.Stop()

	buf := make([][2]float64, beep.SampleRate(config.SampleRate).N(filePumpInterval))
	last := time.Now()
	var owed float64
	for {
		select {
		case <-d.stop:
			return
		case now := <-ticker.C:
			owed += now.Sub(last).Seconds() * config.SampleRate
			last = now
			for owed >= 1 {
				n := int(owed)
				if n > len(buf) {
					n = len(buf)
				}
				got, ok := d.src.Stream(buf[:n])
				d.tap.WriteStereo(buf[:got])
				owed -= float64(n)
				if !ok {
					d.fail(d.src.Err())
					return
				}
			}
		}
	}
}

func (d *fileDevice) fail(err error) {
	if err == nil {
		err = errors.New("file stream ended")
	}
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fileDevice) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *fileDevice) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.done
		// The decoders close the underlying file.
		err = d.streamer.Close()
	})
	return err
}
