// Package notify shows capture problems to the user as desktop
// notifications and picks capture files with a native dialog.
package notify

import (
	"errors"

	"github.com/iburimskiy/particle-field/internal/audio"
	"github.com/ncruces/zenity"
	"go.uber.org/zap"
)

const title = "Particle Field"

// Notifier delivers desktop notifications without blocking the caller.
type Notifier struct {
	log  *zap.Logger
	show func(text string, options ...zenity.Option) error
}

func New(log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log, show: zenity.Notify}
}

// CaptureFailed tells the user why audio reactivity is off.
func (n *Notifier) CaptureFailed(err error) {
	msg := Message(err)
	go func() {
		if err := n.show(msg, zenity.Title(title), zenity.WarningIcon); err != nil {
			n.log.Warn("notification failed", zap.Error(err), zap.String("message", msg))
		}
	}()
}

// Message is the user-facing text for a capture error.
func Message(err error) string {
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return "Microphone access was denied. The particles keep moving without audio."
	case errors.Is(err, audio.ErrUnsupportedFile):
		return "That file type is not supported. Pick a WAV, MP3 or FLAC file."
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return "No audio input is available. The particles keep moving without audio."
	}
	return "Audio capture stopped unexpectedly."
}

// SelectAudioFile opens a native file dialog. ok is false when the user
// cancels.
func SelectAudioFile() (path string, ok bool, err error) {
	path, err = zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: []string{"*.wav", "*.mp3", "*.flac"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", false, nil
		}
		return "", false, err
	}
	return path, true, nil
}
