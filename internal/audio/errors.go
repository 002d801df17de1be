package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrPermissionDenied  = errors.New("audio: permission denied")
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
)

// classify maps an opener failure onto the capture error taxonomy.
// Cancellation passes through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrDeviceUnavailable):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
}
