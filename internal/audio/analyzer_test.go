package audio

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerSampleBeforeStart(t *testing.T) {
	a := NewAnalyzer((&fakeOpener{}).open, nil)
	mags := a.Sample()
	assert.Len(t, mags, 128)
	assert.Equal(t, 0.0, Volume(mags))
}

func TestAnalyzerStartSample(t *testing.T) {
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 8 * float64(i) / 256))
	}
	op := &fakeOpener{samples: samples}
	a := NewAnalyzer(op.open, nil)

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.Active())

	mags := a.Sample()
	require.Len(t, mags, 128)
	assert.Greater(t, Volume(mags), 0.0)
}

func TestAnalyzerStartFailureRetainsNothing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", fs.ErrPermission, ErrPermissionDenied},
		{"denied sentinel", ErrPermissionDenied, ErrPermissionDenied},
		{"missing", fs.ErrNotExist, ErrDeviceUnavailable},
		{"other", errors.New("boom"), ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer((&fakeOpener{err: tt.err}).open, nil)
			err := a.Start(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, a.Active())
			assert.Nil(t, a.tap)
			assert.Nil(t, a.spectrum)
		})
	}
}

func TestAnalyzerStartCancelled(t *testing.T) {
	op := &fakeOpener{}
	a := NewAnalyzer(op.open, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.Start(ctx), context.Canceled)
	assert.False(t, a.Active())
	assert.Empty(t, op.opened())
}

func TestAnalyzerStopIdempotent(t *testing.T) {
	op := &fakeOpener{}
	a := NewAnalyzer(op.open, nil)

	assert.NotPanics(t, a.Stop)

	require.NoError(t, a.Start(context.Background()))
	a.Stop()
	a.Stop()

	assert.False(t, a.Active())
	require.Len(t, op.opened(), 1)
	assert.Equal(t, int32(1), op.opened()[0].closes.Load())
}
