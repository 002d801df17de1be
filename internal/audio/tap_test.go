package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTapSnapshotPadsMissingHistory(t *testing.T) {
	tap := NewTap(8)
	tap.WriteMono([]float32{1, 2, 3})

	dst := make([]float64, 5)
	n := tap.Snapshot(dst)

	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{0, 0, 1, 2, 3}, dst)
}

func TestTapSnapshotWrapsChronologically(t *testing.T) {
	tap := NewTap(4)
	tap.WriteMono([]float32{1, 2, 3, 4, 5, 6})

	dst := make([]float64, 4)
	assert.Equal(t, 4, tap.Snapshot(dst))
	assert.Equal(t, []float64{3, 4, 5, 6}, dst)

	dst = make([]float64, 2)
	tap.Snapshot(dst)
	assert.Equal(t, []float64{5, 6}, dst)
}

func TestTapWriteStereoDownmixes(t *testing.T) {
	tap := NewTap(4)
	tap.WriteStereo([][2]float64{{1, 0}, {0.5, 0.5}})

	dst := make([]float64, 2)
	tap.Snapshot(dst)
	assert.Equal(t, []float64{0.5, 0.5}, dst)
}

func TestTapReset(t *testing.T) {
	tap := NewTap(4)
	tap.WriteMono([]float32{1, 2})
	tap.Reset()

	dst := make([]float64, 2)
	assert.Equal(t, 0, tap.Snapshot(dst))
	assert.Equal(t, []float64{0, 0}, dst)
}
