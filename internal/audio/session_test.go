package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []Transition
}

func (r *recorder) record(t Transition) {
	r.mu.Lock()
	r.got = append(r.got, t)
	r.mu.Unlock()
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.got))
	for i, t := range r.got {
		out[i] = t.To
	}
	return out
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, time.Second, time.Millisecond)
}

func TestSessionEnableReachesActive(t *testing.T) {
	rec := &recorder{}
	op := &fakeOpener{samples: make([]float32, 256)}
	s := NewSession(op.open, nil, rec.record)
	defer s.Close()

	_, ok := s.Sample()
	assert.False(t, ok, "idle session must not sample")

	s.Enable(context.Background())
	waitState(t, s, StateActive)

	mags, ok := s.Sample()
	require.True(t, ok)
	assert.Len(t, mags, 128)
	assert.Equal(t, []State{StateAcquiring, StateActive}, rec.states())
}

func TestSessionEnableTwiceOpensOnce(t *testing.T) {
	op := &fakeOpener{}
	s := NewSession(op.open, nil, nil)
	defer s.Close()

	s.Enable(context.Background())
	s.Enable(context.Background())
	waitState(t, s, StateActive)
	s.Enable(context.Background())

	assert.Len(t, op.opened(), 1)
}

func TestSessionDeniedGoesToError(t *testing.T) {
	op := &fakeOpener{err: ErrPermissionDenied}
	s := NewSession(op.open, nil, nil)
	defer s.Close()

	s.Enable(context.Background())
	waitState(t, s, StateError)

	assert.ErrorIs(t, s.Err(), ErrPermissionDenied)
	_, ok := s.Sample()
	assert.False(t, ok)

	// A failed session can be retried.
	op.err = nil
	s.Enable(context.Background())
	waitState(t, s, StateActive)
}

func TestSessionDisableDuringAcquisitionReleasesLateDevice(t *testing.T) {
	op := &fakeOpener{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewSession(op.open, nil, nil)

	s.Enable(context.Background())
	<-op.entered
	assert.Equal(t, StateAcquiring, s.State())

	s.Disable()
	assert.Equal(t, StateIdle, s.State())

	close(op.release)
	s.Close()

	devices := op.opened()
	require.Len(t, devices, 1)
	assert.Equal(t, int32(1), devices[0].closes.Load())
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionRapidToggleKeepsOneDevice(t *testing.T) {
	op := &fakeOpener{}
	s := NewSession(op.open, nil, nil)

	for i := 0; i < 20; i++ {
		s.Enable(context.Background())
		s.Disable()
	}
	s.Enable(context.Background())
	waitState(t, s, StateActive)
	s.Close()

	for _, d := range op.opened() {
		assert.Equal(t, int32(1), d.closes.Load())
	}
}

func TestSessionDeviceFailureMovesToError(t *testing.T) {
	op := &fakeOpener{}
	s := NewSession(op.open, nil, nil)
	defer s.Close()

	s.Enable(context.Background())
	waitState(t, s, StateActive)

	op.opened()[0].fail(errors.New("unplugged"))
	_, ok := s.Sample()

	assert.False(t, ok)
	assert.Equal(t, StateError, s.State())
	assert.ErrorIs(t, s.Err(), ErrDeviceUnavailable)
	assert.Equal(t, int32(1), op.opened()[0].closes.Load())
}

func TestSessionDisableIdempotent(t *testing.T) {
	rec := &recorder{}
	s := NewSession((&fakeOpener{}).open, nil, rec.record)

	s.Disable()
	s.Disable()
	s.Close()

	assert.Empty(t, rec.states())
}

func TestSessionSetOpenerRestarts(t *testing.T) {
	first := &fakeOpener{}
	second := &fakeOpener{}
	s := NewSession(first.open, nil, nil)
	defer s.Close()

	s.Enable(context.Background())
	waitState(t, s, StateActive)

	s.SetOpener(context.Background(), second.open)
	waitState(t, s, StateActive)

	require.Len(t, first.opened(), 1)
	assert.Equal(t, int32(1), first.opened()[0].closes.Load())
	assert.Len(t, second.opened(), 1)
}

func TestSessionSetOpenerWhileIdleDoesNotStart(t *testing.T) {
	second := &fakeOpener{}
	s := NewSession((&fakeOpener{}).open, nil, nil)
	defer s.Close()

	s.SetOpener(context.Background(), second.open)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, second.opened())
}

func TestSessionDropsTransitionOvertakenByLaterOne(t *testing.T) {
	rec := &recorder{}
	s := NewSession((&fakeOpener{}).open, nil, rec.record)

	// An acquisition commits Active, then a Disable commits and delivers
	// Idle before the acquiring goroutine gets to deliver.
	s.mu.Lock()
	active := s.setState(StateActive, nil)
	idle := s.setState(StateIdle, nil)
	s.mu.Unlock()

	s.deliver(idle)
	s.deliver(active)

	assert.Equal(t, []State{StateIdle}, rec.states())
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionLastNotificationMatchesState(t *testing.T) {
	for i := 0; i < 200; i++ {
		rec := &recorder{}
		s := NewSession((&fakeOpener{}).open, nil, rec.record)

		s.Enable(context.Background())
		s.Disable()
		s.Close()

		got := rec.states()
		require.NotEmpty(t, got)
		assert.Equal(t, StateIdle, got[len(got)-1])
	}
}
