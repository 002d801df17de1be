package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle phase of a capture session.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateActive
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Transition describes one state change. Err is set when entering StateError.
type Transition struct {
	From, To State
	Err      error

	seq uint64
}

// Session drives an Analyzer through Idle, Acquiring, Active and Error.
// Acquisition runs in the background; disabling while acquiring cancels it
// and any device that still arrives is released instead of adopted.
//
// OnTransition may be invoked from any goroutine, but never concurrently,
// and never with a transition older than one already delivered.
type Session struct {
	mu       sync.Mutex
	open     Opener
	log      *zap.Logger
	notify   func(Transition)
	state    State
	err      error
	analyzer *Analyzer
	cancel   context.CancelFunc
	gen      uint64
	since    time.Time
	wg       sync.WaitGroup
	seq      uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func NewSession(open Opener, log *zap.Logger, onTransition func(Transition)) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if onTransition == nil {
		onTransition = func(Transition) {}
	}
	return &Session{open: open, log: log, notify: onTransition}
}

// Enable starts acquiring a device unless one is held or being acquired.
func (s *Session) Enable(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateAcquiring || s.state == StateActive {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	actx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	t := s.setState(StateAcquiring, nil)
	open := s.open
	s.wg.Add(1)
	s.mu.Unlock()

	s.deliver(t)
	go s.acquire(actx, gen, open)
}

func (s *Session) acquire(ctx context.Context, gen uint64, open Opener) {
	defer s.wg.Done()

	a := NewAnalyzer(open, s.log)
	err := a.Start(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		a.Stop()
		s.log.Debug("discarded stale capture acquisition")
		return
	}
	s.cancel()
	s.cancel = nil

	var t Transition
	switch {
	case err == nil:
		s.analyzer = a
		s.since = time.Now()
		t = s.setState(StateActive, nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		t = s.setState(StateIdle, nil)
	default:
		t = s.setState(StateError, err)
	}
	s.mu.Unlock()

	if err != nil && t.To == StateError {
		s.log.Warn("audio capture unavailable", zap.Error(err))
	}
	s.deliver(t)
}

// Disable cancels acquisition or releases the active device. It is
// idempotent.
func (s *Session) Disable() {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	a := s.analyzer
	s.analyzer = nil
	prev := s.state
	t := s.setState(StateIdle, nil)
	s.mu.Unlock()

	if a != nil {
		a.Stop()
	}
	if prev != StateIdle {
		s.deliver(t)
	}
}

// SetOpener swaps the capture source. A running or failed session is
// restarted on the new source.
func (s *Session) SetOpener(ctx context.Context, open Opener) {
	s.mu.Lock()
	s.open = open
	restart := s.state != StateIdle
	s.mu.Unlock()

	if restart {
		s.Disable()
		s.Enable(ctx)
	}
}

// Sample returns one frame of magnitudes while the session is active. A
// device failure moves the session to StateError.
func (s *Session) Sample() ([]uint8, bool) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return nil, false
	}
	if err := s.analyzer.Err(); err != nil {
		a := s.analyzer
		s.analyzer = nil
		derr := classify(err)
		t := s.setState(StateError, derr)
		s.mu.Unlock()

		a.Stop()
		s.log.Warn("audio capture lost", zap.Error(derr))
		s.deliver(t)
		return nil, false
	}
	mags := s.analyzer.Sample()
	s.mu.Unlock()
	return mags, true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the failure that put the session into StateError.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Uptime is how long the current device has been active.
func (s *Session) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return 0
	}
	return time.Since(s.since)
}

// Close disables the session and waits for in-flight acquisitions to
// release what they obtained.
func (s *Session) Close() {
	s.Disable()
	s.wg.Wait()
}

func (s *Session) setState(to State, err error) Transition {
	s.seq++
	t := Transition{From: s.state, To: to, Err: err, seq: s.seq}
	s.state = to
	s.err = err
	if t.From != t.To {
		s.log.Info("capture state", zap.Stringer("from", t.From), zap.Stringer("to", t.To))
	}
	return t
}

// deliver hands t to the listener unless a later transition got there
// first, so the last notification always matches the current state.
func (s *Session) deliver(t Transition) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if t.seq <= s.delivered {
		s.log.Debug("dropped stale transition", zap.Stringer("to", t.To))
		return
	}
	s.delivered = t.seq
	s.notify(t)
}
