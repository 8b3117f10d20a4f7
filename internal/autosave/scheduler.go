// Package autosave coalesces bursts of document mutations into single
// debounced saves, with at most one save in flight at any time.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the externally visible save state. It is the only channel
// through which persistence failures are surfaced.
type Status string

const (
	StatusClean  Status = "clean"
	StatusDirty  Status = "dirty"
	StatusSaving Status = "saving"
	StatusFailed Status = "save_failed"
)

// SaveFunc persists the current draft. It must capture the draft at call
// time, not at scheduling time, and must handle its own fallback on error.
type SaveFunc func(ctx context.Context) error

var ErrClosed = errors.New("autosave: scheduler closed")

// Scheduler implements a trailing-edge debounce over mutation notifications.
// Every Notify during the window resets the timer; only the quiet period
// after the last edit triggers a save. A failed save re-arms the timer so the
// next window retries, and the draft itself is never touched, so no edit is
// lost even if every retry fails.
type Scheduler struct {
	save     SaveFunc
	debounce time.Duration
	floor    time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	status   Status
	inflight bool
	rearm    bool
	closed   bool
	lastErr  error
	waiters  []chan error
}

// New creates a scheduler. floor is the minimum time the Saving status stays
// visible, so instant backends do not flicker the indicator.
func New(save SaveFunc, debounce, floor time.Duration) *Scheduler {
	return &Scheduler{
		save:     save,
		debounce: debounce,
		floor:    floor,
		status:   StatusClean,
	}
}

// Notify records a mutation and (re)starts the debounce window. Mutations
// arriving while a save is in flight are picked up by the next window once
// the in-flight save resolves.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.inflight {
		s.rearm = true
		return
	}
	s.status = StatusDirty
	s.resetTimerLocked()
}

// Status returns the current save state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError returns the error from the most recent failed save, or nil.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Flush saves immediately, bypassing the debounce timer. If a save is
// already in flight the call waits for that save and returns its outcome
// instead of starting a second one.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.inflight {
		done := make(chan error, 1)
		s.waiters = append(s.waiters, done)
		s.mu.Unlock()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stopTimerLocked()
	s.beginLocked()
	s.mu.Unlock()

	return s.run(ctx)
}

// Close cancels any pending debounce timer. Edits made within the final
// un-fired window are dropped; the last committed save is unaffected. An
// in-flight save is left to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Scheduler) resetTimerLocked() {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.inflight {
		// The previous save is still resolving; run again once it is done.
		s.rearm = true
		s.mu.Unlock()
		return
	}
	s.beginLocked()
	s.mu.Unlock()

	go func() { _ = s.run(context.Background()) }()
}

func (s *Scheduler) beginLocked() {
	s.inflight = true
	s.status = StatusSaving
	s.timer = nil
}

func (s *Scheduler) run(ctx context.Context) error {
	start := time.Now()
	err := s.save(ctx)
	if hold := s.floor - time.Since(start); hold > 0 {
		time.Sleep(hold)
	}
	s.finish(err)
	return err
}

func (s *Scheduler) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight = false
	s.lastErr = err
	for _, done := range s.waiters {
		done <- err
	}
	s.waiters = nil

	if s.closed {
		return
	}

	switch {
	case err != nil:
		// Surface the failure and retry on the next window. The draft is
		// retained in memory regardless, so nothing is lost.
		s.status = StatusFailed
		s.rearm = false
		s.resetTimerLocked()
	case s.rearm:
		// Edits arrived while saving; they belong to the next save cycle.
		s.status = StatusDirty
		s.rearm = false
		s.resetTimerLocked()
	default:
		s.status = StatusClean
	}
}
