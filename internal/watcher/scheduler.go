package watcher

import (
	"context"
	"sync"
)

// Scheduler serializes sync runs. At most one run is in flight; triggers that
// arrive during a run collapse into a single follow-up run.
type Scheduler struct {
	run func(ctx context.Context)

	mu       sync.Mutex
	inFlight bool
	pending  bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler for run.
func NewScheduler(run func(ctx context.Context)) *Scheduler {
	return &Scheduler{run: run}
}

// Trigger requests a run. It returns true when a new run was started and false
// when the request was folded into the pending re-run or ctx is already done.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if s.inFlight {
		s.pending = true
		s.mu.Unlock()
		return false
	}
	s.inFlight = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx)
	return true
}

// Busy reports whether a run is in flight.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Wait blocks until no run is in flight or pending.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		s.run(ctx)

		s.mu.Lock()
		if s.pending && ctx.Err() == nil {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.inFlight = false
		s.pending = false
		s.mu.Unlock()
		return
	}
}
