// Package fixedstep converts wall-clock time into whole simulation ticks.
package fixedstep

import "time"

// Scheduler accumulates elapsed time and runs one tick per elapsed step.
// There is no cap on catch-up: a caller that stalls for a long time will run
// every missed tick on the next Advance.
type Scheduler struct {
	step    time.Duration
	last    time.Time
	started bool
}

// New creates a scheduler for the given step length.
func New(step time.Duration) *Scheduler {
	return &Scheduler{step: step}
}

// Start anchors the scheduler at now.
func (s *Scheduler) Start(now time.Time) {
	s.last = now
	s.started = true
}

// Advance runs tick once per whole step between the last tick and now and
// returns how many ticks ran together with the interpolation fraction between
// the last two ticks, in [0, 1].
func (s *Scheduler) Advance(now time.Time, tick func()) (ticks int, interp float64) {
	if !s.started {
		s.Start(now)
	}
	for now.Sub(s.last) > s.step {
		s.last = s.last.Add(s.step)
		tick()
		ticks++
	}
	return ticks, s.Interp(now)
}

// Interp is 1 - (last + step - now) / step, clamped to [0, 1].
func (s *Scheduler) Interp(now time.Time) float64 {
	f := 1 - float64(s.last.Add(s.step).Sub(now))/float64(s.step)
	return min(max(f, 0), 1)
}

// Behind reports how many whole steps are waiting to run at now.
func (s *Scheduler) Behind(now time.Time) int {
	if !s.started {
		return 0
	}
	return int(now.Sub(s.last) / s.step)
}

// Step returns the configured step length.
func (s *Scheduler) Step() time.Duration {
	return s.step
}
