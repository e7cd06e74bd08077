// Package workpool runs per-tick work on a bounded set of goroutines and joins
// before returning.
package workpool

import (
	"runtime"

	"github.com/automoto/driftline/shared/bus"
	"golang.org/x/sync/errgroup"
)

// Task is one unit of tick work. It reports its events through its own sender.
type Task func(s *bus.Sender)

// Pool bounds how many tasks run at once.
type Pool struct {
	workers int
}

// New creates a pool. workers <= 0 uses GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every task and blocks until all have finished. Senders are
// returned in task order so the caller can merge them deterministically.
func (p *Pool) Run(tasks ...Task) []*bus.Sender {
	senders := make([]*bus.Sender, len(tasks))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, task := range tasks {
		s := &bus.Sender{}
		senders[i] = s
		g.Go(func() error {
			task(s)
			return nil
		})
	}
	_ = g.Wait()
	return senders
}

// ForEachBatch splits [0, n) into ranges of at most batch indices and runs fn
// for each range. Ranges never overlap.
func (p *Pool) ForEachBatch(n, batch int, fn func(lo, hi int, s *bus.Sender)) []*bus.Sender {
	if batch <= 0 {
		batch = 1
	}
	tasks := make([]Task, 0, (n+batch-1)/batch)
	for lo := 0; lo < n; lo += batch {
		hi := min(lo+batch, n)
		tasks = append(tasks, func(s *bus.Sender) {
			fn(lo, hi, s)
		})
	}
	return p.Run(tasks...)
}
