package workpool

import (
	"sync/atomic"
	"testing"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/yohamta/donburi"
)

func TestRunJoinsAllTasks(t *testing.T) {
	p := New(2)
	var done atomic.Int32
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(s *bus.Sender) {
			done.Add(1)
			s.Push(donburi.Null, netcomponents.Timestamp{})
		}
	}
	senders := p.Run(tasks...)
	if done.Load() != 10 {
		t.Fatalf("only %d tasks finished before Run returned", done.Load())
	}
	if len(senders) != 10 {
		t.Fatalf("got %d senders, want 10", len(senders))
	}
	for i, s := range senders {
		if s.Len() != 1 {
			t.Fatalf("sender %d has %d events", i, s.Len())
		}
	}
}

func TestForEachBatchCoversDisjointRanges(t *testing.T) {
	p := New(4)
	hits := make([]int32, 19)
	senders := p.ForEachBatch(len(hits), 8, func(lo, hi int, _ *bus.Sender) {
		if hi-lo > 8 {
			t.Errorf("batch [%d,%d) larger than 8", lo, hi)
		}
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	if len(senders) != 3 {
		t.Fatalf("got %d batches, want 3", len(senders))
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestNewDefaultsWorkers(t *testing.T) {
	if New(0).Workers() < 1 {
		t.Fatalf("default pool has no workers")
	}
}
