package core

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/driftline/shared/fixedstep"
	"github.com/automoto/driftline/shared/netconfig"
)

// lagWarnTicks is how many queued ticks trigger a warning.
const lagWarnTicks = netconfig.TicksPerSecond

// Ticker is the piece of the server the loop drives.
type Ticker interface {
	Tick()
}

type GameLoop struct {
	target    Ticker
	scheduler *fixedstep.Scheduler
	running   atomic.Bool
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func NewGameLoop(target Ticker) *GameLoop {
	return &GameLoop{
		target:    target,
		scheduler: fixedstep.New(netconfig.TickDuration),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run ticks the target at the fixed rate until Stop is called. The ticker
// only wakes the loop; the scheduler decides how many ticks are due, so a
// late wakeup runs every missed tick.
func (g *GameLoop) Run() {
	defer close(g.done)
	g.running.Store(true)
	ticker := time.NewTicker(netconfig.TickDuration / 2)
	defer ticker.Stop()

	g.scheduler.Start(time.Now())
	log.Printf("[loop] started at %d ticks/second", netconfig.TicksPerSecond)

	for {
		select {
		case <-g.stopChan:
			log.Println("[loop] stopped")
			return
		case now := <-ticker.C:
			if behind := g.scheduler.Behind(now); behind > lagWarnTicks {
				log.Printf("[loop] running %d ticks behind", behind)
			}
			g.scheduler.Advance(now, g.target.Tick)
		}
	}
}

// Start runs the loop on its own goroutine.
func (g *GameLoop) Start() {
	g.running.Store(true)
	go g.Run()
}

// Stop ends Run and waits for the tick in progress to finish. Calling Stop
// on a loop that never ran returns immediately.
func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
	if g.running.Load() {
		<-g.done
	}
}
