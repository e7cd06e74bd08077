// Package bus delivers component events between systems at explicit barriers.
//
// Producers running on worker tasks write into their own Sender; the owner of
// the bus merges senders after the join and calls Distribute, which hands every
// queued event to every listener in push order and then clears the queue.
package bus

import (
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// Event is one queued component value addressed to an entity.
type Event struct {
	Entity    donburi.Entity
	Component netcomponents.Component
}

// Listener consumes distributed events.
type Listener interface {
	ReceiveEvent(entity donburi.Entity, c netcomponents.Component)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(entity donburi.Entity, c netcomponents.Component)

func (f ListenerFunc) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	f(entity, c)
}

var componentEvent = events.NewEventType[Event]()

// Bus queues events on a donburi world. A world carries at most one Bus.
type Bus struct {
	world     donburi.World
	listeners []Listener
	queued    int
}

// New subscribes a bus to world.
func New(world donburi.World) *Bus {
	b := &Bus{world: world}
	componentEvent.Subscribe(world, b.deliver)
	return b
}

func (b *Bus) deliver(_ donburi.World, e Event) {
	for _, l := range b.listeners {
		l.ReceiveEvent(e.Entity, e.Component)
	}
}

// Push queues one event. It must only be called from the goroutine that owns
// the bus; worker tasks use a Sender.
func (b *Bus) Push(entity donburi.Entity, c netcomponents.Component) {
	componentEvent.Publish(b.world, Event{Entity: entity, Component: c})
	b.queued++
}

// Merge queues the contents of each sender in order and empties them.
func (b *Bus) Merge(senders ...*Sender) {
	for _, s := range senders {
		for _, e := range s.Events() {
			b.Push(e.Entity, e.Component)
		}
		s.events = s.events[:0]
	}
}

// Pending is the number of events waiting for the next Distribute.
func (b *Bus) Pending() int {
	return b.queued
}

// Distribute delivers every queued event to each listener, in push order, and
// clears the queue. Listeners must not call Push while being delivered to.
func (b *Bus) Distribute(listeners ...Listener) {
	b.listeners = listeners
	componentEvent.ProcessEvents(b.world)
	b.listeners = nil
	b.queued = 0
}

// Sender is a private event queue owned by one task.
type Sender struct {
	events []Event
}

// Push appends an event to the sender.
func (s *Sender) Push(entity donburi.Entity, c netcomponents.Component) {
	s.events = append(s.events, Event{Entity: entity, Component: c})
}

// Len is the number of events held.
func (s *Sender) Len() int {
	return len(s.events)
}

// Events returns the queued events without clearing them.
func (s *Sender) Events() []Event {
	return s.events
}
