package event

import (
	"log"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
)

// Handler is an observer callback for lifecycle events.
type Handler func(Event)

// SnapshotFunc returns the current set of known sessions and their ready
// flags. The Broadcaster calls it each time an observer attaches.
type SnapshotFunc func() []SessionSummary

// observer is one attached handler.
type observer struct {
	id      string
	handler Handler
}

// Broadcaster fans lifecycle events out to zero or more observers.
// Delivery is synchronous and best-effort with no buffering: a panicking
// observer is recovered and logged, and a slow or absent observer simply
// misses events, it never blocks the publisher.
//
// On attach, the new observer is replayed the current registry snapshot as
// a single InitEvent before it starts receiving live events, so it can
// reconstruct current state without having witnessed historical transitions.
type Broadcaster struct {
	snapshot SnapshotFunc

	mu        sync.RWMutex
	observers []observer
	nextID    atomic.Uint64
}

// NewBroadcaster creates a Broadcaster. snapshot may be nil, in which case
// attached observers receive an InitEvent with no sessions.
func NewBroadcaster(snapshot SnapshotFunc) *Broadcaster {
	return &Broadcaster{snapshot: snapshot}
}

// Attach registers an observer for all lifecycle events. The observer is
// first handed the current snapshot, then live events in publish order.
// Returns an observer ID for Detach.
func (b *Broadcaster) Attach(handler Handler) string {
	var sessions []SessionSummary
	if b.snapshot != nil {
		sessions = b.snapshot()
	}
	safeCall(handler, NewInitEvent(sessions))

	b.mu.Lock()
	defer b.mu.Unlock()

	id := "obs-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.observers = append(b.observers, observer{id: id, handler: handler})
	return id
}

// Detach removes a previously attached observer.
// Returns true if the observer was found and removed.
func (b *Broadcaster) Detach(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, obs := range b.observers {
		if obs.id == id {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers an event to every attached observer synchronously, in
// attachment order.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	observers := make([]observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, obs := range observers {
		safeCall(obs.handler, event)
	}
}

// ObserverCount returns the number of attached observers.
func (b *Broadcaster) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// safeCall invokes a handler and recovers from any panics, so one
// misbehaving observer cannot block event delivery to the others.
func safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for event %s: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}
