package driver

import (
	"context"
	"sync"
)

// Adapter wraps one Driver and owns the channel through which its lifecycle
// events reach the session manager.
//
// The adapter enforces the event contract the manager relies on:
//   - each event kind is delivered at most once per driver generation
//   - events arrive in emission order
//   - no event is delivered after Destroy returns
//
// The send methods are plain pass-throughs; serializing them per session is
// the manager's job.
type Adapter struct {
	sessionID string
	drv       Driver
	events    chan Event
	done      chan struct{}

	mu        sync.Mutex
	seen      map[EventKind]bool
	destroyed bool

	destroyOnce sync.Once
}

// NewAdapter constructs the driver via factory and wires its emissions into
// a buffered event channel. buffer must cover the full lifecycle event set;
// the manager sizes it from configuration.
func NewAdapter(sessionID string, factory Factory, buffer int) *Adapter {
	if buffer < 1 {
		buffer = 1
	}
	a := &Adapter{
		sessionID: sessionID,
		events:    make(chan Event, buffer),
		done:      make(chan struct{}),
		seen:      make(map[EventKind]bool),
	}
	a.drv = factory(sessionID, a.emit)
	return a
}

// SessionID returns the owning session's id.
func (a *Adapter) SessionID() string {
	return a.sessionID
}

// Events returns the stream of lifecycle events. The channel is never
// closed; consumers select on it together with their own cancellation.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// emit forwards one transport notification, applying the at-most-once and
// silence-after-destroy guarantees.
func (a *Adapter) emit(ev Event) {
	a.mu.Lock()
	if a.destroyed || a.seen[ev.Kind] {
		a.mu.Unlock()
		return
	}
	a.seen[ev.Kind] = true
	a.mu.Unlock()

	select {
	case a.events <- ev:
	case <-a.done:
	}
}

// Connect begins the driver's connect/authenticate sequence.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.drv.Connect(ctx)
}

// SendText delivers a text message through the driver.
func (a *Adapter) SendText(ctx context.Context, recipient, text string) (Ack, error) {
	return a.drv.SendText(ctx, recipient, text)
}

// SendMedia delivers a media attachment through the driver.
func (a *Adapter) SendMedia(ctx context.Context, recipient string, media Media) (Ack, error) {
	return a.drv.SendMedia(ctx, recipient, media)
}

// IsRegistered checks recipient existence on the external network.
func (a *Adapter) IsRegistered(ctx context.Context, recipient string) (bool, error) {
	return a.drv.IsRegistered(ctx, recipient)
}

// Destroy tears down the driver and silences the event stream. Safe to call
// multiple times and from a disconnect handler; events already buffered but
// not yet consumed are dropped by the consumer going away, never delivered
// late to a new driver generation.
func (a *Adapter) Destroy(ctx context.Context) error {
	var err error
	a.destroyOnce.Do(func() {
		a.mu.Lock()
		a.destroyed = true
		a.mu.Unlock()
		close(a.done)

		err = a.drv.Destroy(ctx)
	})
	return err
}
