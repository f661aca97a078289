package gateway

import (
	"context"
	"sync"

	"github.com/wagate/wagate/internal/driver"
)

// Session is one live managed session: its lifecycle state and the driver
// adapter currently serving it. The adapter is replaced across self-heal
// generations; the Session itself lives until shutdown or a terminal
// authentication failure.
type Session struct {
	id          string
	description string

	mu      sync.RWMutex
	state   State
	adapter *driver.Adapter

	// sendMu serializes outbound deliveries per session so the transport
	// sees one in-flight message at a time.
	sendMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Description returns the operator-supplied label.
func (s *Session) Description() string {
	return s.description
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// currentAdapter returns the adapter serving the active driver generation.
func (s *Session) currentAdapter() *driver.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adapter
}

// setState records a state change.
func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// replaceAdapter swaps in a fresh driver generation and resets the state
// machine to the start of the lifecycle.
func (s *Session) replaceAdapter(a *driver.Adapter) {
	s.mu.Lock()
	s.adapter = a
	s.state = StateInitializing
	s.mu.Unlock()
}

// Done is closed when the session's event loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
