package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wagate/wagate/internal/errors"
)

// Simulator is an in-process Driver that walks the real transport's
// lifecycle without touching the network. It backs local development
// (`wagate serve` without a real transport) and the manager's tests.
//
// By default a Simulator issues a pairing challenge on Connect and then
// waits: tests drive it forward explicitly with CompleteScan, RejectScan
// and Drop. WithAutoComplete makes it authenticate on its own after a
// delay, which is what the demo daemon uses.
type Simulator struct {
	sessionID string
	emit      EmitFunc

	mu        sync.Mutex
	connected bool
	destroyed bool
	sent      []SentMessage

	// configuration
	resume       bool
	autoComplete time.Duration
	registered   func(recipient string) bool
	sendErr      error
}

// SentMessage records one delivery accepted by the simulator.
type SentMessage struct {
	Recipient string
	Text      string
	Media     *Media
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithStoredCredentials makes the simulator resume without a pairing
// challenge: Connect emits Authenticated directly, then Ready.
func WithStoredCredentials() SimulatorOption {
	return func(s *Simulator) { s.resume = true }
}

// WithAutoComplete makes the simulator approve its own pairing challenge
// after the given delay.
func WithAutoComplete(delay time.Duration) SimulatorOption {
	return func(s *Simulator) { s.autoComplete = delay }
}

// WithRegisteredCheck installs the recipient existence predicate.
// The default considers every recipient registered.
func WithRegisteredCheck(fn func(recipient string) bool) SimulatorOption {
	return func(s *Simulator) { s.registered = fn }
}

// WithSendError makes every send fail with err.
func WithSendError(err error) SimulatorOption {
	return func(s *Simulator) { s.sendErr = err }
}

// NewSimulator creates a Simulator bound to the given emit function.
func NewSimulator(sessionID string, emit EmitFunc, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		sessionID:  sessionID,
		emit:       emit,
		registered: func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimulatorFactory produces Simulators and records every one it creates so
// callers can drive them. Successive drivers for the same session id
// (self-heal generations) are all retained, in creation order.
type SimulatorFactory struct {
	mu      sync.Mutex
	opts    []SimulatorOption
	created map[string][]*Simulator
}

// NewFactory creates a SimulatorFactory whose simulators are configured
// with the given options.
func NewFactory(opts ...SimulatorOption) *SimulatorFactory {
	return &SimulatorFactory{
		opts:    opts,
		created: make(map[string][]*Simulator),
	}
}

// Factory returns the driver.Factory backed by this SimulatorFactory.
func (f *SimulatorFactory) Factory() Factory {
	return func(sessionID string, emit EmitFunc) Driver {
		sim := NewSimulator(sessionID, emit, f.opts...)
		f.mu.Lock()
		f.created[sessionID] = append(f.created[sessionID], sim)
		f.mu.Unlock()
		return sim
	}
}

// Latest returns the most recently created simulator for a session id,
// or nil if none exists.
func (f *SimulatorFactory) Latest(sessionID string) *Simulator {
	f.mu.Lock()
	defer f.mu.Unlock()
	sims := f.created[sessionID]
	if len(sims) == 0 {
		return nil
	}
	return sims[len(sims)-1]
}

// Count returns how many driver generations were created for a session id.
func (f *SimulatorFactory) Count(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created[sessionID])
}

// Connect starts the simulated connect/authenticate sequence.
func (s *Simulator) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.New("simulator destroyed")
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = true
	resume := s.resume
	auto := s.autoComplete
	s.mu.Unlock()

	if resume {
		s.emit(Event{Kind: KindAuthenticated})
		s.emit(Event{Kind: KindReady})
		return nil
	}

	s.emit(Event{
		Kind:      KindChallengeIssued,
		Challenge: fmt.Sprintf("wagate-pair:%s:%s", s.sessionID, uuid.NewString()),
	})

	if auto > 0 {
		go func() {
			select {
			case <-ctx.Done():
			case <-time.After(auto):
				s.CompleteScan()
			}
		}()
	}

	return nil
}

// CompleteScan simulates the human approving the pairing challenge.
func (s *Simulator) CompleteScan() {
	s.emit(Event{Kind: KindAuthenticated})
	s.emit(Event{Kind: KindReady})
}

// RejectScan simulates the pairing challenge being rejected or expiring.
func (s *Simulator) RejectScan(reason string) {
	s.emit(Event{Kind: KindAuthFailed, Reason: reason})
}

// Drop simulates the transport losing its connection.
func (s *Simulator) Drop(reason string) {
	s.emit(Event{Kind: KindDisconnected, Reason: reason})
}

// SendText delivers a text message.
func (s *Simulator) SendText(ctx context.Context, recipient, text string) (Ack, error) {
	return s.record(SentMessage{Recipient: recipient, Text: text})
}

// SendMedia delivers a media attachment.
func (s *Simulator) SendMedia(ctx context.Context, recipient string, media Media) (Ack, error) {
	return s.record(SentMessage{Recipient: recipient, Media: &media})
}

func (s *Simulator) record(msg SentMessage) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return Ack{}, errors.New("simulator destroyed")
	}
	if s.sendErr != nil {
		return Ack{}, s.sendErr
	}

	s.sent = append(s.sent, msg)
	return Ack{
		MessageID: uuid.NewString(),
		Recipient: msg.Recipient,
		SentAt:    time.Now(),
	}, nil
}

// IsRegistered reports whether the recipient exists per the configured
// predicate.
func (s *Simulator) IsRegistered(ctx context.Context, recipient string) (bool, error) {
	return s.registered(recipient), nil
}

// Destroy tears the simulator down. Idempotent.
func (s *Simulator) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}

// Sent returns a copy of the deliveries the simulator accepted.
func (s *Simulator) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

// Destroyed reports whether Destroy has been called.
func (s *Simulator) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
