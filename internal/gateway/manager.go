// Package gateway implements multi-session orchestration: creating and
// destroying sessions, driving each one through its authentication
// lifecycle, routing outbound messages, and keeping the durable registry in
// step with the in-memory session table.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/wagate/wagate/internal/config"
	"github.com/wagate/wagate/internal/driver"
	"github.com/wagate/wagate/internal/errors"
	"github.com/wagate/wagate/internal/event"
	"github.com/wagate/wagate/internal/logging"
	"github.com/wagate/wagate/internal/phone"
	"github.com/wagate/wagate/internal/qr"
	"github.com/wagate/wagate/internal/registry"
)

// Manager owns every live session and the ordered record set mirrored to the
// registry file. The in-memory table is authoritative: registry writes that
// fail are logged and skipped, never allowed to stall the lifecycle.
type Manager struct {
	cfg     config.SessionConfig
	reg     *registry.Registry
	bc      *event.Broadcaster
	factory driver.Factory
	log     *logging.Logger

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	records  []registry.Record
	closed   bool
}

// NewManager creates a Manager. The broadcaster's snapshot function should
// be wired to this manager's Snapshot method so that newly attached
// observers replay current registry state.
func NewManager(cfg config.SessionConfig, reg *registry.Registry, bc *event.Broadcaster, factory driver.Factory, log *logging.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:        cfg,
		reg:        reg,
		bc:         bc,
		factory:    factory,
		log:        log.WithComponent("manager"),
		rootCtx:    ctx,
		rootCancel: cancel,
		sessions:   make(map[string]*Session),
	}
}

// Snapshot returns the current record set as observer summaries, in registry
// order.
func (m *Manager) Snapshot() []event.SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]event.SessionSummary, len(m.records))
	for i, rec := range m.records {
		out[i] = event.SessionSummary{
			ID:          rec.ID,
			Description: rec.Description,
			Ready:       rec.Ready,
		}
	}
	return out
}

// ListSessions returns the current record set in registry order.
func (m *Manager) ListSessions() []registry.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotRecordsLocked()
}

// Get returns the live session with the given id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Bootstrap loads the registry and recreates a session for every persisted
// record. Readiness is never trusted across a restart: each record is reset
// to not-ready and must re-earn it through a fresh authentication cycle.
func (m *Manager) Bootstrap(ctx context.Context) error {
	records, err := m.reg.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records = make([]registry.Record, len(records))
	for i, rec := range records {
		rec.Ready = false
		m.records[i] = rec
	}
	m.persistLocked()
	m.mu.Unlock()

	for _, rec := range records {
		if err := m.CreateSession(ctx, rec.ID, rec.Description); err != nil {
			return err
		}
	}

	m.log.Info("bootstrap complete", "sessions", len(records))
	return nil
}

// CreateSession registers a session and starts its lifecycle. Creating an id
// that is already live is a no-op; an id known to the registry but not live
// (after a restart or a terminal auth failure) gets a fresh driver while its
// stored description is preserved.
func (m *Manager) CreateSession(ctx context.Context, id, description string) error {
	if id == "" {
		return errors.NewValidationError("session id cannot be empty").WithField("id")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.NewSessionError("manager is stopped", nil).WithSessionID(id)
	}
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return nil
	}

	if idx := m.findRecordLocked(id); idx >= 0 {
		description = m.records[idx].Description
	} else {
		m.records = append(m.records, registry.Record{ID: id, Description: description})
	}

	adapter := driver.NewAdapter(id, m.factory, m.cfg.EventBuffer())
	sessCtx, cancel := context.WithCancel(m.rootCtx)
	s := &Session{
		id:          id,
		description: description,
		state:       StateInitializing,
		adapter:     adapter,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	m.sessions[id] = s
	m.persistLocked()
	m.mu.Unlock()

	m.log.Info("session created", "session_id", id, "description", description)

	go m.runSession(sessCtx, s)
	return nil
}

// SendMessage delivers a text message through a session. The recipient
// number is normalized first; the session must exist, be ready, and the
// recipient must be registered on the external network before any send is
// attempted.
func (m *Manager) SendMessage(ctx context.Context, sessionID, number, text string) (driver.Ack, error) {
	return m.deliver(ctx, sessionID, number, func(a *driver.Adapter, recipient string) (driver.Ack, error) {
		return a.SendText(ctx, recipient, text)
	})
}

// SendMedia delivers a media attachment through a session, with the same
// gating as SendMessage.
func (m *Manager) SendMedia(ctx context.Context, sessionID, number string, media driver.Media) (driver.Ack, error) {
	return m.deliver(ctx, sessionID, number, func(a *driver.Adapter, recipient string) (driver.Ack, error) {
		return a.SendMedia(ctx, recipient, media)
	})
}

func (m *Manager) deliver(ctx context.Context, sessionID, number string, send func(*driver.Adapter, string) (driver.Ack, error)) (driver.Ack, error) {
	recipient, err := phone.Format(number)
	if err != nil {
		return driver.Ack{}, err
	}

	s, ok := m.Get(sessionID)
	if !ok {
		return driver.Ack{}, errors.NewSessionError("no live session", errors.ErrSessionNotFound).
			WithSessionID(sessionID)
	}

	// Serialize deliveries per session. The state re-check under the send
	// lock closes the window where a disconnect lands between lookup and
	// send.
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.State() != StateReady {
		return driver.Ack{}, errors.NewSessionError("session is not ready", errors.ErrSessionNotReady).
			WithSessionID(sessionID)
	}
	adapter := s.currentAdapter()

	registered, err := adapter.IsRegistered(ctx, recipient)
	if err != nil {
		return driver.Ack{}, errors.NewDeliveryError("recipient check failed", err).
			WithSessionID(sessionID).WithRecipient(recipient)
	}
	if !registered {
		return driver.Ack{}, errors.Wrapf(errors.ErrRecipientNotRegistered,
			"%s is not registered on the messaging network", recipient)
	}

	ack, err := send(adapter, recipient)
	if err != nil {
		return driver.Ack{}, errors.NewDeliveryError("failed to send message", err).
			WithSessionID(sessionID).WithRecipient(recipient)
	}
	return ack, nil
}

// Shutdown tears a session down and removes its registry record. Unknown
// ids are a no-op. The removal event is published only when something was
// actually removed.
func (m *Manager) Shutdown(ctx context.Context, id string) error {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	removed := m.removeRecordLocked(id)
	if removed {
		m.persistLocked()
	}
	m.mu.Unlock()

	if s != nil {
		s.cancel()
		m.awaitTeardown(ctx, s)
	}

	if s != nil || removed {
		m.bc.Publish(event.NewSessionRemovedEvent(id))
		m.log.Info("session shut down", "session_id", id)
	}
	return nil
}

// Stop tears down every live session without touching the registry, so the
// persisted records survive for the next Bootstrap.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	m.rootCancel()
	for _, s := range live {
		m.awaitTeardown(ctx, s)
	}
	m.log.Info("manager stopped", "sessions", len(live))
}

// awaitTeardown waits for a session loop to exit, forcing the driver down if
// the cooperative teardown window expires.
func (m *Manager) awaitTeardown(ctx context.Context, s *Session) {
	select {
	case <-s.Done():
	case <-time.After(m.cfg.TeardownTimeout()):
		m.log.Warn("teardown timed out, forcing driver destroy", "session_id", s.id)
		if err := s.currentAdapter().Destroy(ctx); err != nil {
			m.log.Error("forced driver destroy failed", "session_id", s.id, "error", err)
		}
	case <-ctx.Done():
		_ = s.currentAdapter().Destroy(context.Background())
	}
}

// runSession is the per-session lifecycle loop. One iteration corresponds to
// one driver generation; a disconnect self-heal starts the next iteration
// with a fresh driver.
func (m *Manager) runSession(ctx context.Context, s *Session) {
	log := m.log.WithSession(s.id)
	defer close(s.done)

	for {
		adapter := s.currentAdapter()

		if err := adapter.Connect(ctx); err != nil {
			log.Error("transport connect failed", "error", err)
			m.failSession(s, adapter)
			return
		}

		if !m.consumeEvents(ctx, s, adapter, log) {
			return
		}

		select {
		case <-ctx.Done():
			_ = s.currentAdapter().Destroy(context.Background())
			return
		case <-time.After(m.cfg.ReconnectDelay()):
		}
	}
}

// consumeEvents processes one driver generation's event stream. It returns
// true when the session should reconnect with a fresh driver, false when the
// loop must exit.
func (m *Manager) consumeEvents(ctx context.Context, s *Session, adapter *driver.Adapter, log *logging.Logger) bool {
	for {
		select {
		case <-ctx.Done():
			if err := adapter.Destroy(context.Background()); err != nil {
				log.Error("driver destroy failed", "error", err)
			}
			return false

		case ev := <-adapter.Events():
			switch ev.Kind {
			case driver.KindChallengeIssued, driver.KindAuthenticated, driver.KindReady:
				next, ok := transition(s.State(), ev.Kind)
				if !ok {
					log.Warn("dropping out-of-order transport event",
						"event", ev.Kind.String(), "state", s.State().String())
					continue
				}
				s.setState(next)
				m.publishProgress(s, ev, log)

			case driver.KindAuthFailed:
				state := s.State()
				if state != StateInitializing && state != StateAwaitingScan {
					log.Warn("dropping out-of-order transport event",
						"event", ev.Kind.String(), "state", state.String())
					continue
				}
				log.Warn("authentication failed", "reason", ev.Reason)
				m.bc.Publish(event.NewAuthFailureEvent(s.id))
				m.failSession(s, adapter)
				return false

			case driver.KindDisconnected:
				if s.State() != StateReady {
					log.Warn("dropping out-of-order transport event",
						"event", ev.Kind.String(), "state", s.State().String())
					continue
				}
				log.Warn("transport disconnected", "reason", ev.Reason)
				return m.selfHeal(s, adapter, ev.Reason)
			}
		}
	}
}

// publishProgress emits the observer event for a successful forward
// transition and persists the readiness flip.
func (m *Manager) publishProgress(s *Session, ev driver.Event, log *logging.Logger) {
	switch ev.Kind {
	case driver.KindChallengeIssued:
		img, err := qr.DataURL(ev.Challenge)
		if err != nil {
			log.Error("failed to render pairing challenge", "error", err)
		}
		m.bc.Publish(event.NewQREvent(s.id, img))
		log.Info("pairing challenge issued")

	case driver.KindAuthenticated:
		m.bc.Publish(event.NewAuthenticatedEvent(s.id))
		log.Info("session authenticated")

	case driver.KindReady:
		m.setReady(s.id, true)
		m.bc.Publish(event.NewReadyEvent(s.id))
		log.Info("session ready")
	}
}

// failSession ends a session terminally: the driver is destroyed and the
// live entry removed, but the registry record survives (not ready) so an
// operator can recreate the session explicitly.
func (m *Manager) failSession(s *Session, adapter *driver.Adapter) {
	if err := adapter.Destroy(context.Background()); err != nil {
		m.log.Error("driver destroy failed", "session_id", s.id, "error", err)
	}
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()
}

// selfHeal handles a transport disconnect: the observer contract requires
// the record to be removed (with its removal event) and then re-inserted
// not-ready before a fresh driver generation restarts the lifecycle.
//
// Shutdown can race the disconnect. Liveness is re-checked under the lock
// at every mutation point: once the session is no longer the live entry for
// its id, the heal is abandoned and nothing is re-inserted, so a shut-down
// id never reappears in the record set. Returns true when the session
// should reconnect with its fresh driver.
func (m *Manager) selfHeal(s *Session, adapter *driver.Adapter, reason string) bool {
	if !m.isLive(s) {
		_ = adapter.Destroy(context.Background())
		return false
	}

	m.bc.Publish(event.NewDisconnectedEvent(s.id, reason))

	if err := adapter.Destroy(context.Background()); err != nil {
		m.log.Error("driver destroy failed", "session_id", s.id, "error", err)
	}

	m.mu.Lock()
	if m.removeRecordLocked(s.id) {
		m.persistLocked()
	}
	m.mu.Unlock()

	m.bc.Publish(event.NewSessionRemovedEvent(s.id))

	m.mu.Lock()
	if m.sessions[s.id] != s {
		m.mu.Unlock()
		return false
	}
	m.records = append(m.records, registry.Record{ID: s.id, Description: s.description})
	m.persistLocked()
	m.mu.Unlock()

	s.replaceAdapter(driver.NewAdapter(s.id, m.factory, m.cfg.EventBuffer()))
	return true
}

// isLive reports whether s is still the live entry for its id.
func (m *Manager) isLive(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[s.id] == s
}

// setReady flips a record's readiness flag and persists the full set.
func (m *Manager) setReady(id string, ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := m.findRecordLocked(id); idx >= 0 {
		m.records[idx].Ready = ready
		m.persistLocked()
	}
}

// persistLocked writes the full record set to the registry. Callers must
// hold m.mu: keeping the write inside the critical section means file
// writes land in the same order as the in-memory mutations they reflect,
// so a concurrent writer can never clobber a newer record set with a stale
// one. Write failures are non-fatal: they are logged and the in-memory
// table stays authoritative.
func (m *Manager) persistLocked() {
	if err := m.reg.Save(m.snapshotRecordsLocked()); err != nil {
		m.log.Warn("registry write failed, in-memory state remains authoritative", "error", err)
	}
}

func (m *Manager) findRecordLocked(id string) int {
	for i, rec := range m.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) removeRecordLocked(id string) bool {
	idx := m.findRecordLocked(id)
	if idx < 0 {
		return false
	}
	m.records = append(m.records[:idx], m.records[idx+1:]...)
	return true
}

func (m *Manager) snapshotRecordsLocked() []registry.Record {
	out := make([]registry.Record, len(m.records))
	copy(out, m.records)
	return out
}
