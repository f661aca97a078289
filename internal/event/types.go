// Package event defines the lifecycle events the gateway emits and the
// pub-sub machinery that delivers them. Events decouple the session manager
// from its observers (dashboards, notification layers) without direct
// dependencies.
package event

import "time"

// Event names form the external contract consumed by observers.
const (
	TypeQR             = "qr"
	TypeReady          = "ready"
	TypeAuthenticated  = "authenticated"
	TypeAuthFailure    = "auth_failure"
	TypeDisconnected   = "disconnected"
	TypeSessionRemoved = "session_removed"
	TypeInit           = "init"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// QREvent is emitted when a session's transport issues a pairing challenge
// that a human must approve out of band.
type QREvent struct {
	baseEvent
	SessionID string // Session awaiting the scan
	ImageData string // PNG data URL of the rendered challenge
}

// NewQREvent creates a QREvent.
func NewQREvent(sessionID, imageData string) QREvent {
	return QREvent{
		baseEvent: newBaseEvent(TypeQR),
		SessionID: sessionID,
		ImageData: imageData,
	}
}

// AuthenticatedEvent is emitted when a session's pairing challenge completes
// or the transport resumes from a stored credential.
type AuthenticatedEvent struct {
	baseEvent
	SessionID string
}

// NewAuthenticatedEvent creates an AuthenticatedEvent.
func NewAuthenticatedEvent(sessionID string) AuthenticatedEvent {
	return AuthenticatedEvent{
		baseEvent: newBaseEvent(TypeAuthenticated),
		SessionID: sessionID,
	}
}

// ReadyEvent is emitted when a session's transport finishes its handshake
// and the session can send messages.
type ReadyEvent struct {
	baseEvent
	SessionID string
}

// NewReadyEvent creates a ReadyEvent.
func NewReadyEvent(sessionID string) ReadyEvent {
	return ReadyEvent{
		baseEvent: newBaseEvent(TypeReady),
		SessionID: sessionID,
	}
}

// AuthFailureEvent is emitted when a pairing challenge is rejected or
// expires. The session is terminal and must be created again explicitly.
type AuthFailureEvent struct {
	baseEvent
	SessionID string
}

// NewAuthFailureEvent creates an AuthFailureEvent.
func NewAuthFailureEvent(sessionID string) AuthFailureEvent {
	return AuthFailureEvent{
		baseEvent: newBaseEvent(TypeAuthFailure),
		SessionID: sessionID,
	}
}

// DisconnectedEvent is emitted when a session's transport reports connection
// loss. The manager self-heals by destroying and recreating the driver.
type DisconnectedEvent struct {
	baseEvent
	SessionID string
	Reason    string // Transport-supplied reason, may be empty
}

// NewDisconnectedEvent creates a DisconnectedEvent.
func NewDisconnectedEvent(sessionID, reason string) DisconnectedEvent {
	return DisconnectedEvent{
		baseEvent: newBaseEvent(TypeDisconnected),
		SessionID: sessionID,
		Reason:    reason,
	}
}

// SessionRemovedEvent is emitted when a session's registry record is removed,
// either by an explicit shutdown or by the disconnect self-heal.
type SessionRemovedEvent struct {
	baseEvent
	SessionID string
}

// NewSessionRemovedEvent creates a SessionRemovedEvent.
func NewSessionRemovedEvent(sessionID string) SessionRemovedEvent {
	return SessionRemovedEvent{
		baseEvent: newBaseEvent(TypeSessionRemoved),
		SessionID: sessionID,
	}
}

// -----------------------------------------------------------------------------
// Snapshot Replay
// -----------------------------------------------------------------------------

// SessionSummary is one row of the registry snapshot replayed to observers.
type SessionSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Ready       bool   `json:"ready"`
}

// InitEvent carries the full registry snapshot. It is sent exactly once to
// each newly attached observer so it can reconstruct current state without
// having witnessed historical transitions.
type InitEvent struct {
	baseEvent
	Sessions []SessionSummary
}

// NewInitEvent creates an InitEvent.
func NewInitEvent(sessions []SessionSummary) InitEvent {
	return InitEvent{
		baseEvent: newBaseEvent(TypeInit),
		Sessions:  sessions,
	}
}
