// Package driver defines the opaque transport contract for one messaging
// session and the adapter that translates a transport's asynchronous
// notifications into the ordered event stream the session manager consumes.
//
// The real network transport is out of scope for this repository; the
// package ships a Simulator that walks the same lifecycle for local
// development and tests.
package driver

import (
	"context"
	"time"
)

// EventKind enumerates the lifecycle notifications a transport can emit.
type EventKind int

const (
	// KindChallengeIssued signals that the transport needs an out-of-band
	// pairing approval. Omitted when resuming from stored credentials.
	KindChallengeIssued EventKind = iota
	// KindAuthenticated signals that the pairing challenge completed or a
	// stored credential was accepted.
	KindAuthenticated
	// KindReady signals that the transport finished its handshake and can
	// carry messages.
	KindReady
	// KindAuthFailed signals that the challenge was rejected or expired.
	// Terminal for the current driver.
	KindAuthFailed
	// KindDisconnected signals connection loss. Terminal for the current
	// driver; the manager recreates a fresh one.
	KindDisconnected
)

// String returns a human-readable name for an event kind.
func (k EventKind) String() string {
	switch k {
	case KindChallengeIssued:
		return "challenge_issued"
	case KindAuthenticated:
		return "authenticated"
	case KindReady:
		return "ready"
	case KindAuthFailed:
		return "auth_failed"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification from a transport.
type Event struct {
	Kind      EventKind
	Challenge string // pairing challenge payload, KindChallengeIssued only
	Reason    string // transport-supplied detail, failure kinds only
}

// Media is a binary attachment with its wire metadata.
type Media struct {
	MimeType string
	Data     []byte
	Filename string
	Caption  string
}

// Ack acknowledges a completed delivery.
type Ack struct {
	MessageID string
	Recipient string
	SentAt    time.Time
}

// Driver is the opaque transport handle for one session. A driver is owned
// exclusively by its session adapter and must never be shared.
//
// Implementations report lifecycle progress through the emit function they
// are constructed with, and must stop emitting once Destroy returns.
type Driver interface {
	// Connect begins the connect/authenticate sequence. It returns once the
	// sequence is underway; progress is observed through emitted events.
	Connect(ctx context.Context) error

	// SendText delivers a text message. Only valid while the transport is
	// ready; the caller enforces that gate.
	SendText(ctx context.Context, recipient, text string) (Ack, error)

	// SendMedia delivers a media attachment.
	SendMedia(ctx context.Context, recipient string, media Media) (Ack, error)

	// IsRegistered reports whether the recipient exists on the external
	// messaging network.
	IsRegistered(ctx context.Context, recipient string) (bool, error)

	// Destroy tears the transport down. Safe to call more than once and
	// from a disconnect handler. No events may be emitted after it returns.
	Destroy(ctx context.Context) error
}

// EmitFunc delivers one lifecycle notification from a transport to its
// adapter.
type EmitFunc func(Event)

// Factory constructs a transport for the given session id, bound to emit.
// The session manager calls it once per driver generation: on create, and
// again after each disconnect self-heal.
type Factory func(sessionID string, emit EmitFunc) Driver
