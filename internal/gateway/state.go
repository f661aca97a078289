package gateway

import "github.com/wagate/wagate/internal/driver"

// State is one phase of a live session's lifecycle.
type State int

const (
	// StateInitializing covers the window between driver construction and
	// the first authentication progress event.
	StateInitializing State = iota
	// StateAwaitingScan means a pairing challenge has been issued and the
	// transport is waiting for out-of-band approval.
	StateAwaitingScan
	// StateAuthenticated means credentials were accepted but the transport
	// handshake has not finished.
	StateAuthenticated
	// StateReady means the session can carry messages.
	StateReady
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAwaitingScan:
		return "awaiting_scan"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// transition returns the successor state for a lifecycle event, and whether
// the event is legal from the current state. Illegal events are dropped by
// the caller; the state machine never moves backward within one driver
// generation.
//
// AuthFailed and Disconnected have no successor state here: they end the
// current driver generation and are handled out of band by the session loop.
func transition(from State, kind driver.EventKind) (State, bool) {
	switch kind {
	case driver.KindChallengeIssued:
		if from == StateInitializing {
			return StateAwaitingScan, true
		}
	case driver.KindAuthenticated:
		// Resuming from stored credentials skips the challenge, so both
		// entry points are legal.
		if from == StateInitializing || from == StateAwaitingScan {
			return StateAuthenticated, true
		}
	case driver.KindReady:
		if from == StateAuthenticated {
			return StateReady, true
		}
	}
	return from, false
}
