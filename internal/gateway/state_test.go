package gateway

import (
	"testing"

	"github.com/wagate/wagate/internal/driver"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  State
		kind  driver.EventKind
		want  State
		legal bool
	}{
		{"challenge from initializing", StateInitializing, driver.KindChallengeIssued, StateAwaitingScan, true},
		{"challenge after scan", StateAwaitingScan, driver.KindChallengeIssued, StateAwaitingScan, false},
		{"challenge when ready", StateReady, driver.KindChallengeIssued, StateReady, false},
		{"scan completes", StateAwaitingScan, driver.KindAuthenticated, StateAuthenticated, true},
		{"stored credential resume", StateInitializing, driver.KindAuthenticated, StateAuthenticated, true},
		{"authenticated twice", StateAuthenticated, driver.KindAuthenticated, StateAuthenticated, false},
		{"ready after authenticated", StateAuthenticated, driver.KindReady, StateReady, true},
		{"ready without authentication", StateAwaitingScan, driver.KindReady, StateAwaitingScan, false},
		{"ready from initializing", StateInitializing, driver.KindReady, StateInitializing, false},
		{"auth failure handled out of band", StateAwaitingScan, driver.KindAuthFailed, StateAwaitingScan, false},
		{"disconnect handled out of band", StateReady, driver.KindDisconnected, StateReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, legal := transition(tt.from, tt.kind)
			if legal != tt.legal {
				t.Errorf("transition(%v, %v) legal = %v, want %v", tt.from, tt.kind, legal, tt.legal)
			}
			if got != tt.want {
				t.Errorf("transition(%v, %v) = %v, want %v", tt.from, tt.kind, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	names := map[State]string{
		StateInitializing:  "initializing",
		StateAwaitingScan:  "awaiting_scan",
		StateAuthenticated: "authenticated",
		StateReady:         "ready",
		State(99):          "unknown",
	}
	for s, want := range names {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
