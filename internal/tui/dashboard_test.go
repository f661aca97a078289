package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wagate/wagate/internal/event"
)

func applyEvent(m Model, ev event.Event) Model {
	next, _ := m.Update(EventMsg{Event: ev})
	return next.(Model)
}

func TestModel_InitReplayPopulatesRows(t *testing.T) {
	m := New(50)
	m = applyEvent(m, event.NewInitEvent([]event.SessionSummary{
		{ID: "alice", Description: "desk A", Ready: true},
		{ID: "bob", Description: "desk B"},
	}))

	view := m.View()
	if !strings.Contains(view, "alice") || !strings.Contains(view, "bob") {
		t.Errorf("view should list both sessions:\n%s", view)
	}
	if !strings.Contains(view, "ready") {
		t.Errorf("view should show alice as ready:\n%s", view)
	}
}

func TestModel_LifecycleUpdatesRows(t *testing.T) {
	m := New(50)

	m = applyEvent(m, event.NewQREvent("alice", "data:image/png;base64,xxx"))
	if len(m.rows) != 1 || m.rows[0].Ready {
		t.Fatalf("rows = %+v, want one pending row after a challenge", m.rows)
	}

	m = applyEvent(m, event.NewAuthenticatedEvent("alice"))
	m = applyEvent(m, event.NewReadyEvent("alice"))
	if !m.rows[0].Ready {
		t.Error("row should be ready after the ready event")
	}

	m = applyEvent(m, event.NewDisconnectedEvent("alice", "connection reset"))
	if m.rows[0].Ready {
		t.Error("row should drop readiness on disconnect")
	}

	m = applyEvent(m, event.NewSessionRemovedEvent("alice"))
	if len(m.rows) != 0 {
		t.Errorf("rows = %+v, want empty after removal", m.rows)
	}
}

func TestModel_EventLogBounded(t *testing.T) {
	m := New(3)
	for i := 0; i < 10; i++ {
		m = applyEvent(m, event.NewReadyEvent("alice"))
	}
	if len(m.lines) != 3 {
		t.Errorf("event log holds %d lines, want 3", len(m.lines))
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := New(10)
	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q should quit", key)
		}
	}
}
