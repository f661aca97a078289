// Package tui renders the live session dashboard. It is a pure observer:
// it attaches to the event broadcaster, reconstructs session state from the
// init replay plus subsequent lifecycle events, and never calls back into
// the manager.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wagate/wagate/internal/event"
)

// EventMsg wraps a broadcaster event for the bubbletea update loop.
type EventMsg struct {
	Event event.Event
}

// Model is the dashboard's bubbletea model.
type Model struct {
	rows     []event.SessionSummary
	lines    []string
	maxLines int
	width    int
}

// New creates a dashboard model. maxLines bounds the event log.
func New(maxLines int) Model {
	if maxLines < 1 {
		maxLines = 1
	}
	return Model{maxLines: maxLines}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case EventMsg:
		m.apply(msg.Event)
	}

	return m, nil
}

// apply folds one lifecycle event into the reconstructed session table.
func (m *Model) apply(ev event.Event) {
	switch e := ev.(type) {
	case event.InitEvent:
		m.rows = append([]event.SessionSummary(nil), e.Sessions...)
		m.logf(ev, "attached, %d sessions known", len(e.Sessions))

	case event.QREvent:
		m.ensureRow(e.SessionID)
		m.logf(ev, "%s: pairing challenge issued, scan required", e.SessionID)

	case event.AuthenticatedEvent:
		m.ensureRow(e.SessionID)
		m.logf(ev, "%s: authenticated", e.SessionID)

	case event.ReadyEvent:
		m.setReady(e.SessionID, true)
		m.logf(ev, "%s: ready", e.SessionID)

	case event.AuthFailureEvent:
		m.setReady(e.SessionID, false)
		m.logf(ev, "%s: authentication failed", e.SessionID)

	case event.DisconnectedEvent:
		m.setReady(e.SessionID, false)
		if e.Reason != "" {
			m.logf(ev, "%s: disconnected (%s)", e.SessionID, e.Reason)
		} else {
			m.logf(ev, "%s: disconnected", e.SessionID)
		}

	case event.SessionRemovedEvent:
		m.removeRow(e.SessionID)
		m.logf(ev, "%s: removed", e.SessionID)
	}
}

func (m *Model) ensureRow(id string) {
	for _, row := range m.rows {
		if row.ID == id {
			return
		}
	}
	m.rows = append(m.rows, event.SessionSummary{ID: id})
}

func (m *Model) setReady(id string, ready bool) {
	m.ensureRow(id)
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Ready = ready
			return
		}
	}
}

func (m *Model) removeRow(id string) {
	for i, row := range m.rows {
		if row.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return
		}
	}
}

func (m *Model) logf(ev event.Event, format string, args ...any) {
	stamp := eventTimeStyle.Render(ev.Timestamp().Format("15:04:05"))
	m.lines = append(m.lines, stamp+" "+fmt.Sprintf(format, args...))
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[len(m.lines)-m.maxLines:]
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wagate sessions"))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(pendingStyle.Render("no sessions"))
		b.WriteString("\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-30s %s", "ID", "DESCRIPTION", "STATUS")))
		b.WriteString("\n")
		for _, row := range m.rows {
			status := pendingStyle.Render("pending")
			if row.Ready {
				status = readyStyle.Render("ready")
			}
			b.WriteString(fmt.Sprintf("%-20s %-30s %s\n", row.ID, row.Description, status))
		}
	}

	visible := m.lines
	if len(visible) > 10 {
		visible = visible[len(visible)-10:]
	}
	if len(visible) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("RECENT EVENTS"))
		b.WriteString("\n")
		for _, line := range visible {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

// Run attaches a dashboard to the broadcaster and blocks until the user
// quits. The observer is detached before returning.
func Run(bc *event.Broadcaster, maxLines int) error {
	p := tea.NewProgram(New(maxLines), tea.WithAltScreen())

	id := bc.Attach(func(ev event.Event) {
		p.Send(EventMsg{Event: ev})
	})
	defer bc.Detach(id)

	_, err := p.Run()
	return err
}
