// Package control implements the daemon's file-drop command channel: other
// processes submit commands by writing JSON files into a watched directory,
// and the daemon consumes and deletes them. This keeps the daemon free of a
// network control surface while still allowing `wagate create` and
// `wagate shutdown` to reach a running instance.
package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wagate/wagate/internal/errors"
)

// Command types accepted on the control channel.
const (
	TypeCreateSession   = "create_session"
	TypeShutdownSession = "shutdown_session"
	TypeSendMessage     = "send_message"
)

// Command is one operation submitted through the control directory.
type Command struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`

	// Description is used by create_session.
	Description string `json:"description,omitempty"`

	// Number and Message are used by send_message.
	Number  string `json:"number,omitempty"`
	Message string `json:"message,omitempty"`
}

// Validate checks that the command is well formed.
func (c *Command) Validate() error {
	switch c.Type {
	case TypeCreateSession, TypeShutdownSession:
		if c.SessionID == "" {
			return errors.NewValidationError("command requires a session id").WithField("session_id")
		}
	case TypeSendMessage:
		if c.SessionID == "" {
			return errors.NewValidationError("command requires a session id").WithField("session_id")
		}
		if c.Number == "" {
			return errors.NewValidationError("send_message requires a number").WithField("number")
		}
	default:
		return errors.NewValidationError("unknown command type").
			WithField("type").WithValue(c.Type)
	}
	return nil
}

// Submit drops a command file into the control directory for a running
// daemon to pick up. The file is written under a temporary name and renamed
// so the watcher never observes a partial write.
func Submit(dir string, cmd Command) error {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now()
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create control directory: %w", err)
	}

	data, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+cmd.ID+".tmp")
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write command file: %w", err)
	}

	finalPath := filepath.Join(dir, cmd.ID+".json")
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish command file: %w", err)
	}

	return nil
}
