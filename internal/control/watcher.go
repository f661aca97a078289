package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wagate/wagate/internal/logging"
)

// Handler processes one command picked up from the control directory.
type Handler func(Command)

// Watcher consumes command files from the control directory. Each file is
// decoded, handed to the handler, and deleted; malformed files are deleted
// and logged so they cannot wedge the channel.
type Watcher struct {
	dir     string
	handler Handler
	log     *logging.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}

	closeOnce sync.Once
}

// NewWatcher starts watching dir for command files. Files already present
// when the watcher starts are consumed immediately, so commands submitted
// while the daemon was down are not lost.
func NewWatcher(dir string, handler Handler, log *logging.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch control directory: %w", err)
	}

	w := &Watcher{
		dir:     dir,
		handler: handler,
		log:     log.WithComponent("control"),
		fsw:     fsw,
		done:    make(chan struct{}),
	}

	w.consumeExisting()
	go w.loop()

	return w, nil
}

// Dir returns the watched control directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Submit publishes via rename, which arrives as a create.
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.consume(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("control directory watch error", "error", err)
		}
	}
}

// consumeExisting drains command files that predate the watcher.
func (w *Watcher) consumeExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Error("failed to scan control directory", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.consume(filepath.Join(w.dir, entry.Name()))
	}
}

// consume reads, dispatches and removes one command file.
func (w *Watcher) consume(path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Error("failed to read command file", "path", path, "error", err)
		}
		return
	}

	// Remove before dispatch so a crashing handler cannot replay the
	// command on restart.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.Error("failed to remove command file", "path", path, "error", err)
	}

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		w.log.Error("discarding malformed command file", "path", path, "error", err)
		return
	}
	if err := cmd.Validate(); err != nil {
		w.log.Error("discarding invalid command", "path", path, "error", err)
		return
	}

	w.log.Debug("command received", "command_id", cmd.ID, "type", cmd.Type, "session_id", cmd.SessionID)
	w.handler(cmd)
}
