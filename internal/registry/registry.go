// Package registry provides the durable catalog of session identities.
// It persists an ordered sequence of records to a single JSON file that is
// rewritten wholesale on every mutation. This is a deliberate simplicity
// trade-off: fine for small session counts, a scalability ceiling beyond
// that. The file contract is stable, so a caller may substitute an embedded
// key-value store without touching the rest of the system.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/wagate/wagate/internal/errors"
)

// Record is one persisted session identity.
type Record struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Ready       bool   `json:"ready"`
}

// Registry is a file-backed store of session records.
// Load and Save are serialized by an internal mutex; concurrent writers
// are last-writer-wins, which is acceptable because every writer recomputes
// the full record set from the in-memory session table, never from a stale
// read of the file.
type Registry struct {
	path string
	mu   sync.Mutex
}

// New creates a Registry backed by the file at path. If the file does not
// exist it is initialized to an empty sequence, so a fresh deployment and a
// restart look the same to callers.
func New(path string) (*Registry, error) {
	r := &Registry{path: path}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat registry file: %w", err)
		}
		if err := r.Save(nil); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Load returns the full ordered sequence of records.
// An empty (but existing) store yields an empty slice.
func (r *Registry) Load() ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRegistryCorrupted, err)
	}

	return records, nil
}

// Save atomically replaces the entire stored sequence. Callers always pass
// the full desired set, never a delta.
func (r *Registry) Save(records []Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("failed to marshal records", err).WithPath(r.path)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return errors.NewPersistenceError("failed to create registry directory", err).WithPath(r.path)
	}

	if err := atomicWriteFile(r.path, data, 0644); err != nil {
		return errors.NewPersistenceError("failed to write registry file", err).WithPath(r.path)
	}

	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temporary
// file first, then renaming. The target file is never observed in a
// partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
