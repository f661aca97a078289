package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wagate/wagate/internal/errors"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "sessions.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestNew_InitializesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	r, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("registry file should exist after New: %v", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("registry file should hold a valid JSON sequence: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("fresh registry should be empty, got %d records", len(records))
	}

	loaded, err := r.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Load on fresh registry = %d records, want 0", len(loaded))
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	r := newTestRegistry(t)

	want := []Record{
		{ID: "alice", Description: "desk A", Ready: true},
		{ID: "bob", Description: "desk B", Ready: false},
	}

	if err := r.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := r.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Load returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSave_RewritesWholesale(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Save([]Record{{ID: "alice"}, {ID: "bob"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A subsequent Save with a smaller set replaces everything.
	if err := r.Save([]Record{{ID: "bob", Ready: true}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := r.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "bob" || !got[0].Ready {
		t.Errorf("Load = %+v, want single ready record for 'bob'", got)
	}
}

func TestLoad_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Registry{path: path}
	_, err := r.Load()
	if !errors.Is(err, errors.ErrRegistryCorrupted) {
		t.Errorf("Load on corrupted file = %v, want ErrRegistryCorrupted", err)
	}
}

func TestSave_ConcurrentWritersSerialized(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Save([]Record{{ID: "alice", Ready: true}})
		}()
	}
	wg.Wait()

	// The file must never be left in a torn state.
	got, err := r.Load()
	if err != nil {
		t.Fatalf("Load after concurrent saves failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "alice" {
		t.Errorf("Load = %+v, want the single saved record", got)
	}
}

func TestSave_NilBecomesEmptySequence(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Save(nil); err != nil {
		t.Fatalf("Save(nil) failed: %v", err)
	}

	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Save(nil) wrote %q, want empty JSON sequence", string(data))
	}
}
