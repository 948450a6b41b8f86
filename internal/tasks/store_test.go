package tasks

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "vtm.json"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := tempStore(t)

	m := NewManifest("demo")
	m.UpsertTask(Task{ID: "T-1", Title: "First", Status: StatusCompleted})
	m.UpsertTask(Task{
		ID: "T-2", Title: "Second", Status: StatusPending,
		Dependencies:       []string{"T-1"},
		AcceptanceCriteria: []string{"does the thing"},
		Files:              FileChanges{Create: []string{"thing.go"}},
		Source:             "specs/thing.md",
	})

	if err := store.Save(m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(loaded.Tasks))
	}
	if loaded.Tasks[1].Source != "specs/thing.md" {
		t.Errorf("Expected source to round-trip, got %q", loaded.Tasks[1].Source)
	}
}

func TestSaveRecomputesStats(t *testing.T) {
	store := tempStore(t)

	m := NewManifest("demo")
	m.UpsertTask(Task{ID: "T-1", Title: "First", Status: StatusCompleted})
	m.UpsertTask(Task{ID: "T-2", Title: "Second", Status: StatusPending})
	m.Stats = Stats{Total: 42}

	if err := store.Save(m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s := loaded.Stats
	if s.Total != 2 || s.Completed != 1 || s.Pending != 1 {
		t.Errorf("Expected stats rebuilt from tasks, got %+v", s)
	}
	if s.Completed+s.Pending+s.InProgress+s.Blocked != len(loaded.Tasks) {
		t.Error("Status counts do not sum to task count after save")
	}
}

func TestSaveSerializationIsStable(t *testing.T) {
	store := tempStore(t)

	m := NewManifest("demo")
	m.UpsertTask(Task{ID: "T-1", Title: "First", Status: StatusCompleted})
	m.UpsertTask(Task{ID: "T-2", Title: "Second", Status: StatusPending, Dependencies: []string{"T-1"}})

	if err := store.Save(m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Save(loaded); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	second, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("save(load(save(M))) produced different bytes than save(M)")
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := tempStore(t)

	if err := store.Save(NewManifest("demo")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	store := tempStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	var corrupt *CorruptManifestError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected CorruptManifestError, got %v", err)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing project", `{"version": 1, "tasks": []}`},
		{"bad status", `{"version": 1, "project": {"name": "x"},
			"tasks": [{"id": "T-1", "title": "a", "status": "doing"}]}`},
		{"empty id", `{"version": 1, "project": {"name": "x"},
			"tasks": [{"id": "", "title": "a", "status": "pending"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := tempStore(t)
			if err := os.WriteFile(store.Path(), []byte(tc.body), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := store.Load()
			var corrupt *CorruptManifestError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Expected CorruptManifestError, got %v", err)
			}
		})
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	store := tempStore(t)
	body := `{"version": 1, "project": {"name": "x"}, "tasks": [
		{"id": "T-1", "title": "a", "status": "pending"},
		{"id": "T-1", "title": "b", "status": "pending"}
	]}`
	if err := os.WriteFile(store.Path(), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	var corrupt *CorruptManifestError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected CorruptManifestError, got %v", err)
	}
	if corrupt != nil && !bytes.Contains([]byte(corrupt.Reason), []byte("T-1")) {
		t.Errorf("Expected error to name the duplicate id, got %q", corrupt.Reason)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := store.Load(); err == nil {
		t.Error("Expected error for missing manifest")
	}
}

func TestMemStoreIsolation(t *testing.T) {
	store := NewMemStore(NewManifest("demo"))

	m, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	m.UpsertTask(Task{ID: "T-1", Title: "First", Status: StatusPending})

	// Unsaved mutation must not leak back.
	again, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Tasks) != 0 {
		t.Error("Expected unsaved mutation to be invisible")
	}

	if err := store.Save(m); err != nil {
		t.Fatal(err)
	}
	again, _ = store.Load()
	if len(again.Tasks) != 1 {
		t.Error("Expected saved mutation to persist")
	}
	if again.Stats.Pending != 1 {
		t.Error("Expected MemStore.Save to recompute stats")
	}
}
