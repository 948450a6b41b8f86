package tasks

import (
	"errors"
	"strings"
	"testing"
)

func contextManifest() *Manifest {
	m := NewManifest("demo")
	m.Tasks = []Task{
		{ID: "A", Title: "Build parser", Status: StatusCompleted,
			Files: FileChanges{Create: []string{"parser.go"}, Modify: []string{"go.mod"}}},
		{ID: "B", Title: "Wire parser", Status: StatusPending,
			Description:        strings.Repeat("long description ", 40),
			Dependencies:       []string{"A"},
			AcceptanceCriteria: []string{"parses input"},
			Source:             "specs/parser.md",
			Files:              FileChanges{Modify: []string{"cli.go"}}},
	}
	return m
}

func TestExtractMinimal(t *testing.T) {
	payload, err := Extract(contextManifest(), "B", ModeMinimal)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if payload.ID != "B" || payload.Title != "Wire parser" {
		t.Errorf("Expected task identity, got %+v", payload)
	}
	if payload.Description != "" {
		t.Error("Expected minimal mode to omit description")
	}
	if payload.Dependencies != nil {
		t.Error("Expected minimal mode to omit dependency summaries")
	}
	if payload.Files != nil {
		t.Error("Expected minimal mode to omit files")
	}
	if len(payload.AcceptanceCriteria) != 1 {
		t.Error("Expected acceptance criteria in every mode")
	}
}

func TestExtractCompactTruncatesAndSummarizesDeps(t *testing.T) {
	payload, err := Extract(contextManifest(), "B", ModeCompact)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !strings.HasSuffix(payload.Description, "...") {
		t.Error("Expected compact mode to truncate long descriptions")
	}
	if len(payload.Description) > descriptionLimit+3 {
		t.Errorf("Expected description capped at %d, got %d", descriptionLimit, len(payload.Description))
	}

	if len(payload.Dependencies) != 1 {
		t.Fatalf("Expected one dependency summary, got %d", len(payload.Dependencies))
	}
	dep := payload.Dependencies[0]
	if dep.ID != "A" || dep.Title != "Build parser" {
		t.Errorf("Expected summary of A, got %+v", dep)
	}
	if len(dep.Files) != 2 {
		t.Errorf("Expected completed dep to list produced files, got %v", dep.Files)
	}
}

func TestExtractFull(t *testing.T) {
	payload, err := Extract(contextManifest(), "B", ModeFull)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if strings.HasSuffix(payload.Description, "...") {
		t.Error("Expected full mode to keep the whole description")
	}
	if payload.Files == nil || len(payload.Files.Modify) != 1 {
		t.Errorf("Expected full mode to include files, got %+v", payload.Files)
	}
	if payload.Validation == nil {
		t.Error("Expected full mode to include validation")
	}
}

func TestExtractDoesNotMutate(t *testing.T) {
	m := contextManifest()
	before := m.FindTask("B").Description

	if _, err := Extract(m, "B", ModeCompact); err != nil {
		t.Fatal(err)
	}
	if m.FindTask("B").Description != before {
		t.Error("Expected Extract to leave the manifest untouched")
	}
}

func TestExtractUnknownTask(t *testing.T) {
	_, err := Extract(contextManifest(), "nope", ModeFull)
	var notFound *TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected TaskNotFoundError, got %v", err)
	}
}

func TestExtractInvalidMode(t *testing.T) {
	if _, err := Extract(contextManifest(), "B", "verbose"); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestExtractIncompleteDepHasNoFiles(t *testing.T) {
	m := contextManifest()
	m.FindTask("A").Status = StatusInProgress

	payload, err := Extract(m, "B", ModeCompact)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Dependencies[0].Files) != 0 {
		t.Error("Expected no produced files for an incomplete dependency")
	}
}
