package tasks

import (
	"sort"
	"time"
)

// Task statuses. The lifecycle is pending -> in_progress -> completed,
// with blocked reachable from pending and completed terminal.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
)

// Manifest is the whole vtm.json document: project metadata, derived
// stats, and the task list. Stats is recomputed on every save and must
// never be edited independently of Tasks.
type Manifest struct {
	Version int     `json:"version"`
	Project Project `json:"project"`
	Stats   Stats   `json:"stats"`
	Tasks   []Task  `json:"tasks"`
}

// Project holds manifest-level metadata.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Stats holds counts by status, derived from Tasks.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Blocked    int `json:"blocked"`
}

// Task is the unit of work tracked by the manifest.
type Task struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description,omitempty"`
	Status             string      `json:"status"`
	Dependencies       []string    `json:"dependencies,omitempty"`
	Blocks             []string    `json:"blocks,omitempty"`
	AcceptanceCriteria []string    `json:"acceptance_criteria,omitempty"`
	Files              FileChanges `json:"files,omitempty"`
	Source             string      `json:"source,omitempty"`
	Validation         Validation  `json:"validation"`
	BlockedReason      string      `json:"blocked_reason,omitempty"`
	StartedAt          *time.Time  `json:"started_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
}

// FileChanges declares the file-system effects a task is expected to
// have. Advisory metadata only; the engine never enforces it.
type FileChanges struct {
	Create []string `json:"create,omitempty"`
	Modify []string `json:"modify,omitempty"`
	Delete []string `json:"delete,omitempty"`
}

// Validation records completion evidence for a task.
type Validation struct {
	TestsPass  bool   `json:"tests_pass"`
	ACVerified []bool `json:"ac_verified,omitempty"`
}

// NewManifest creates an empty manifest for a project.
func NewManifest(projectName string) *Manifest {
	return &Manifest{
		Version: 1,
		Project: Project{Name: projectName},
		Tasks:   []Task{},
	}
}

// FindTask finds a task by ID. Returns nil if absent.
func (m *Manifest) FindTask(id string) *Task {
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			return &m.Tasks[i]
		}
	}
	return nil
}

// UpsertTask adds or replaces a task, keyed by ID.
func (m *Manifest) UpsertTask(task Task) {
	for i := range m.Tasks {
		if m.Tasks[i].ID == task.ID {
			m.Tasks[i] = task
			return
		}
	}
	m.Tasks = append(m.Tasks, task)
}

// RemoveTask removes a task by ID. Returns false if it was not present.
func (m *Manifest) RemoveTask(id string) bool {
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			m.Tasks = append(m.Tasks[:i], m.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// TasksByStatus returns tasks with the given status, in declared order.
func (m *Manifest) TasksByStatus(status string) []Task {
	var result []Task
	for _, t := range m.Tasks {
		if t.Status == status {
			result = append(result, t)
		}
	}
	return result
}

// TasksBySource returns counts of tasks grouped by source document.
func (m *Manifest) TasksBySource() map[string]int {
	counts := make(map[string]int)
	for _, t := range m.Tasks {
		src := t.Source
		if src == "" {
			src = "(none)"
		}
		counts[src]++
	}
	return counts
}

// RecomputeStats rebuilds Stats from Tasks. Called on every save so the
// counts can never drift from the task list.
func (m *Manifest) RecomputeStats() {
	s := Stats{Total: len(m.Tasks)}
	for _, t := range m.Tasks {
		switch t.Status {
		case StatusCompleted:
			s.Completed++
		case StatusInProgress:
			s.InProgress++
		case StatusBlocked:
			s.Blocked++
		default:
			s.Pending++
		}
	}
	m.Stats = s
}

// DeriveBlocks rebuilds every task's Blocks list as the inverse of the
// dependency relation. Blocks is a read-only projection; caller-supplied
// values are discarded.
func (m *Manifest) DeriveBlocks() {
	inverse := make(map[string][]string)
	for _, t := range m.Tasks {
		for _, dep := range t.Dependencies {
			inverse[dep] = append(inverse[dep], t.ID)
		}
	}
	for i := range m.Tasks {
		blocks := inverse[m.Tasks[i].ID]
		sort.Strings(blocks)
		m.Tasks[i].Blocks = blocks
	}
}

// Dependents returns the ids of tasks that directly depend on id.
func (m *Manifest) Dependents(id string) []string {
	var result []string
	for _, t := range m.Tasks {
		for _, dep := range t.Dependencies {
			if dep == id {
				result = append(result, t.ID)
				break
			}
		}
	}
	return result
}
