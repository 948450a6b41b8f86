package tasks

import "fmt"

// Context modes control how much of a task is projected.
const (
	ModeMinimal = "minimal"
	ModeCompact = "compact"
	ModeFull    = "full"
)

// descriptionLimit caps description length in compact mode.
const descriptionLimit = 280

// ContextPayload is a read-only projection of a task and its resolved
// dependency chain, sized so a downstream consumer does not need to
// re-read the whole manifest.
type ContextPayload struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Status             string       `json:"status"`
	Description        string       `json:"description,omitempty"`
	AcceptanceCriteria []string     `json:"acceptance_criteria,omitempty"`
	Files              *FileChanges `json:"files,omitempty"`
	Source             string       `json:"source,omitempty"`
	Dependencies       []DepSummary `json:"dependencies,omitempty"`
	Validation         *Validation  `json:"validation,omitempty"`
}

// DepSummary summarizes one completed dependency: enough to know what
// it produced without loading it.
type DepSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
}

// Extract builds the context payload for a task. Purely a projection;
// never mutates the manifest.
func Extract(m *Manifest, id, mode string) (*ContextPayload, error) {
	switch mode {
	case ModeMinimal, ModeCompact, ModeFull:
	default:
		return nil, fmt.Errorf("invalid context mode %q (want minimal, compact, or full)", mode)
	}

	task := m.FindTask(id)
	if task == nil {
		return nil, &TaskNotFoundError{ID: id}
	}

	payload := &ContextPayload{
		ID:                 task.ID,
		Title:              task.Title,
		Status:             task.Status,
		AcceptanceCriteria: task.AcceptanceCriteria,
	}

	if mode != ModeMinimal {
		payload.Description = truncate(task.Description, descriptionLimit, mode)
		payload.Source = task.Source
		payload.Dependencies = depSummaries(m, task)
	}

	if mode == ModeFull {
		files := task.Files
		payload.Files = &files
		validation := task.Validation
		payload.Validation = &validation
	}

	return payload, nil
}

func depSummaries(m *Manifest, task *Task) []DepSummary {
	var summaries []DepSummary
	for _, depID := range task.Dependencies {
		dep := m.FindTask(depID)
		if dep == nil {
			continue
		}
		summary := DepSummary{ID: dep.ID, Title: dep.Title, Status: dep.Status}
		if dep.Status == StatusCompleted {
			summary.Files = append(summary.Files, dep.Files.Create...)
			summary.Files = append(summary.Files, dep.Files.Modify...)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func truncate(s string, limit int, mode string) string {
	if mode == ModeFull || len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
