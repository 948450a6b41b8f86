package tasks

import (
	"fmt"
	"time"
)

// Mutator applies status transitions to the manifest. Every mutation is
// a single load -> mutate -> atomic save cycle; nothing is written when
// a precondition or integrity check fails.
type Mutator struct {
	store Store
	// now is swappable for tests.
	now func() time.Time
}

// NewMutator creates a Mutator over the given store.
func NewMutator(store Store) *Mutator {
	return &Mutator{store: store, now: time.Now}
}

// Evidence is the completion proof supplied by the caller.
type Evidence struct {
	TestsPass  bool   `yaml:"tests_pass" json:"tests_pass"`
	ACVerified []bool `yaml:"ac_verified" json:"ac_verified"`
}

// Start transitions a task from pending to in_progress. Without force
// the task must be pending and every dependency completed.
func (mu *Mutator) Start(id string, force bool) (*Task, error) {
	m, err := mu.store.Load()
	if err != nil {
		return nil, err
	}
	if err := CheckGraph(m.Tasks); err != nil {
		return nil, err
	}

	task := m.FindTask(id)
	if task == nil {
		return nil, &TaskNotFoundError{ID: id}
	}

	if !force {
		if task.Status != StatusPending {
			return nil, &NotReadyError{ID: id, Status: task.Status}
		}
		if waiting := IncompleteDeps(m, task); len(waiting) > 0 {
			return nil, &NotReadyError{ID: id, Status: task.Status, Waiting: waiting}
		}
	}

	now := mu.now()
	task.Status = StatusInProgress
	task.StartedAt = &now

	if err := mu.store.Save(m); err != nil {
		return nil, err
	}
	return task, nil
}

// Complete transitions a task from in_progress to completed and returns
// the tasks that became ready as a result, so the caller can surface
// them without a second read.
//
// Without force the task must be in_progress, evidence.TestsPass must be
// true, and every acceptance criterion must be marked verified.
func (mu *Mutator) Complete(id string, evidence Evidence, force bool) (*Task, []Task, error) {
	m, err := mu.store.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := CheckGraph(m.Tasks); err != nil {
		return nil, nil, err
	}

	task := m.FindTask(id)
	if task == nil {
		return nil, nil, &TaskNotFoundError{ID: id}
	}

	if !force {
		if task.Status != StatusInProgress {
			return nil, nil, &ValidationIncompleteError{
				ID:     id,
				Reason: fmt.Sprintf("status is %s, expected %s", task.Status, StatusInProgress),
			}
		}
		if err := checkEvidence(task, evidence); err != nil {
			return nil, nil, err
		}
	}

	readyBefore := readyIDs(m.Tasks)

	now := mu.now()
	task.Status = StatusCompleted
	task.CompletedAt = &now
	task.Validation = Validation{TestsPass: evidence.TestsPass, ACVerified: evidence.ACVerified}

	if err := mu.store.Save(m); err != nil {
		return nil, nil, err
	}

	var newlyReady []Task
	ready, _, err := Ready(m.Tasks)
	if err != nil {
		return task, nil, err
	}
	for _, r := range ready {
		if !readyBefore[r.ID] {
			newlyReady = append(newlyReady, r)
		}
	}
	return task, newlyReady, nil
}

// Reset returns a task to pending, clearing timestamps and validation.
// Completed is terminal: re-opening a completed task requires force.
func (mu *Mutator) Reset(id string, force bool) (*Task, error) {
	m, err := mu.store.Load()
	if err != nil {
		return nil, err
	}

	task := m.FindTask(id)
	if task == nil {
		return nil, &TaskNotFoundError{ID: id}
	}

	if task.Status == StatusCompleted && !force {
		return nil, &ValidationIncompleteError{
			ID:     id,
			Reason: "task is completed; re-opening requires --force",
		}
	}

	task.Status = StatusPending
	task.StartedAt = nil
	task.CompletedAt = nil
	task.Validation = Validation{}
	task.BlockedReason = ""

	if err := mu.store.Save(m); err != nil {
		return nil, err
	}
	return task, nil
}

// Block marks a pending task blocked with a reason note.
func (mu *Mutator) Block(id, reason string) (*Task, error) {
	m, err := mu.store.Load()
	if err != nil {
		return nil, err
	}

	task := m.FindTask(id)
	if task == nil {
		return nil, &TaskNotFoundError{ID: id}
	}
	if task.Status != StatusPending {
		return nil, &NotReadyError{ID: id, Status: task.Status}
	}

	task.Status = StatusBlocked
	task.BlockedReason = reason

	if err := mu.store.Save(m); err != nil {
		return nil, err
	}
	return task, nil
}

func checkEvidence(task *Task, evidence Evidence) error {
	if !evidence.TestsPass {
		return &ValidationIncompleteError{ID: task.ID, Reason: "tests_pass is false"}
	}
	if len(evidence.ACVerified) < len(task.AcceptanceCriteria) {
		return &ValidationIncompleteError{
			ID: task.ID,
			Reason: fmt.Sprintf("%d of %d acceptance criteria verified",
				countTrue(evidence.ACVerified), len(task.AcceptanceCriteria)),
		}
	}
	for i, ok := range evidence.ACVerified {
		if !ok {
			return &ValidationIncompleteError{
				ID:     task.ID,
				Reason: fmt.Sprintf("acceptance criterion %d not verified", i+1),
			}
		}
	}
	return nil
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// readyIDs returns the set of currently-ready task ids, ignoring graph
// errors (callers run CheckGraph first).
func readyIDs(all []Task) map[string]bool {
	set := make(map[string]bool)
	ready, _, err := Ready(all)
	if err != nil {
		return set
	}
	for _, t := range ready {
		set[t.ID] = true
	}
	return set
}
