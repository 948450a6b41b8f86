// Package ledger records task ingestion batches as transactions and
// supports previewing and rolling them back.
//
// The history file (.vtm/history/transactions.json) is append-only:
// rolled-back transactions are flagged reverted, never deleted, so the
// audit trail stays complete. Transactions are independent records, not
// a stack — any transaction may be rolled back regardless of later
// ones, constrained only by the live dependency graph at rollback time.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nathanvale/vtm/internal/tasks"
)

// Transaction is an immutable ledger entry for one ingestion batch.
type Transaction struct {
	ID         string    `json:"id"`
	Sources    []string  `json:"sources"`
	Timestamp  time.Time `json:"timestamp"`
	TasksAdded []string  `json:"tasks_added"`
	Action     string    `json:"action"`
	Reverted   bool      `json:"reverted"`
}

// RollbackPlan is the dry-run result of a rollback: what would be
// removed and what stands in the way.
type RollbackPlan struct {
	TasksToRemove      []string `json:"tasks_to_remove"`
	BlockingDependents []string `json:"blocking_dependents"`
}

// RollbackOptions control rollback behavior. Cascade includes
// dependents transitively in the removal set; Force skips the dependent
// check entirely and can leave dangling dependencies behind.
type RollbackOptions struct {
	Cascade bool
	Force   bool
}

// TxNotFoundError reports an unknown transaction id.
type TxNotFoundError struct {
	ID string
}

func (e *TxNotFoundError) Error() string {
	return fmt.Sprintf("transaction not found: %s", e.ID)
}

// BlockedByDependentsError reports a rollback that would strand tasks
// outside the transaction.
type BlockedByDependentsError struct {
	TxID       string
	Dependents []string
}

func (e *BlockedByDependentsError) Error() string {
	return fmt.Sprintf("rollback of %s blocked: %d task(s) outside the transaction depend on its tasks (use --cascade to remove them too)",
		e.TxID, len(e.Dependents))
}

// AlreadyRevertedError reports a rollback of a transaction that was
// already rolled back.
type AlreadyRevertedError struct {
	ID string
}

func (e *AlreadyRevertedError) Error() string {
	return fmt.Sprintf("transaction %s is already reverted", e.ID)
}

// Ledger owns the history file. Manifest access goes through the task
// store; the ledger never edits the manifest file itself.
type Ledger struct {
	path  string
	store tasks.Store
	now   func() time.Time
}

// New creates a Ledger writing to historyDir/transactions.json.
func New(historyDir string, store tasks.Store) *Ledger {
	return &Ledger{
		path:  filepath.Join(historyDir, "transactions.json"),
		store: store,
		now:   time.Now,
	}
}

// Path returns the history file path.
func (l *Ledger) Path() string {
	return l.path
}

// Record appends a transaction for a batch of newly added tasks and
// returns it. IDs are date + incrementing sequence (20060102-001),
// collision-checked against existing entries.
func (l *Ledger) Record(sources, taskIDs []string) (*Transaction, error) {
	txs, err := l.load()
	if err != nil {
		return nil, err
	}

	tx := Transaction{
		ID:         l.nextID(txs),
		Sources:    sources,
		Timestamp:  l.now(),
		TasksAdded: taskIDs,
		Action:     "ingest",
	}

	txs = append(txs, tx)
	if err := l.save(txs); err != nil {
		return nil, err
	}
	return &tx, nil
}

// List returns transactions, newest first, capped at limit (0 = all).
func (l *Ledger) List(limit int) ([]Transaction, error) {
	txs, err := l.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID > txs[j].ID })
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// Get returns one transaction by id.
func (l *Ledger) Get(id string) (*Transaction, error) {
	txs, err := l.load()
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ID == id {
			return &txs[i], nil
		}
	}
	return nil, &TxNotFoundError{ID: id}
}

// Preview computes what a rollback would remove without mutating
// anything: the transaction's tasks still present in the manifest, plus
// the tasks outside the transaction that depend on them (transitively).
func (l *Ledger) Preview(txID string) (*RollbackPlan, error) {
	tx, err := l.Get(txID)
	if err != nil {
		return nil, err
	}

	m, err := l.store.Load()
	if err != nil {
		return nil, err
	}

	return buildPlan(m, tx), nil
}

// Rollback removes a transaction's tasks from the manifest and marks
// the transaction reverted. Without Cascade it fails when tasks outside
// the transaction depend on tasks being removed; Cascade widens the
// removal set to include them transitively; Force skips the check.
//
// The manifest is saved before the ledger entry is flagged, so a crash
// between the two writes leaves the manifest authoritative and the
// retry idempotent.
func (l *Ledger) Rollback(txID string, opts RollbackOptions) (*RollbackPlan, error) {
	txs, err := l.load()
	if err != nil {
		return nil, err
	}

	var tx *Transaction
	for i := range txs {
		if txs[i].ID == txID {
			tx = &txs[i]
			break
		}
	}
	if tx == nil {
		return nil, &TxNotFoundError{ID: txID}
	}
	if tx.Reverted {
		return nil, &AlreadyRevertedError{ID: txID}
	}

	m, err := l.store.Load()
	if err != nil {
		return nil, err
	}
	if err := tasks.CheckGraph(m.Tasks); err != nil {
		return nil, err
	}

	plan := buildPlan(m, tx)

	removal := plan.TasksToRemove
	if len(plan.BlockingDependents) > 0 {
		switch {
		case opts.Cascade:
			removal = append(removal, plan.BlockingDependents...)
		case opts.Force:
			// Unsafe: dependents keep dangling references.
		default:
			return nil, &BlockedByDependentsError{TxID: txID, Dependents: plan.BlockingDependents}
		}
	}

	for _, id := range removal {
		m.RemoveTask(id)
	}
	if err := l.store.Save(m); err != nil {
		return nil, err
	}

	tx.Reverted = true
	if err := l.save(txs); err != nil {
		return nil, fmt.Errorf("manifest updated but marking transaction reverted failed (safe to retry): %w", err)
	}

	plan.TasksToRemove = removal
	return plan, nil
}

// buildPlan collects the transaction's live tasks and every task outside
// the transaction that transitively depends on them.
func buildPlan(m *tasks.Manifest, tx *Transaction) *RollbackPlan {
	inTx := make(map[string]bool, len(tx.TasksAdded))
	var toRemove []string
	for _, id := range tx.TasksAdded {
		inTx[id] = true
		if m.FindTask(id) != nil {
			toRemove = append(toRemove, id)
		}
	}

	// BFS over the inverse dependency relation.
	doomed := make(map[string]bool, len(toRemove))
	queue := append([]string(nil), toRemove...)
	for _, id := range toRemove {
		doomed[id] = true
	}
	var dependents []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range m.Dependents(id) {
			if doomed[dep] {
				continue
			}
			doomed[dep] = true
			if !inTx[dep] {
				dependents = append(dependents, dep)
			}
			queue = append(queue, dep)
		}
	}

	sort.Strings(dependents)
	return &RollbackPlan{TasksToRemove: toRemove, BlockingDependents: dependents}
}

// nextID generates the next date+sequence id, collision-checked.
func (l *Ledger) nextID(existing []Transaction) string {
	date := l.now().Format("20060102")
	used := make(map[string]bool, len(existing))
	for _, tx := range existing {
		used[tx.ID] = true
	}
	for seq := 1; ; seq++ {
		id := fmt.Sprintf("%s-%03d", date, seq)
		if !used[id] {
			return id
		}
	}
}

func (l *Ledger) load() ([]Transaction, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", l.path, err)
	}
	return txs, nil
}

// save writes the full transaction list atomically, same temp-then-
// rename discipline as the manifest store.
func (l *Ledger) save(txs []Transaction) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	data = append(data, '\n')

	tmpPath := l.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync history: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close history: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename history: %w", err)
	}
	return nil
}
