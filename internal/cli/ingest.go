package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/ledger"
	"github.com/nathanvale/vtm/internal/tasks"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [tasks-file]",
	Short: "Ingest a batch of tasks from a generated spec",
	Long: `Adds the tasks in a JSON file to the manifest and records the batch
as a ledger transaction, so the whole ingestion can be previewed and
rolled back later. The file holds either a task array or {"tasks": [...]}.

Tasks without an id get a generated one. Dependencies may reference tasks
already in the manifest or tasks in the same batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("source", "", "Source document the batch was derived from")
}

// batchFile matches both accepted input shapes.
type batchFile struct {
	Tasks []tasks.Task `json:"tasks"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")

	batch, err := readBatch(args[0])
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return fmt.Errorf("no tasks found in %s", args[0])
	}

	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	m, err := store.Load()
	if err != nil {
		return err
	}

	sources := map[string]bool{}
	var added []string
	for i := range batch {
		t := &batch[i]
		if t.ID == "" {
			t.ID = "T-" + uuid.New().String()[:8]
		}
		if m.FindTask(t.ID) != nil {
			return fmt.Errorf("task %s already exists in the manifest", t.ID)
		}
		if t.Status == "" {
			t.Status = tasks.StatusPending
		}
		if t.Status != tasks.StatusPending {
			return fmt.Errorf("ingested task %s must be pending, got %s", t.ID, t.Status)
		}
		if source != "" {
			t.Source = source
		}
		if t.Source != "" {
			sources[t.Source] = true
		}
		added = append(added, t.ID)
	}

	for _, t := range batch {
		m.UpsertTask(t)
	}

	// Integrity first: a batch that introduces a cycle or dangling
	// dependency is rejected before anything touches disk.
	if err := tasks.CheckGraph(m.Tasks); err != nil {
		return err
	}

	if err := store.Save(m); err != nil {
		return err
	}

	sourceList := make([]string, 0, len(sources))
	for src := range sources {
		sourceList = append(sourceList, src)
	}

	tx, err := ledger.New(cfg.Paths.HistoryDir, store).Record(sourceList, added)
	if err != nil {
		return fmt.Errorf("tasks added but recording the transaction failed: %w", err)
	}

	fmt.Printf("Ingested %d task(s) as transaction %s: %s\n",
		len(added), tx.ID, strings.Join(added, ", "))
	return nil
}

func readBatch(path string) ([]tasks.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}

	var list []tasks.Task
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped batchFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file %s: %w", path, err)
	}
	return wrapped.Tasks, nil
}
