package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/tasks"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts by status and source",
	RunE:  runStats,
}

var resetCmd = &cobra.Command{
	Use:   "reset [task-id]",
	Short: "Return a task to pending",
	Long: `Resets a task to pending, clearing its timestamps and validation.
Completed tasks are terminal; re-opening one requires --force.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

var blockCmd = &cobra.Command{
	Use:   "block [task-id]",
	Short: "Mark a pending task blocked",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlock,
}

func init() {
	resetCmd.Flags().Bool("force", false, "Allow re-opening a completed task")
	blockCmd.Flags().String("reason", "", "Why the task is blocked")
}

func runStats(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	m, err := store.Load()
	if err != nil {
		return err
	}
	m.RecomputeStats()

	s := m.Stats
	fmt.Printf("Project: %s\n\n", m.Project.Name)
	fmt.Printf("  total        %d\n", s.Total)
	fmt.Printf("  pending      %d\n", s.Pending)
	fmt.Printf("  in_progress  %d\n", s.InProgress)
	fmt.Printf("  completed    %d\n", s.Completed)
	fmt.Printf("  blocked      %d\n", s.Blocked)

	bySource := m.TasksBySource()
	if len(bySource) > 0 {
		sources := make([]string, 0, len(bySource))
		for src := range bySource {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		fmt.Printf("\nBy source:\n")
		for _, src := range sources {
			fmt.Printf("  %-40s %d\n", src, bySource[src])
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	_, store, err := openStore()
	if err != nil {
		return err
	}

	task, err := tasks.NewMutator(store).Reset(args[0], force)
	if err != nil {
		return err
	}

	fmt.Printf("Reset %s to pending.\n", task.ID)
	return nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")

	_, store, err := openStore()
	if err != nil {
		return err
	}

	task, err := tasks.NewMutator(store).Block(args[0], reason)
	if err != nil {
		return err
	}

	fmt.Printf("Blocked %s.\n", task.ID)
	return nil
}
