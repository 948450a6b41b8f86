package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/tasks"
)

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start a task",
	Long: `Marks a pending task in_progress. The task's dependencies must all be
completed unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().Bool("force", false, "Start even if the task is not ready")
}

func runStart(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	_, store, err := openStore()
	if err != nil {
		return err
	}

	task, err := tasks.NewMutator(store).Start(args[0], force)
	if err != nil {
		return err
	}

	fmt.Printf("Started %s: %s\n", task.ID, task.Title)
	return nil
}
