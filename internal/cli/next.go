package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/tasks"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show tasks that are ready to start",
	Long: `Lists pending tasks whose every dependency is completed, in the order
they are declared in the manifest.`,
	RunE: runNext,
}

func init() {
	nextCmd.Flags().Int("limit", 0, "Maximum number of tasks to show (0 = config default)")
}

func runNext(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Next.Limit
	}

	m, err := store.Load()
	if err != nil {
		return err
	}

	ready, blocked, err := tasks.Ready(m.Tasks)
	if err != nil {
		return err
	}

	if len(ready) == 0 {
		fmt.Println("No tasks ready.")
		if len(blocked) > 0 {
			fmt.Printf("%d pending task(s) are waiting on dependencies.\n", len(blocked))
		}
		return nil
	}

	shown := ready
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	fmt.Printf("Ready tasks (%d of %d):\n\n", len(shown), len(ready))
	for _, t := range shown {
		printTaskLine(t)
	}
	return nil
}

func printTaskLine(t tasks.Task) {
	fmt.Printf("  %-10s %s\n", t.ID, t.Title)
	if len(t.Blocks) > 0 {
		fmt.Printf("             unblocks: %s\n", strings.Join(t.Blocks, ", "))
	}
}
