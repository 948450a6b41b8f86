package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/tasks"
)

var contextCmd = &cobra.Command{
	Use:   "context [task-id]",
	Short: "Extract a task's context payload",
	Long: `Projects a task plus a summary of its completed dependencies into a
JSON payload, sized by --mode (minimal, compact, full).`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().String("mode", "", "Verbosity: minimal, compact, or full (default from config)")
}

func runContext(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	if mode == "" {
		mode = cfg.Context.DefaultMode
	}

	m, err := store.Load()
	if err != nil {
		return err
	}

	payload, err := tasks.Extract(m, args[0], mode)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
