package cli

import (
	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/config"
	"github.com/nathanvale/vtm/internal/tasks"
)

var (
	verbose bool
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "vtm",
		Short: "VTM - versioned task manifest",
		Long: `VTM drives an incremental development workflow from a single JSON
task manifest: tasks carry dependencies, acceptance criteria, and declared
file effects. VTM surfaces which tasks are ready, extracts per-task context,
records status transitions, and keeps an auditable ingestion ledger with
rollback.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

var commandsRegistered bool

// Execute runs the root command and returns the error for exit-code
// mapping in main.
func Execute(version string) error {
	registerCommands()
	rootCmd.Version = version
	return rootCmd.Execute()
}

// registerCommands wires subcommands exactly once, so tests can drive
// Execute repeatedly in one process.
func registerCommands() {
	if commandsRegistered {
		return
	}
	commandsRegistered = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(historyDetailCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheRefreshCmd)
}

// openStore loads config and returns the manifest store for this
// invocation.
func openStore() (*config.Config, *tasks.FileStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, tasks.NewFileStore(cfg.Manifest), nil
}
