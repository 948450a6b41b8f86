package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List ingestion transactions",
	RunE:  runHistory,
}

var historyDetailCmd = &cobra.Command{
	Use:   "history-detail [tx-id]",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDetail,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [tx-id]",
	Short: "Roll back an ingestion transaction",
	Long: `Removes a transaction's tasks from the manifest and flags the
transaction reverted. Fails if tasks outside the transaction depend on
tasks being removed, unless --cascade includes those dependents in the
removal or --force overrides the check (unsafe: leaves dangling
dependencies). --dry-run previews the removal set without changing
anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Number of transactions to show")
	rollbackCmd.Flags().Bool("dry-run", false, "Preview without mutating")
	rollbackCmd.Flags().Bool("cascade", false, "Also remove dependent tasks outside the transaction")
	rollbackCmd.Flags().Bool("force", false, "Skip the dependent check (unsafe)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	txs, err := ledger.New(cfg.Paths.HistoryDir, store).List(limit)
	if err != nil {
		return err
	}

	if len(txs) == 0 {
		fmt.Println("No transactions recorded.")
		return nil
	}

	fmt.Printf("Transactions (%d):\n\n", len(txs))
	for _, tx := range txs {
		flag := ""
		if tx.Reverted {
			flag = "  [reverted]"
		}
		fmt.Printf("  %s  %s  %d task(s)%s\n",
			tx.ID, tx.Timestamp.Format("2006-01-02 15:04"), len(tx.TasksAdded), flag)
		if len(tx.Sources) > 0 {
			fmt.Printf("    from: %s\n", strings.Join(tx.Sources, ", "))
		}
	}
	return nil
}

func runHistoryDetail(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	tx, err := ledger.New(cfg.Paths.HistoryDir, store).Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Transaction %s\n", tx.ID)
	fmt.Printf("  recorded:  %s\n", tx.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("  action:    %s\n", tx.Action)
	fmt.Printf("  reverted:  %v\n", tx.Reverted)
	if len(tx.Sources) > 0 {
		fmt.Printf("  sources:   %s\n", strings.Join(tx.Sources, ", "))
	}
	fmt.Printf("  tasks:\n")
	for _, id := range tx.TasksAdded {
		fmt.Printf("    %s\n", id)
	}
	return nil
}

func runRollback(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	cascade, _ := cmd.Flags().GetBool("cascade")
	force, _ := cmd.Flags().GetBool("force")

	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	l := ledger.New(cfg.Paths.HistoryDir, store)

	if dryRun {
		plan, err := l.Preview(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Would remove %d task(s): %s\n",
			len(plan.TasksToRemove), strings.Join(plan.TasksToRemove, ", "))
		if len(plan.BlockingDependents) > 0 {
			fmt.Printf("Blocked by %d dependent(s) outside the transaction: %s\n",
				len(plan.BlockingDependents), strings.Join(plan.BlockingDependents, ", "))
			fmt.Println("Re-run with --cascade to remove them too.")
		}
		return nil
	}

	plan, err := l.Rollback(args[0], ledger.RollbackOptions{Cascade: cascade, Force: force})
	if err != nil {
		return err
	}

	fmt.Printf("Rolled back %s: removed %d task(s): %s\n",
		args[0], len(plan.TasksToRemove), strings.Join(plan.TasksToRemove, ", "))
	return nil
}
