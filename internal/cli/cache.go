package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/cache"
	"github.com/nathanvale/vtm/internal/config"
)

var cacheStatsCmd = &cobra.Command{
	Use:   "cache-stats",
	Short: "Show research cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear",
	Short: "Evict research cache entries",
	RunE:  runCacheClear,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "cache-refresh",
	Short: "Evict expired research cache entries",
	RunE:  runCacheRefresh,
}

func init() {
	cacheClearCmd.Flags().Int("older-than-days", 0, "Only evict entries older than N days (0 = all)")
	cacheClearCmd.Flags().Bool("confirm", false, "Required to actually clear")
	cacheRefreshCmd.Flags().Int("age-days", 0, "Also evict entries older than N days")
}

func openCache() (*cache.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Paths.CacheDir), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.CollectStats()
	if err != nil {
		return err
	}

	fmt.Printf("Research cache (%s):\n", c.Dir())
	fmt.Printf("  entries   %d\n", stats.Entries)
	fmt.Printf("  expired   %d\n", stats.Expired)
	fmt.Printf("  size      %.1f KiB\n", float64(stats.SizeBytes)/1024)
	if stats.Accounting {
		total := stats.Hits + stats.Misses
		rate := 0.0
		if total > 0 {
			rate = 100 * float64(stats.Hits) / float64(total)
		}
		fmt.Printf("  hits      %d\n", stats.Hits)
		fmt.Printf("  misses    %d\n", stats.Misses)
		fmt.Printf("  hit rate  %.1f%%\n", rate)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetInt("older-than-days")
	confirm, _ := cmd.Flags().GetBool("confirm")

	if !confirm {
		return fmt.Errorf("cache-clear is destructive; re-run with --confirm")
	}

	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	removed, err := c.Clear(olderThan)
	if err != nil {
		return err
	}

	fmt.Printf("Evicted %d cache entr%s.\n", removed, plural(removed, "y", "ies"))
	return nil
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	ageDays, _ := cmd.Flags().GetInt("age-days")

	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	removed, err := c.Refresh(ageDays)
	if err != nil {
		return err
	}

	fmt.Printf("Evicted %d stale cache entr%s.\n", removed, plural(removed, "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
