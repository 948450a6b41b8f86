package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nathanvale/vtm/internal/config"
	"github.com/nathanvale/vtm/internal/tasks"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize a task manifest in the current directory",
	Long: `Creates vtm.json, the .vtm/ directory tree (history and cache), and a
default .vtm/config.yaml. Refuses to overwrite an existing manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	name := filepath.Base(cwd)
	if len(args) > 0 {
		name = args[0]
	}

	cfg := config.DefaultConfig()
	store := tasks.NewFileStore(cfg.Manifest)
	if store.Exists() {
		return fmt.Errorf("%s already exists", cfg.Manifest)
	}

	if err := store.Save(tasks.NewManifest(name)); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", cfg.Manifest)

	for _, dir := range []string{cfg.Paths.HistoryDir, cfg.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	configPath := config.ProjectConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Created %s\n", configPath)
	}

	fmt.Println("\nNext: 'vtm ingest tasks.json --source <spec>' to add tasks.")
	return nil
}
