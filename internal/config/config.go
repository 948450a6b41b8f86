// Package config loads vtm configuration, merging defaults with the
// global (~/.vtm/config.yaml) and project (./.vtm/config.yaml) files.
// Project values override global ones.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
	Paths    Paths  `mapstructure:"paths" yaml:"paths"`
	Context  struct {
		// DefaultMode is used when --mode is not given.
		DefaultMode string `mapstructure:"default_mode" yaml:"default_mode"`
	} `mapstructure:"context" yaml:"context"`
	Next struct {
		// Limit caps how many ready tasks 'next' prints by default.
		Limit int `mapstructure:"limit" yaml:"limit"`
	} `mapstructure:"next" yaml:"next"`
}

// Paths locates the ledger and cache stores.
type Paths struct {
	HistoryDir string `mapstructure:"history_dir" yaml:"history_dir"`
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// DefaultConfig returns the built-in defaults, rooted at the current
// directory.
func DefaultConfig() *Config {
	cfg := &Config{
		Manifest: "vtm.json",
		Paths: Paths{
			HistoryDir: filepath.Join(".vtm", "history"),
			CacheDir:   filepath.Join(".vtm", "cache"),
		},
	}
	cfg.Context.DefaultMode = "compact"
	cfg.Next.Limit = 5
	return cfg
}

// Load merges defaults, global config, and project config.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		loadFile(filepath.Join(home, ".vtm", "config.yaml"), cfg)
	}

	if cwd, err := os.Getwd(); err == nil {
		loadFile(filepath.Join(cwd, ".vtm", "config.yaml"), cfg)
	}

	return cfg, nil
}

// loadFile merges one config file into cfg. Missing files are fine;
// unreadable ones are skipped so a bad global config never bricks the
// CLI.
func loadFile(path string, cfg *Config) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return
	}
	v.Unmarshal(cfg)
}

// ProjectConfigPath returns the project config file location.
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".vtm", "config.yaml")
}
