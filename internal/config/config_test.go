package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Manifest != "vtm.json" {
		t.Errorf("Expected default manifest vtm.json, got %q", cfg.Manifest)
	}
	if cfg.Paths.HistoryDir != filepath.Join(".vtm", "history") {
		t.Errorf("Unexpected history dir: %q", cfg.Paths.HistoryDir)
	}
	if cfg.Context.DefaultMode != "compact" {
		t.Errorf("Expected compact default mode, got %q", cfg.Context.DefaultMode)
	}
}

func TestLoadMergesProjectOverGlobal(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	writeConfig(t, home, "manifest: global.json\ncontext:\n  default_mode: minimal\n")
	writeConfig(t, project, "manifest: project.json\n")

	orig, _ := os.Getwd()
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(orig)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Manifest != "project.json" {
		t.Errorf("Expected project config to win, got %q", cfg.Manifest)
	}
	if cfg.Context.DefaultMode != "minimal" {
		t.Errorf("Expected global setting to survive merge, got %q", cfg.Context.DefaultMode)
	}
	// Untouched keys keep their defaults.
	if cfg.Next.Limit != 5 {
		t.Errorf("Expected default next limit, got %d", cfg.Next.Limit)
	}
}

func TestLoadToleratesUnreadableConfig(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	writeConfig(t, project, ": not yaml at all {{{")

	orig, _ := os.Getwd()
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(orig)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected bad config to be skipped, got %v", err)
	}
	if cfg.Manifest != "vtm.json" {
		t.Errorf("Expected defaults when config is unreadable, got %q", cfg.Manifest)
	}
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ".vtm")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
