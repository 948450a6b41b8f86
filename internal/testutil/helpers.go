// Package testutil provides isolated environments for tests that touch
// the filesystem or the process working directory.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// ProjectEnv is an isolated project directory with a mocked HOME, so
// config loading never picks up the developer's real ~/.vtm.
type ProjectEnv struct {
	Home       string
	ProjectDir string
	t          *testing.T
}

// SetupProject creates temp HOME and project directories and makes the
// project directory the working directory for the duration of the test.
func SetupProject(t *testing.T) *ProjectEnv {
	t.Helper()

	env := &ProjectEnv{
		Home:       t.TempDir(),
		ProjectDir: t.TempDir(),
		t:          t,
	}

	t.Setenv("HOME", env.Home)

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(env.ProjectDir); err != nil {
		t.Fatalf("Failed to enter project directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	return env
}

// WriteJSON marshals v into a file under the project directory and
// returns the path.
func (e *ProjectEnv) WriteJSON(name string, v interface{}) string {
	e.t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		e.t.Fatalf("Failed to marshal %s: %v", name, err)
	}

	path := filepath.Join(e.ProjectDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		e.t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// WriteFile writes raw content under the project directory.
func (e *ProjectEnv) WriteFile(name, content string) string {
	e.t.Helper()

	path := filepath.Join(e.ProjectDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}
