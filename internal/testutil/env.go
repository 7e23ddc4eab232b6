// Package testutil provides utilities for testing rigup in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates an isolated state directory for each test and points
// RIGUP_DIR at it, so tests never touch the user's real cache, keyrings, or
// run journals. Cleanup is handled by t.TempDir(). Returns the state dir.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	stateDir := filepath.Join(tmpDir, "rigup")

	t.Setenv("RIGUP_DIR", stateDir)
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	dirs := []string{
		stateDir,
		filepath.Join(stateDir, "cache", "downloads"),
		filepath.Join(stateDir, "keyrings"),
		filepath.Join(stateDir, "runs"),
		filepath.Join(tmpDir, "home"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return stateDir
}
