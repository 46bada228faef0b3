package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("returns paths based on home directory", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Dir == "" {
			t.Error("Dir should not be empty")
		}
		if filepath.Base(paths.Dir) != "regkit" || filepath.Base(filepath.Dir(paths.Dir)) != ".config" {
			t.Errorf("Dir should end with .config/regkit, got: %s", paths.Dir)
		}
		if paths.Config != filepath.Join(paths.Dir, "config.yaml") {
			t.Errorf("Config path incorrect: got %s", paths.Config)
		}
		if paths.Traces != filepath.Join(paths.Dir, "traces", "traces.jsonl") {
			t.Errorf("Traces path incorrect: got %s", paths.Traces)
		}
	})

	t.Run("respects REGKIT_CONFIG_DIR environment variable", func(t *testing.T) {
		customDir := "/custom/regkit/path"
		t.Setenv(EnvConfigDir, customDir)

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Dir != customDir {
			t.Errorf("Expected dir %s, got %s", customDir, paths.Dir)
		}
		if paths.Config != filepath.Join(customDir, "config.yaml") {
			t.Errorf("Config path should use custom dir, got %s", paths.Config)
		}
	})
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{Dir: filepath.Join(tmpDir, "nested", "regkit")}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	info, err := os.Stat(paths.Dir)
	if err != nil {
		t.Fatalf("directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", paths.Dir)
	}

	// Idempotent
	if err := paths.EnsureDirectories(); err != nil {
		t.Errorf("second EnsureDirectories failed: %v", err)
	}
}
