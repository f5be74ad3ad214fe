package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("version = %d, want 1", cfg.Version)
	}
	if cfg.Matching.NameSimilarityCutoff != 0.6 {
		t.Errorf("name similarity cutoff = %v, want 0.6", cfg.Matching.NameSimilarityCutoff)
	}
	if cfg.Matching.TimeToleranceSeconds != 2.0 {
		t.Errorf("time tolerance = %v, want 2.0", cfg.Matching.TimeToleranceSeconds)
	}
	if cfg.Matching.WeeklySecondsWindow != 86400.0 {
		t.Errorf("weekly seconds window = %v, want 86400", cfg.Matching.WeeklySecondsWindow)
	}
	if cfg.Monitor.PollIntervalMs != 2000 || cfg.Monitor.DebounceMs != 1000 {
		t.Errorf("monitor timing = %d/%d", cfg.Monitor.PollIntervalMs, cfg.Monitor.DebounceMs)
	}
	if cfg.Logging.Format != "human" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Matching.NameSimilarityCutoff != 0.6 {
		t.Errorf("expected defaults, got cutoff %v", cfg.Matching.NameSimilarityCutoff)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Matching.NameSimilarityCutoff = 0.8
	cfg.Monitor.PollIntervalMs = 500
	cfg.Monitor.IgnorePatterns = []string{"*.bak"}
	cfg.Actions.AutoProcess = true
	cfg.Logging.Level = "debug"

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".kluster", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Matching.NameSimilarityCutoff != 0.8 {
		t.Errorf("cutoff = %v, want 0.8", loaded.Matching.NameSimilarityCutoff)
	}
	if loaded.Monitor.PollIntervalMs != 500 {
		t.Errorf("poll interval = %d, want 500", loaded.Monitor.PollIntervalMs)
	}
	if len(loaded.Monitor.IgnorePatterns) != 1 || loaded.Monitor.IgnorePatterns[0] != "*.bak" {
		t.Errorf("ignore patterns = %v", loaded.Monitor.IgnorePatterns)
	}
	if !loaded.Actions.AutoProcess {
		t.Error("auto process not preserved")
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", loaded.Logging.Level)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".kluster")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	partial := `{"matching": {"nameSimilarityCutoff": 0.75}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Matching.NameSimilarityCutoff != 0.75 {
		t.Errorf("cutoff = %v, want 0.75", cfg.Matching.NameSimilarityCutoff)
	}
	// Untouched sections keep their defaults
	if cfg.Matching.TimeToleranceSeconds != 2.0 {
		t.Errorf("time tolerance = %v, want default 2.0", cfg.Matching.TimeToleranceSeconds)
	}
	if cfg.Monitor.PollIntervalMs != 2000 {
		t.Errorf("poll interval = %d, want default 2000", cfg.Monitor.PollIntervalMs)
	}
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".kluster")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(root); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
