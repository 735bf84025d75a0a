package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencode-ai/cradle/internal/models"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if _, ok := cfg.StrictOverride(); ok {
		t.Fatal("default config should not override strict mode")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `logging:
  level: DEBUG
  format: json
story:
  dirs: [stories]
  start: Cellar
  strict: "on"
journal:
  enabled: true
  path: journal.db
listeners:
  scripts: [hooks.lua]
playback:
  tick_interval: 250ms
tui:
  theme: high-contrast
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Story.Start != "Cellar" || len(cfg.Story.Dirs) != 1 {
		t.Fatalf("unexpected story config: %+v", cfg.Story)
	}
	if strict, ok := cfg.StrictOverride(); !ok || !strict {
		t.Fatalf("expected strict override on, got %v %v", strict, ok)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != "journal.db" {
		t.Fatalf("unexpected journal config: %+v", cfg.Journal)
	}
	if cfg.Playback.TickInterval != 250*time.Millisecond {
		t.Fatalf("unexpected tick interval %v", cfg.Playback.TickInterval)
	}
	if cfg.TUI.Theme != "high-contrast" {
		t.Fatalf("unexpected theme %q", cfg.TUI.Theme)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CRADLE_LOGGING_LEVEL", "warn")
	t.Setenv("CRADLE_STORY_STRICT", "off")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env level warn, got %q", cfg.Logging.Level)
	}
	if strict, ok := cfg.StrictOverride(); !ok || strict {
		t.Fatalf("expected strict override off, got %v %v", strict, ok)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.Story.Strict = "maybe"
	cfg.Journal.Enabled = true
	cfg.Journal.Path = ""
	cfg.Listeners.Scripts = []string{"hooks.py"}
	cfg.Playback.TickInterval = 0
	cfg.TUI.Theme = "neon"

	err := cfg.Validate()
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *models.ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verr.Errors) != 7 {
		t.Fatalf("expected 7 errors, got %d: %v", len(verr.Errors), err)
	}
}
