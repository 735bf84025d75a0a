// Package config loads cradle settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/opencode-ai/cradle/internal/models"
)

// EnvPrefix prefixes environment overrides, e.g. CRADLE_LOGGING_LEVEL.
const EnvPrefix = "CRADLE"

// Strict mode overrides.
const (
	StrictFromStory = "story"
	StrictOn        = "on"
	StrictOff       = "off"
)

// Config is the full application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Story     StoryConfig     `mapstructure:"story"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Listeners ListenersConfig `mapstructure:"listeners"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoryConfig controls story discovery and start-up.
type StoryConfig struct {
	// Dirs are searched before the standard story locations.
	Dirs []string `mapstructure:"dirs"`

	// Start overrides the story's start passage.
	Start string `mapstructure:"start"`

	// Strict is one of story, on or off.
	Strict string `mapstructure:"strict"`
}

// JournalConfig controls the SQLite playback journal.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	IncludeOutput bool   `mapstructure:"include_output"`
}

// ListenersConfig lists Lua listener scripts.
type ListenersConfig struct {
	Scripts []string `mapstructure:"scripts"`
}

// PlaybackConfig controls the host loop.
type PlaybackConfig struct {
	// TickInterval is how often the host calls Update.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// TUIConfig controls the terminal UI.
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Story: StoryConfig{
			Strict: StrictFromStory,
		},
		Journal: JournalConfig{
			Path: filepath.Join(DefaultDir(), "journal.db"),
		},
		Playback: PlaybackConfig{
			TickInterval: 100 * time.Millisecond,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// DefaultDir is the per-user configuration directory.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cradle")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "cradle")
	}
	return ".cradle"
}

// Load reads configuration. An explicit path must exist; without one the
// default locations are tried and a missing file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".cradle")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("story.dirs", cfg.Story.Dirs)
	v.SetDefault("story.start", cfg.Story.Start)
	v.SetDefault("story.strict", cfg.Story.Strict)
	v.SetDefault("journal.enabled", cfg.Journal.Enabled)
	v.SetDefault("journal.path", cfg.Journal.Path)
	v.SetDefault("journal.include_output", cfg.Journal.IncludeOutput)
	v.SetDefault("listeners.scripts", cfg.Listeners.Scripts)
	v.SetDefault("playback.tick_interval", cfg.Playback.TickInterval)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Story.Start = strings.TrimSpace(c.Story.Start)
	c.Story.Strict = strings.ToLower(strings.TrimSpace(c.Story.Strict))
	if c.Story.Strict == "" {
		c.Story.Strict = StrictFromStory
	}
	c.Journal.Path = expandHome(strings.TrimSpace(c.Journal.Path))
	for i, dir := range c.Story.Dirs {
		c.Story.Dirs[i] = expandHome(strings.TrimSpace(dir))
	}
	for i, script := range c.Listeners.Scripts {
		c.Listeners.Scripts[i] = expandHome(strings.TrimSpace(script))
	}
	c.TUI.Theme = strings.ToLower(strings.TrimSpace(c.TUI.Theme))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		validation.AddMessage("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		validation.AddMessage("logging.format", "must be console or json")
	}

	switch c.Story.Strict {
	case StrictFromStory, StrictOn, StrictOff:
	default:
		validation.AddMessage("story.strict", "must be story, on or off")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		validation.AddMessage("journal.path", "required when the journal is enabled")
	}

	for _, script := range c.Listeners.Scripts {
		if filepath.Ext(script) != ".lua" {
			validation.AddMessage("listeners.scripts", fmt.Sprintf("%q is not a .lua file", script))
		}
	}

	if c.Playback.TickInterval <= 0 {
		validation.AddMessage("playback.tick_interval", "must be greater than 0")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		validation.AddMessage("tui.theme", fmt.Sprintf("unknown theme %q", c.TUI.Theme))
	}

	return validation.Err()
}

// StrictOverride returns the strict mode to force, if any.
func (c *Config) StrictOverride() (strict bool, ok bool) {
	switch c.Story.Strict {
	case StrictOn:
		return true, true
	case StrictOff:
		return false, true
	}
	return false, false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
