// Package cli implements the cradle command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/cradle/internal/config"
	"github.com/opencode-ai/cradle/internal/db"
	"github.com/opencode-ai/cradle/internal/logging"
)

var (
	cfgFile        string
	logLevel       string
	jsonOutput     bool
	jsonlOutput    bool
	nonInteractive bool
	noProgress     bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "cradle",
	Short:         "Play interactive-fiction stories in the terminal",
	Long:          "Cradle plays passage-based stories, with Lua cue listeners and an optional SQLite playback journal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultDir()+"/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "emit JSON lines output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt; fail instead")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	appConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration, or nil before initConfig.
func GetConfig() *config.Config {
	return appConfig
}

func configOrDefault() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return config.DefaultConfig()
}

// openDatabase opens and migrates the journal database.
func openDatabase(ctx context.Context) (*db.DB, error) {
	cfg := configOrDefault()
	dbCfg := db.DefaultConfig()
	dbCfg.Path = cfg.Journal.Path

	if err := os.MkdirAll(filepath.Dir(dbCfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	database, err := db.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return database, nil
}

// PreflightError explains why a command cannot run and what to try next.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\nhint: " + e.Hint
	}
	if e.NextStep != "" {
		msg += "\ntry: " + e.NextStep
	}
	return msg
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	var preflight *PreflightError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &preflight):
		return 2
	default:
		return 1
	}
}
