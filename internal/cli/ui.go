package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opencode-ai/cradle/internal/tui"
)

var uiOpts playFlags

func init() {
	rootCmd.AddCommand(uiCmd)
	uiOpts.register(uiCmd)
}

var uiCmd = &cobra.Command{
	Use:   "ui <story>",
	Short: "Play a story in the terminal UI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if IsNonInteractive() {
			return &PreflightError{
				Message:  "the player UI requires an interactive terminal",
				Hint:     "Run with a TTY, or use line mode",
				NextStep: "cradle play " + args[0],
			}
		}

		feed := tui.NewEventFeed()
		p, err := newPlayer(cmd.Context(), args[0], uiOpts, feed)
		if err != nil {
			return err
		}
		defer p.Close()

		cfg := configOrDefault()
		return tui.RunWithConfig(tui.Config{
			Session:      p.session,
			Feed:         feed,
			Theme:        cfg.TUI.Theme,
			TickInterval: cfg.Playback.TickInterval,
		})
	},
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
