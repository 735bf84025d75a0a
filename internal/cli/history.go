package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/cradle/internal/db"
	"github.com/opencode-ai/cradle/internal/models"
)

var (
	historyStory string
	historyLimit int
	eventsLimit  int
	eventsType   string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyEventsCmd)

	historyCmd.Flags().StringVar(&historyStory, "story", "", "only sessions of this story")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum sessions to list")
	historyEventsCmd.Flags().IntVar(&eventsLimit, "limit", 100, "maximum events to list")
	historyEventsCmd.Flags().StringVar(&eventsType, "type", "", "only events of this type")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled play sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		sessions, err := db.NewSessionRepository(database).List(ctx, historyStory, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), sessions)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded. Play with --journal to record one.")
			return nil
		}
		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, sessionRow(s))
		}
		return writeTable(cmd.OutOrStdout(), []string{"ID", "STORY", "STARTED", "DURATION", "PASSAGES", "LAST"}, rows)
	},
}

var historyEventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Show the journal of one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		if _, err := db.NewSessionRepository(database).Get(ctx, args[0]); err != nil {
			return err
		}

		entityType := models.EntityTypeSession
		query := db.EventQuery{EntityType: &entityType, EntityID: &args[0], Limit: eventsLimit}
		if eventsType != "" {
			typ := models.EventType(eventsType)
			query.Type = &typ
		}
		page, err := db.NewEventRepository(database).Query(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to query events: %w", err)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), page.Events)
		}
		rows := make([][]string, 0, len(page.Events))
		for _, ev := range page.Events {
			rows = append(rows, []string{ev.Timestamp.Local().Format("15:04:05.000"), string(ev.Type), string(ev.Payload)})
		}
		return writeTable(cmd.OutOrStdout(), []string{"TIME", "TYPE", "PAYLOAD"}, rows)
	},
}

func sessionRow(s *models.Session) []string {
	duration := "active"
	if s.EndedAt != nil {
		duration = formatDuration(s.EndedAt.Sub(s.StartedAt))
	}
	last := s.LastPassage
	if last == "" {
		last = "-"
	}
	return []string{
		s.ID,
		s.Story,
		s.StartedAt.Local().Format(time.DateTime),
		duration,
		fmt.Sprint(s.Passages),
		last,
	}
}
