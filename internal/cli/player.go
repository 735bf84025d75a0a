package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opencode-ai/cradle/internal/config"
	"github.com/opencode-ai/cradle/internal/cues"
	"github.com/opencode-ai/cradle/internal/db"
	"github.com/opencode-ai/cradle/internal/events"
	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/luacue"
	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/storyfile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// playFlags are shared by play and ui.
type playFlags struct {
	start     string
	strict    string
	journal   bool
	listeners []string
}

func (f *playFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start passage override")
	cmd.Flags().StringVar(&f.strict, "strict", "", "strict mode: story, on or off")
	cmd.Flags().BoolVar(&f.journal, "journal", false, "record the session in the journal")
	cmd.Flags().StringSliceVar(&f.listeners, "listener", nil, "Lua listener script (repeatable)")
}

// player owns a session and the resources wired to it.
type player struct {
	story    *story.Story
	session  *story.Session
	scripts  []*luacue.Script
	journal  *events.Journal
	database *db.DB
	logger   zerolog.Logger
}

// storySearchPaths returns configured story dirs followed by the standard
// locations relative to the working directory.
func storySearchPaths(cfg *config.Config) []string {
	cwd, _ := os.Getwd()
	return append(append([]string{}, cfg.Story.Dirs...), storyfile.StorySearchPaths(cwd)...)
}

// newPlayer resolves name, compiles it and builds a session. sinks receive
// session events alongside the journal.
func newPlayer(ctx context.Context, name string, flags playFlags, sinks ...story.Sink) (*player, error) {
	cfg := configOrDefault()
	logger := logging.Component("cli")

	step := startProgress("Loading " + name)
	sf, err := storyfile.Find(storySearchPaths(cfg), name)
	if err != nil {
		step.Fail(err)
		return nil, err
	}
	st, err := storyfile.Compile(sf)
	if err != nil {
		step.Fail(err)
		return nil, err
	}
	step.Done()

	if flags.strict != "" {
		cfg.Story.Strict = flags.strict
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if strict, ok := cfg.StrictOverride(); ok {
		st.Strict = strict
	}
	if start := firstNonEmpty(flags.start, cfg.Story.Start); start != "" {
		if _, ok := st.Passage(start); !ok {
			return nil, fmt.Errorf("start passage %q not found in story %q", start, st.Name)
		}
		st.StartPassage = start
	}

	p := &player{story: st, logger: logger}
	all := story.MultiSink(sinks)
	if flags.journal || cfg.Journal.Enabled {
		database, err := openDatabase(ctx)
		if err != nil {
			return nil, err
		}
		journal, err := events.OpenJournal(ctx, database, st.Name, events.JournalOptions{IncludeOutput: cfg.Journal.IncludeOutput})
		if err != nil {
			database.Close()
			return nil, err
		}
		p.database, p.journal = database, journal
		all = append(all, journal)
		logger.Debug().Str("session", journal.SessionID()).Msg("journal opened")
	}

	registry := cues.NewRegistry()
	p.session = story.NewSession(st, story.Options{Registry: registry, Sink: all})

	for _, path := range append(append([]string{}, cfg.Listeners.Scripts...), flags.listeners...) {
		script, err := luacue.LoadFile(path, p.session)
		if err != nil {
			p.Close()
			return nil, err
		}
		script.Register(registry)
		p.scripts = append(p.scripts, script)
		logger.Debug().Str("script", script.Name()).Strs("functions", script.Functions()).Msg("listener loaded")
	}
	return p, nil
}

// Close ends the journal session and releases the database.
func (p *player) Close() error {
	var errs []error
	if p.journal != nil {
		errs = append(errs, p.journal.Close())
		if n := p.journal.Failures(); n > 0 {
			p.logger.Warn().Int("failures", n).Msg("some journal writes failed")
		}
	}
	if p.database != nil {
		errs = append(errs, p.database.Close())
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
