package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opencode-ai/cradle/internal/config"
	"github.com/opencode-ai/cradle/internal/db"
	"github.com/opencode-ai/cradle/internal/render"
	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/storyfile"
)

func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev, prevProgress := appConfig, noProgress
	appConfig, noProgress = cfg, true
	t.Cleanup(func() { appConfig, noProgress = prev, prevProgress })
}

func cellarSession(t *testing.T) *story.Session {
	t.Helper()
	sf, err := storyfile.Find(nil, "cellar")
	if err != nil {
		t.Fatalf("find cellar: %v", err)
	}
	st, err := storyfile.Compile(sf)
	if err != nil {
		t.Fatalf("compile cellar: %v", err)
	}
	return story.NewSession(st, story.Options{})
}

func TestRunLineModePlaysToTheEnd(t *testing.T) {
	s := cellarSession(t)
	var out bytes.Buffer
	in := strings.NewReader("2\nvars\n2\n")

	err := runLineMode(context.Background(), s, in, &out, lineOptions{
		render: render.Options{NumberLinks: true},
		tick:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("runLineMode: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"You wake up on a cold stone floor.",
		"[2] Go down",
		"You have 4 gold left.",
		"gold",
		"The end.",
		"-- the end --",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if !s.Ended() {
		t.Fatalf("expected story to have ended")
	}
}

func TestRunLineModeStopsOnQuit(t *testing.T) {
	s := cellarSession(t)
	var out bytes.Buffer
	err := runLineMode(context.Background(), s, strings.NewReader("quit\n2\n"), &out, lineOptions{})
	if err != nil {
		t.Fatalf("runLineMode: %v", err)
	}
	if s.CurrentPassage().Name != "Start" {
		t.Fatalf("expected to stay in Start, got %s", s.CurrentPassage().Name)
	}
}

func TestLineCommandErrors(t *testing.T) {
	s := cellarSession(t)
	if err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	var out bytes.Buffer

	if _, err := lineCommand(s, "9", &out); err == nil {
		t.Fatalf("expected error for missing link number")
	}
	if _, err := lineCommand(s, "nowhere", &out); !errors.Is(err, story.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := lineCommand(s, "resume", &out); !errors.Is(err, story.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
	if _, err := lineCommand(s, "lantern", &out); err != nil {
		t.Fatalf("follow by name: %v", err)
	}
	if v := s.Vars().Get("lantern"); !v.Truthy() {
		t.Fatalf("expected lantern to be set, got %v", v)
	}
}

func TestNewPlayerAppliesOverridesAndJournal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	useConfig(t, cfg)

	script := filepath.Join(t.TempDir(), "watch.lua")
	if err := os.WriteFile(script, []byte(`function Cellar_Enter(ev) story.set("visited", true) end`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	ctx := context.Background()
	p, err := newPlayer(ctx, "cellar", playFlags{start: "Cellar", strict: "off", journal: true, listeners: []string{script}})
	if err != nil {
		t.Fatalf("newPlayer: %v", err)
	}
	if p.story.StartPassage != "Cellar" || p.story.Strict {
		t.Fatalf("overrides not applied: start=%s strict=%v", p.story.StartPassage, p.story.Strict)
	}
	if err := p.session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !p.session.Vars().Get("visited").Truthy() {
		t.Fatalf("expected listener to run on enter")
	}
	id := p.journal.SessionID()
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	database, err := openDatabase(ctx)
	if err != nil {
		t.Fatalf("openDatabase: %v", err)
	}
	defer database.Close()
	recorded, err := db.NewSessionRepository(database).Get(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if recorded.LastPassage != "Cellar" || recorded.Active() {
		t.Fatalf("unexpected session %+v", recorded)
	}
}

func TestNewPlayerRejectsUnknownStart(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	if _, err := newPlayer(context.Background(), "cellar", playFlags{start: "Attic"}); err == nil {
		t.Fatalf("expected error for unknown start passage")
	}
	if _, err := newPlayer(context.Background(), "missing-story", playFlags{}); err == nil {
		t.Fatalf("expected error for unknown story")
	}
}

func TestWriteOutputJSONL(t *testing.T) {
	prev := jsonlOutput
	jsonlOutput = true
	t.Cleanup(func() { jsonlOutput = prev })

	var out bytes.Buffer
	if err := WriteOutput(&out, []StorySummary{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], `"name":"b"`) {
		t.Fatalf("unexpected jsonl output %q", out.String())
	}
}

func TestClipCell(t *testing.T) {
	if got := clipCell("a\n  b"); got != "a b" {
		t.Fatalf("expected flattened cell, got %q", got)
	}
	long := strings.Repeat("x", maxCellWidth+5)
	if got := clipCell(long); len([]rune(got)) != maxCellWidth || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected clipped cell, got %q", got)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("expected 0 for nil")
	}
	if ExitCode(errors.New("boom")) != 1 {
		t.Fatalf("expected 1 for plain error")
	}
	if ExitCode(&PreflightError{Message: "no tty"}) != 2 {
		t.Fatalf("expected 2 for preflight error")
	}
}
