package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/story"
)

func testStory() *story.Story {
	return story.New("cave").
		MustAdd(story.Passage{Name: "Mouth", Factory: func(*story.Session) output.Sequence {
			return output.Items(
				output.NewText("A cave mouth."),
				output.NewLineBreak(),
				output.NewLink("Enter", "Inside", nil),
				output.NewText(" "),
				output.NewLink("Leave", "Outside", nil),
			)
		}}).
		MustAdd(story.Passage{Name: "Inside", Factory: func(*story.Session) output.Sequence {
			return output.Items(output.NewText("Dark inside."))
		}}).
		MustAdd(story.Passage{Name: "Outside", Factory: func(*story.Session) output.Sequence {
			return output.Items(output.NewText("Sunlight."))
		}})
}

func newTestModel(t *testing.T) (model, *EventFeed) {
	t.Helper()
	feed := NewEventFeed()
	session := story.NewSession(testStory(), story.Options{Sink: feed})
	m := newModel(Config{Session: session, Feed: feed})
	next, _ := m.Update(beginMsg{})
	return next.(model), feed
}

func press(t *testing.T, m model, key string) model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(model)
}

func TestBeginRendersStartPassage(t *testing.T) {
	m, _ := newTestModel(t)
	if got := m.session.CurrentPassage().Name; got != "Mouth" {
		t.Fatalf("expected Mouth, got %s", got)
	}
	if got := strings.Join(m.viewer.Plain, "\n"); got != "A cave mouth.\n[1] Enter [2] Leave" {
		t.Fatalf("unexpected plain lines %q", got)
	}
	if view := m.View(); !strings.Contains(view, "cave / Mouth") {
		t.Fatalf("expected title in view, got %q", view)
	}
}

func TestDigitFollowsLink(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "2")
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if got := m.session.CurrentPassage().Name; got != "Outside" {
		t.Fatalf("expected Outside, got %s", got)
	}
}

func TestFocusAndEnterFollowsLink(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "tab")
	if m.focus != 1 {
		t.Fatalf("expected focus 1, got %d", m.focus)
	}
	m = press(t, m, "enter")
	if got := m.session.CurrentPassage().Name; got != "Outside" {
		t.Fatalf("expected Outside, got %s", got)
	}
	if m.focus != 0 {
		t.Fatalf("expected focus reset, got %d", m.focus)
	}
}

func TestResumeWhenIdleShowsError(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, " ")
	if m.err == nil {
		t.Fatalf("expected resume error while idle")
	}
	if !strings.Contains(m.statusLine(), "not paused") {
		t.Fatalf("expected error in status line, got %q", m.statusLine())
	}
}

func TestSearchMode(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "/")
	m = press(t, m, "cave")
	if !m.searching || m.query != "cave" {
		t.Fatalf("expected search query, got %q (searching=%v)", m.query, m.searching)
	}
	m = press(t, m, "enter")
	if m.searching || m.viewer.SearchHitCount() != 1 {
		t.Fatalf("expected one hit, got %d", m.viewer.SearchHitCount())
	}
}

func TestEventFeedDrain(t *testing.T) {
	_, feed := newTestModel(t)
	events := feed.Drain()
	if len(events) == 0 {
		t.Fatalf("expected buffered events")
	}
	if len(feed.Drain()) != 0 {
		t.Fatalf("expected feed to be empty after drain")
	}

	var status string
	for _, ev := range events {
		if text := describe(ev); text != "" {
			status = text
		}
	}
	if status != "Mouth done" {
		t.Fatalf("unexpected last status %q", status)
	}
}

func TestRunRequiresSession(t *testing.T) {
	if err := RunWithConfig(Config{}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestUnknownThemeFallsBackToDefault(t *testing.T) {
	session := story.NewSession(testStory(), story.Options{})
	m := newModel(Config{Session: session, Theme: "sepia"})
	if m.styles.Theme.Name != "default" {
		t.Fatalf("expected default theme, got %q", m.styles.Theme.Name)
	}
}
