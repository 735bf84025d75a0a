package components

import (
	"strings"
	"testing"

	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/tui/styles"
)

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "line " + string(rune('a'+i))
	}
	return out
}

func TestPassageViewerScrollClamps(t *testing.T) {
	v := NewPassageViewer()
	v.Height = 4
	v.SetLines(lines(10), nil)

	v.ScrollDown(100)
	if v.ScrollOffset != 7 {
		t.Fatalf("expected offset 7, got %d", v.ScrollOffset)
	}
	v.ScrollUp(100)
	if v.ScrollOffset != 0 {
		t.Fatalf("expected offset 0, got %d", v.ScrollOffset)
	}
	v.ScrollToBottom()
	if v.ScrollOffset != 7 {
		t.Fatalf("expected bottom offset 7, got %d", v.ScrollOffset)
	}
}

func TestPassageViewerSearchUsesPlainText(t *testing.T) {
	v := NewPassageViewer()
	v.Height = 3
	styled := []string{"\x1b[1mDark\x1b[0m", "cellar", "stairs", "dark water"}
	plain := []string{"Dark", "cellar", "stairs", "dark water"}
	v.SetLines(styled, plain)

	v.SetSearch("DARK")
	if v.SearchHitCount() != 2 {
		t.Fatalf("expected 2 hits, got %d", v.SearchHitCount())
	}
	v.NextSearchHit()
	if v.ScrollOffset != 2 {
		t.Fatalf("expected scroll to line 3, got offset %d", v.ScrollOffset)
	}
	v.NextSearchHit()
	if v.SearchIndex != 0 || v.ScrollOffset != 0 {
		t.Fatalf("expected wrap to first hit, got index %d offset %d", v.SearchIndex, v.ScrollOffset)
	}
	v.PrevSearchHit()
	if v.SearchIndex != 1 {
		t.Fatalf("expected previous to wrap to last hit, got %d", v.SearchIndex)
	}

	out := v.Render(styles.DefaultStyles())
	if !strings.Contains(out, "/DARK 2/2") {
		t.Fatalf("expected search footer, got %q", out)
	}

	v.ClearSearch()
	if v.SearchHitCount() != 0 {
		t.Fatalf("expected search cleared")
	}
}

func TestPassageViewerEmpty(t *testing.T) {
	v := NewPassageViewer()
	if out := v.Render(styles.DefaultStyles()); !strings.Contains(out, "Nothing to show") {
		t.Fatalf("unexpected empty render %q", out)
	}
}

func TestRenderStateBadge(t *testing.T) {
	s := styles.DefaultStyles()
	cases := map[story.State]string{
		story.Idle:    "- idle",
		story.Playing: "> playing",
		story.Paused:  "|| paused",
		story.Exiting: "<- exiting",
	}
	for state, want := range cases {
		if got := RenderStateBadge(s, state); !strings.Contains(got, want) {
			t.Fatalf("state %s: expected %q in %q", state, want, got)
		}
	}
}
