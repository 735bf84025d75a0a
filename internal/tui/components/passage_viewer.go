package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/cradle/internal/tui/styles"
)

// PassageViewer displays rendered passage output with scrolling and search.
// Styled lines are shown as-is; Plain lines back the search.
type PassageViewer struct {
	Styled       []string
	Plain        []string
	ScrollOffset int
	Height       int
	Width        int
	SearchQuery  string
	SearchIndex  int
	searchHits   []int
}

// NewPassageViewer creates an empty viewer.
func NewPassageViewer() *PassageViewer {
	return &PassageViewer{Height: 20, Width: 60}
}

// SetLines replaces the content. plain must be line-aligned with styled;
// a nil plain reuses styled.
func (v *PassageViewer) SetLines(styled, plain []string) {
	if plain == nil {
		plain = styled
	}
	v.Styled = styled
	v.Plain = plain
	v.clampScroll()
	v.updateSearchHits()
}

// LineCount returns the number of content lines.
func (v *PassageViewer) LineCount() int { return len(v.Styled) }

func (v *PassageViewer) ScrollUp(n int) {
	v.ScrollOffset -= n
	v.clampScroll()
}

func (v *PassageViewer) ScrollDown(n int) {
	v.ScrollOffset += n
	v.clampScroll()
}

// ScrollToBottom shows the last page, where new output lands.
func (v *PassageViewer) ScrollToBottom() {
	v.ScrollOffset = v.maxOffset()
}

// SetSearch sets the query and jumps to the first match.
func (v *PassageViewer) SetSearch(query string) {
	v.SearchQuery = query
	v.SearchIndex = 0
	v.updateSearchHits()
	if len(v.searchHits) > 0 {
		v.scrollToLine(v.searchHits[0])
	}
}

func (v *PassageViewer) ClearSearch() {
	v.SearchQuery = ""
	v.SearchIndex = 0
	v.searchHits = nil
}

// NextSearchHit cycles forward through matches.
func (v *PassageViewer) NextSearchHit() {
	if len(v.searchHits) == 0 {
		return
	}
	v.SearchIndex = (v.SearchIndex + 1) % len(v.searchHits)
	v.scrollToLine(v.searchHits[v.SearchIndex])
}

// PrevSearchHit cycles backward through matches.
func (v *PassageViewer) PrevSearchHit() {
	if len(v.searchHits) == 0 {
		return
	}
	v.SearchIndex = (v.SearchIndex - 1 + len(v.searchHits)) % len(v.searchHits)
	v.scrollToLine(v.searchHits[v.SearchIndex])
}

// SearchHitCount returns the number of matching lines.
func (v *PassageViewer) SearchHitCount() int { return len(v.searchHits) }

func (v *PassageViewer) updateSearchHits() {
	v.searchHits = nil
	if v.SearchQuery == "" {
		return
	}
	query := strings.ToLower(v.SearchQuery)
	for i, line := range v.Plain {
		if strings.Contains(strings.ToLower(line), query) {
			v.searchHits = append(v.searchHits, i)
		}
	}
	if v.SearchIndex >= len(v.searchHits) {
		v.SearchIndex = 0
	}
}

func (v *PassageViewer) scrollToLine(line int) {
	visible := v.visibleLines()
	switch {
	case line < v.ScrollOffset:
		v.ScrollOffset = line
	case line >= v.ScrollOffset+visible:
		v.ScrollOffset = line - visible + 1
	}
	v.clampScroll()
}

// visibleLines leaves one row for the footer.
func (v *PassageViewer) visibleLines() int {
	if v.Height <= 1 {
		return 1
	}
	return v.Height - 1
}

func (v *PassageViewer) maxOffset() int {
	limit := len(v.Styled) - v.visibleLines()
	if limit < 0 {
		return 0
	}
	return limit
}

func (v *PassageViewer) clampScroll() {
	if v.ScrollOffset > v.maxOffset() {
		v.ScrollOffset = v.maxOffset()
	}
	if v.ScrollOffset < 0 {
		v.ScrollOffset = 0
	}
}

// Render draws the visible page and a footer.
func (v *PassageViewer) Render(styleSet styles.Styles) string {
	if len(v.Styled) == 0 {
		return styleSet.Muted.Render("Nothing to show yet.")
	}

	end := v.ScrollOffset + v.visibleLines()
	if end > len(v.Styled) {
		end = len(v.Styled)
	}

	current := -1
	if len(v.searchHits) > 0 {
		current = v.searchHits[v.SearchIndex]
	}

	rendered := make([]string, 0, end-v.ScrollOffset+1)
	for i := v.ScrollOffset; i < end; i++ {
		line := v.Styled[i]
		if i == current && i < len(v.Plain) {
			line = highlightMatch(styleSet, v.Plain[i], v.SearchQuery)
		}
		if v.Width > 0 && lipgloss.Width(line) > v.Width {
			line = lipgloss.NewStyle().MaxWidth(v.Width).Render(line)
		}
		rendered = append(rendered, line)
	}
	rendered = append(rendered, v.footer(styleSet))
	return strings.Join(rendered, "\n")
}

func (v *PassageViewer) footer(styleSet styles.Styles) string {
	total := len(v.Styled)
	visible := v.visibleLines()
	if total <= visible && v.SearchQuery == "" {
		return ""
	}
	end := v.ScrollOffset + visible
	if end > total {
		end = total
	}
	info := fmt.Sprintf("%d-%d of %d", v.ScrollOffset+1, end, total)
	if v.SearchQuery != "" {
		if len(v.searchHits) > 0 {
			info += fmt.Sprintf(" | /%s %d/%d", v.SearchQuery, v.SearchIndex+1, len(v.searchHits))
		} else {
			info += fmt.Sprintf(" | /%s no match", v.SearchQuery)
		}
	}
	return styleSet.Muted.Render(info)
}

func highlightMatch(styleSet styles.Styles, line, query string) string {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(query))
	if query == "" || idx < 0 {
		return styleSet.Text.Render(line)
	}
	end := idx + len(query)
	return styleSet.Text.Render(line[:idx]) +
		styleSet.LinkFocus.Render(line[idx:end]) +
		styleSet.Text.Render(line[end:])
}
