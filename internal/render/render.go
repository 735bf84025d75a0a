// Package render turns passage output into terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/vars"
)

// Options controls rendering.
type Options struct {
	// Color applies item styles. Plain text is produced otherwise.
	Color bool

	// NumberLinks prefixes links with their 1-based number.
	NumberLinks bool

	// Link and Focus style links and the focused link.
	Link  lipgloss.Style
	Focus lipgloss.Style
}

// DefaultOptions returns colored output with numbered links.
func DefaultOptions() Options {
	return Options{
		Color:       true,
		NumberLinks: true,
		Link:        lipgloss.NewStyle().Underline(true),
		Focus:       lipgloss.NewStyle().Underline(true).Bold(true).Reverse(true),
	}
}

// Renderer renders output items.
type Renderer struct {
	opts Options
}

// New returns a renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Lines renders items split at line breaks. focus is the 0-based link to
// highlight, or -1.
func (r *Renderer) Lines(items []output.Item, focus int) []string {
	var (
		lines []string
		line  strings.Builder
		link  int
	)
	for _, item := range items {
		switch v := item.(type) {
		case *output.LineBreak:
			lines = append(lines, line.String())
			line.Reset()
		case *output.Text:
			line.WriteString(r.styled(v.Text, item))
		case *output.Link:
			line.WriteString(r.link(v, link, link == focus))
			link++
		}
	}
	if line.Len() > 0 || len(lines) == 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// String renders items as a single string.
func (r *Renderer) String(items []output.Item, focus int) string {
	return strings.Join(r.Lines(items, focus), "\n")
}

func (r *Renderer) styled(text string, item output.Item) string {
	if !r.opts.Color {
		return text
	}
	style := output.EffectiveStyle(item)
	if style == nil || style.Len() == 0 {
		return text
	}
	return StyleFor(style).Render(text)
}

func (r *Renderer) link(l *output.Link, n int, focused bool) string {
	text := l.Text
	if r.opts.NumberLinks {
		text = fmt.Sprintf("[%d] %s", n+1, text)
	}
	if !r.opts.Color {
		if focused {
			return "> " + text
		}
		return text
	}
	style := r.opts.Link
	if focused {
		style = r.opts.Focus
	}
	if group := output.EffectiveStyle(l); group != nil && group.Len() > 0 {
		style = StyleFor(group).Inherit(style)
	}
	return style.Render(text)
}

// StyleFor maps a story style onto a lipgloss style. Recognised keys are
// bold, italic, underline, faint, strikethrough, reverse, color and
// background; others are ignored.
func StyleFor(s *output.Style) lipgloss.Style {
	style := lipgloss.NewStyle()
	if s == nil {
		return style
	}
	for _, key := range s.Keys() {
		value, _ := s.Get(key)
		switch strings.ToLower(key) {
		case "bold":
			style = style.Bold(value.Truthy())
		case "italic":
			style = style.Italic(value.Truthy())
		case "underline":
			style = style.Underline(value.Truthy())
		case "faint":
			style = style.Faint(value.Truthy())
		case "strikethrough":
			style = style.Strikethrough(value.Truthy())
		case "reverse":
			style = style.Reverse(value.Truthy())
		case "color", "foreground":
			if c, ok := colorOf(value); ok {
				style = style.Foreground(c)
			}
		case "background":
			if c, ok := colorOf(value); ok {
				style = style.Background(c)
			}
		}
	}
	return style
}

var namedColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
	"gray":    "8",
	"grey":    "8",
}

func colorOf(v vars.Var) (lipgloss.Color, bool) {
	name := strings.ToLower(strings.TrimSpace(v.String()))
	if name == "" {
		return "", false
	}
	if code, ok := namedColors[name]; ok {
		return lipgloss.Color(code), true
	}
	return lipgloss.Color(name), true
}
