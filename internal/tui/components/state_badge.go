// Package components provides reusable player widgets.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/tui/styles"
)

// RenderStateBadge renders a playback state with icon and color.
func RenderStateBadge(styleSet styles.Styles, state story.State) string {
	icon, style := stateDescriptor(styleSet, state)
	return style.Render(icon + " " + state.String())
}

func stateDescriptor(styleSet styles.Styles, state story.State) (string, lipgloss.Style) {
	switch state {
	case story.Playing:
		return ">", styleSet.StatusPlaying
	case story.Paused:
		return "||", styleSet.StatusPaused
	case story.Exiting:
		return "<-", styleSet.StatusExiting
	default:
		return "-", styleSet.StatusIdle
	}
}
