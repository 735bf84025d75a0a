package styles

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the player.
type Styles struct {
	Theme   Theme
	Title   lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Panel   lipgloss.Style
	Border  lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Links in passage text.
	Link      lipgloss.Style
	LinkFocus lipgloss.Style

	// Playback state badges.
	StatusIdle    lipgloss.Style
	StatusPlaying lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusExiting lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	t := theme.Tokens
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return Styles{
		Theme:   theme,
		Title:   fg(t.Text).Bold(true),
		Text:    fg(t.Text),
		Muted:   fg(t.TextMuted),
		Accent:  fg(t.Accent),
		Panel:   fg(t.Text).Background(lipgloss.Color(t.Panel)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t.Border)),
		Border:  fg(t.Border),
		Warning: fg(t.Warning),
		Error:   fg(t.Error),

		Link:      fg(t.Link).Underline(true),
		LinkFocus: fg(t.Panel).Background(lipgloss.Color(t.Focus)).Bold(true),

		StatusIdle:    fg(t.TextMuted),
		StatusPlaying: fg(t.Success).Bold(true),
		StatusPaused:  fg(t.Warning).Bold(true),
		StatusExiting: fg(t.Accent),
	}
}
