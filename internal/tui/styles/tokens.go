package styles

import (
	"sort"
	"strings"
)

// ThemeTokens defines the semantic color roles for the player.
type ThemeTokens struct {
	Background string
	Panel      string
	Text       string
	TextMuted  string
	Border     string
	Accent     string
	Link       string
	Focus      string
	Success    string
	Warning    string
	Error      string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// DefaultTheme is a warm palette for long reading sessions.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Background: "#14110F",
		Panel:      "#1C1815",
		Text:       "#EDE3D1",
		TextMuted:  "#9C8F7D",
		Border:     "#3A322A",
		Accent:     "#C9A227",
		Link:       "#7FB4CA",
		Focus:      "#E6C384",
		Success:    "#98BB6C",
		Warning:    "#E0A458",
		Error:      "#E46876",
	},
}

// HighContrastTheme keeps passage text and links legible on washed-out
// terminals. Links and focus never share a hue with body text.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Tokens: ThemeTokens{
		Background: "#000000",
		Panel:      "#111111",
		Text:       "#FFFDF5",
		TextMuted:  "#D6D0C4",
		Border:     "#F5F5F5",
		Accent:     "#FFE14D",
		Link:       "#4DF0FF",
		Focus:      "#FF7AF5",
		Success:    "#7DFF7A",
		Warning:    "#FFC14D",
		Error:      "#FF5C5C",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	DefaultTheme.Name:      DefaultTheme,
	HighContrastTheme.Name: HighContrastTheme,
}

// ThemeByName resolves a theme, ignoring case. Unknown names report false
// and return the default theme.
func ThemeByName(name string) (Theme, bool) {
	theme, ok := Themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DefaultTheme, false
	}
	return theme, true
}

// ThemeNames returns the sorted theme names.
func ThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
