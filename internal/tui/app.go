// Package tui implements the interactive story player.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/render"
	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/tui/components"
	"github.com/opencode-ai/cradle/internal/tui/styles"
)

// ErrNoSession is returned when the player has nothing to play.
var ErrNoSession = errors.New("tui: no session")

// Config configures the player.
type Config struct {
	// Session is played. It should be idle and not yet begun.
	Session *story.Session
	// Feed must be the session's sink, or part of it, for status updates.
	Feed *EventFeed
	// Theme names a palette in styles.Themes.
	Theme string
	// TickInterval paces Session.Update. Default: 100ms.
	TickInterval time.Duration
}

// RunWithConfig launches the player and blocks until it quits.
func RunWithConfig(cfg Config) error {
	if cfg.Session == nil {
		return ErrNoSession
	}
	program := tea.NewProgram(newModel(cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

const (
	minWidth  = 40
	minHeight = 10

	defaultTick = 100 * time.Millisecond
)

type model struct {
	session  *story.Session
	feed     *EventFeed
	styles   styles.Styles
	renderer *render.Renderer
	plain    *render.Renderer
	viewer   *components.PassageViewer
	tick     time.Duration

	width, height int
	focus         int
	searching     bool
	query         string
	status        string
	err           error
}

func newModel(cfg Config) model {
	theme, ok := styles.ThemeByName(cfg.Theme)
	if !ok && cfg.Theme != "" {
		logger := logging.Component("tui")
		logger.Warn().Str("theme", cfg.Theme).Msg("unknown theme, using default")
	}
	styleSet := styles.BuildStyles(theme)

	opts := render.DefaultOptions()
	opts.Link = styleSet.Link
	opts.Focus = styleSet.LinkFocus

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTick
	}

	return model{
		session:  cfg.Session,
		feed:     cfg.Feed,
		styles:   styleSet,
		renderer: render.New(opts),
		plain:    render.New(render.Options{NumberLinks: true}),
		viewer:   components.NewPassageViewer(),
		tick:     tick,
	}
}

type beginMsg struct{}

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return beginMsg{} }, tickCmd(m.tick))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case beginMsg:
		if m.session.CurrentPassage() == nil && m.session.State() == story.Idle {
			m.err = m.session.Begin()
		}
		return m.refresh()
	case tickMsg:
		m.session.Update()
		next, cmd := m.refresh()
		return next, tea.Batch(cmd, tickCmd(m.tick))
	case PlaybackEventsMsg:
		for _, ev := range msg.Events {
			if text := describe(ev); text != "" {
				m.status = text
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewer.Width = msg.Width
		m.viewer.Height = msg.Height - 4
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	links := m.session.Links()
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "right":
		if len(links) > 0 {
			m.focus = (m.focus + 1) % len(links)
		}
	case "shift+tab", "left":
		if len(links) > 0 {
			m.focus = (m.focus - 1 + len(links)) % len(links)
		}
	case "enter":
		if m.focus < len(links) {
			m.err = m.session.DoLink(links[m.focus])
			m.focus = 0
		}
	case " ":
		m.err = m.session.Resume()
	case "p":
		m.err = m.session.Pause()
	case "r":
		m.session.Reset()
		m.err = m.session.Begin()
		m.focus = 0
	case "up", "k":
		m.viewer.ScrollUp(1)
		return m, nil
	case "down", "j":
		m.viewer.ScrollDown(1)
		return m, nil
	case "pgup":
		m.viewer.ScrollUp(m.viewer.Height)
		return m, nil
	case "pgdown":
		m.viewer.ScrollDown(m.viewer.Height)
		return m, nil
	case "/":
		m.searching = true
		m.query = ""
		return m, nil
	case "n":
		m.viewer.NextSearchHit()
		return m, nil
	case "N":
		m.viewer.PrevSearchHit()
		return m, nil
	case "esc":
		m.viewer.ClearSearch()
		return m, nil
	default:
		if n, ok := linkNumber(key); ok && n <= len(links) {
			m.err = m.session.DoLink(links[n-1])
			m.focus = 0
		}
	}
	return m.refresh()
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.viewer.SetSearch(m.query)
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if m.query != "" {
			r := []rune(m.query)
			m.query = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	}
	return m, nil
}

func linkNumber(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '0'), true
}

// refresh re-renders the session output into the viewer, following the
// tail when new lines arrive.
func (m model) refresh() (tea.Model, tea.Cmd) {
	if n := len(m.session.Links()); m.focus >= n {
		m.focus = 0
	}
	items := m.session.Output().Items()
	before := m.viewer.LineCount()
	atBottom := m.viewer.ScrollOffset >= before-m.viewer.Height
	m.viewer.SetLines(m.renderer.Lines(items, m.focus), m.plain.Lines(items, -1))
	if m.viewer.LineCount() != before && atBottom {
		m.viewer.ScrollToBottom()
	}
	return m, m.feed.drainCmd()
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 && (m.width < minWidth || m.height < minHeight) {
		return strings.Join([]string{
			m.styles.Warning.Render(fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)),
			m.styles.Muted.Render(fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)),
		}, "\n") + "\n"
	}

	title := m.session.Story().Name
	if p := m.session.CurrentPassage(); p != nil {
		title += " / " + p.Name
	}
	header := m.styles.Title.Render(title) + "  " + components.RenderStateBadge(m.styles, m.session.State())

	lines := []string{header, m.viewer.Render(m.styles), m.statusLine(), m.helpLine()}
	return strings.Join(lines, "\n") + "\n"
}

func (m model) statusLine() string {
	switch {
	case m.searching:
		return m.styles.Accent.Render("/" + m.query)
	case m.err != nil:
		return m.styles.Error.Render(m.err.Error())
	case m.session.Ended():
		return m.styles.Accent.Render("The end. Press r to play again.")
	default:
		return m.styles.Muted.Render(m.status)
	}
}

func (m model) helpLine() string {
	return m.styles.Muted.Render("1-9 follow | tab/enter focus | space resume | p pause | / search | r restart | q quit")
}
