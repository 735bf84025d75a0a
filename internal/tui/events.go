package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/cradle/internal/story"
)

// PlaybackEventsMsg carries session notifications gathered since the last
// drain.
type PlaybackEventsMsg struct {
	Events []story.Event
}

// EventFeed is a story.Sink that buffers notifications for the program.
// Sessions emit from inside Update, so the feed is drained by a command
// rather than pushed with Program.Send, which would block the event loop.
type EventFeed struct {
	mu     sync.Mutex
	events []story.Event
}

var _ story.Sink = (*EventFeed)(nil)

// NewEventFeed returns an empty feed.
func NewEventFeed() *EventFeed {
	return &EventFeed{}
}

// Emit implements story.Sink.
func (f *EventFeed) Emit(ev story.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

// Drain returns and clears the buffered events.
func (f *EventFeed) Drain() []story.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.events
	f.events = nil
	return events
}

// drainCmd delivers buffered events as a PlaybackEventsMsg.
func (f *EventFeed) drainCmd() tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		events := f.Drain()
		if len(events) == 0 {
			return nil
		}
		return PlaybackEventsMsg{Events: events}
	}
}

// describe summarises an event for the status line. Output events are
// too chatty and return "".
func describe(ev story.Event) string {
	switch ev.Type {
	case story.EventPassageEntered:
		return "entered " + ev.Passage
	case story.EventPassageDone:
		return ev.Passage + " done"
	case story.EventLinkBegin:
		return "following " + ev.Link
	case story.EventStateChanged:
		return ev.OldState.String() + " -> " + ev.NewState.String()
	default:
		return ""
	}
}
