package story

import (
	"time"

	"github.com/opencode-ai/cradle/internal/output"
)

// EventType names a host notification.
type EventType string

const (
	EventStateChanged   EventType = "state.changed"
	EventPassageEntered EventType = "passage.entered"
	EventPassageExited  EventType = "passage.exited"
	EventPassageDone    EventType = "passage.done"
	EventLinkBegin      EventType = "link.begin"
	EventLinkDone       EventType = "link.done"
	EventOutputAdded    EventType = "output.added"
	EventOutputRemoved  EventType = "output.removed"
)

// Event is a notification delivered to the host.
type Event struct {
	Type      EventType
	Story     string
	Passage   string
	Link      string
	Item      output.Item
	OldState  State
	NewState  State
	Timestamp time.Time
}

// Sink receives session notifications.
type Sink interface {
	Emit(Event)
}

// NoopSink drops all events.
type NoopSink struct{}

// Emit ignores events.
func (NoopSink) Emit(Event) {}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// MultiSink fans events out in order.
type MultiSink []Sink

// Emit forwards ev to every sink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}
