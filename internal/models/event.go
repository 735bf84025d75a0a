package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes journal events.
type EventType string

const (
	// Session events
	EventTypeSessionStarted EventType = "session.started"
	EventTypeSessionEnded   EventType = "session.ended"
	EventTypeStateChanged   EventType = "state.changed"

	// Passage events
	EventTypePassageEntered EventType = "passage.entered"
	EventTypePassageExited  EventType = "passage.exited"
	EventTypePassageDone    EventType = "passage.done"

	// Link events
	EventTypeLinkBegin EventType = "link.begin"
	EventTypeLinkDone  EventType = "link.done"

	// Output events
	EventTypeOutputAdded   EventType = "output.added"
	EventTypeOutputRemoved EventType = "output.removed"

	// System events
	EventTypeError   EventType = "error"
	EventTypeWarning EventType = "warning"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeSession EntityType = "session"
	EntityTypeStory   EntityType = "story"
	EntityTypeSystem  EntityType = "system"
)

// Event represents an append-only journal entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// StateChangedPayload is the payload for state.changed events.
type StateChangedPayload struct {
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

// PassagePayload is the payload for passage and link events.
type PassagePayload struct {
	Passage string `json:"passage"`
	Link    string `json:"link,omitempty"`
}

// OutputPayload is the payload for output events.
type OutputPayload struct {
	Passage string `json:"passage"`
	Kind    string `json:"kind"`
	Index   int    `json:"index"`
	Text    string `json:"text,omitempty"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}
