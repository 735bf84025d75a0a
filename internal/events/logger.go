// Package events journals playback notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencode-ai/cradle/internal/models"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/story"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// Record converts a session notification into a journal event for
// sessionID and writes it to repo.
func Record(ctx context.Context, repo Repository, sessionID string, ev story.Event) (*models.Event, error) {
	if repo == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	payload, err := payloadFor(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.Type, err)
	}

	event := &models.Event{
		Timestamp:  ev.Timestamp,
		Type:       models.EventType(ev.Type),
		EntityType: models.EntityTypeSession,
		EntityID:   sessionID,
		Payload:    payload,
	}
	if ev.Story != "" {
		event.Metadata = map[string]string{"story": ev.Story}
	}

	if err := repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// LogSessionStarted records the start of a journaled session.
func LogSessionStarted(ctx context.Context, repo Repository, sessionID, storyName string) error {
	return logSession(ctx, repo, models.EventTypeSessionStarted, sessionID, storyName)
}

// LogSessionEnded records the end of a journaled session.
func LogSessionEnded(ctx context.Context, repo Repository, sessionID, storyName string) error {
	return logSession(ctx, repo, models.EventTypeSessionEnded, sessionID, storyName)
}

func logSession(ctx context.Context, repo Repository, typ models.EventType, sessionID, storyName string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return repo.Create(ctx, &models.Event{
		Type:       typ,
		EntityType: models.EntityTypeSession,
		EntityID:   sessionID,
		Metadata:   map[string]string{"story": storyName},
	})
}

func payloadFor(ev story.Event) (json.RawMessage, error) {
	var payload any
	switch ev.Type {
	case story.EventStateChanged:
		payload = models.StateChangedPayload{
			OldState: ev.OldState.String(),
			NewState: ev.NewState.String(),
		}
	case story.EventOutputAdded, story.EventOutputRemoved:
		p := models.OutputPayload{Passage: ev.Passage, Index: -1}
		if ev.Item != nil {
			p.Kind = string(ev.Item.Kind())
			p.Index = ev.Item.Index()
			p.Text = itemText(ev.Item)
		}
		payload = p
	default:
		payload = models.PassagePayload{Passage: ev.Passage, Link: ev.Link}
	}
	return json.Marshal(payload)
}

func itemText(item output.Item) string {
	switch v := item.(type) {
	case *output.Text:
		return v.Text
	case *output.Link:
		return v.Text
	case *output.EmbedPassage:
		return v.Name
	case *output.Abort:
		return v.GoTo
	}
	return ""
}
