package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/opencode-ai/cradle/internal/models"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/story"
)

type fakeRepo struct {
	events []*models.Event
	err    error
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) last() *models.Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func TestRecordPassageEvent(t *testing.T) {
	repo := &fakeRepo{}
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	event, err := Record(context.Background(), repo, "session-1", story.Event{
		Type:      story.EventLinkBegin,
		Story:     "cellar",
		Passage:   "Start",
		Link:      "Go down",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if event != repo.last() {
		t.Fatal("expected event to be created")
	}
	if event.Type != models.EventTypeLinkBegin {
		t.Fatalf("unexpected event type: %q", event.Type)
	}
	if event.EntityID != "session-1" || event.Metadata["story"] != "cellar" {
		t.Fatalf("unexpected event: %+v", event)
	}

	var payload models.PassagePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Passage != "Start" || payload.Link != "Go down" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRecordOutputAndStateEvents(t *testing.T) {
	repo := &fakeRepo{}
	ctx := context.Background()

	if _, err := Record(ctx, repo, "s", story.Event{Type: story.EventOutputAdded, Passage: "Start", Item: output.NewText("Hello")}); err != nil {
		t.Fatalf("Record output: %v", err)
	}
	var out models.OutputPayload
	if err := json.Unmarshal(repo.last().Payload, &out); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if out.Kind != "text" || out.Text != "Hello" || out.Index != -1 {
		t.Fatalf("unexpected output payload: %+v", out)
	}

	if _, err := Record(ctx, repo, "s", story.Event{Type: story.EventStateChanged, OldState: story.Idle, NewState: story.Playing}); err != nil {
		t.Fatalf("Record state: %v", err)
	}
	var state models.StateChangedPayload
	if err := json.Unmarshal(repo.last().Payload, &state); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if state.OldState != story.Idle.String() || state.NewState != story.Playing.String() {
		t.Fatalf("unexpected state payload: %+v", state)
	}
}

func TestRecordRequiresSession(t *testing.T) {
	if _, err := Record(context.Background(), &fakeRepo{}, "", story.Event{Type: story.EventPassageDone}); err == nil {
		t.Fatal("expected error without session id")
	}
	if _, err := Record(context.Background(), nil, "s", story.Event{Type: story.EventPassageDone}); err == nil {
		t.Fatal("expected error without repository")
	}
}
