package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opencode-ai/cradle/internal/models"
)

func TestEventRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	event := &models.Event{
		Type:       models.EventTypePassageEntered,
		EntityType: models.EntityTypeSession,
		EntityID:   "session-1",
		Payload:    []byte(`{"passage":"Start"}`),
		Metadata:   map[string]string{"story": "cellar"},
	}
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected ID to be set")
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	got, err := repo.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Type != event.Type || got.EntityID != "session-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if string(got.Payload) != `{"passage":"Start"}` {
		t.Fatalf("unexpected payload %s", got.Payload)
	}
	if got.Metadata["story"] != "cellar" {
		t.Fatalf("unexpected metadata %v", got.Metadata)
	}
	if !got.Timestamp.Equal(event.Timestamp) {
		t.Fatalf("expected timestamp %v, got %v", event.Timestamp, got.Timestamp)
	}
}

func TestEventRepositoryRejectsInvalid(t *testing.T) {
	repo := NewEventRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &models.Event{Type: models.EventTypePassageEntered})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventRepositoryQueryPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event := &models.Event{
			Timestamp:  base,
			Type:       models.EventTypeOutputAdded,
			EntityType: models.EntityTypeSession,
			EntityID:   "session-1",
			Metadata:   map[string]string{"n": string(rune('a' + i))},
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	other := &models.Event{Type: models.EventTypeOutputAdded, EntityType: models.EntityTypeSession, EntityID: "session-2"}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	entity := "session-1"
	page, err := repo.Query(ctx, EventQuery{EntityID: &entity, Limit: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Events) != 3 || page.NextCursor == "" {
		t.Fatalf("expected 3 events with cursor, got %d (%q)", len(page.Events), page.NextCursor)
	}

	next, err := repo.Query(ctx, EventQuery{EntityID: &entity, Limit: 3, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("Query next: %v", err)
	}
	if len(next.Events) != 2 || next.NextCursor != "" {
		t.Fatalf("expected final page of 2, got %d (%q)", len(next.Events), next.NextCursor)
	}

	var order string
	for _, event := range append(page.Events, next.Events...) {
		order += event.Metadata["n"]
	}
	if order != "abcde" {
		t.Fatalf("expected insertion order abcde, got %q", order)
	}
}

func TestEventRepositoryListByEntity(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	for _, typ := range []models.EventType{models.EventTypeSessionStarted, models.EventTypePassageEntered, models.EventTypeSessionEnded} {
		if err := repo.Create(ctx, &models.Event{Type: typ, EntityType: models.EntityTypeSession, EntityID: "s"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	events, err := repo.ListByEntity(ctx, models.EntityTypeSession, "s", 2)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(events) != 2 || events[0].Type != models.EventTypeSessionStarted {
		t.Fatalf("unexpected events: %+v", events)
	}
}
