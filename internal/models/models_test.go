package models

import (
	"errors"
	"testing"
)

func TestEventValidate(t *testing.T) {
	event := &Event{}
	err := event.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *ValidationErrors
	if !errors.As(err, &verr) || len(verr.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %v", err)
	}

	event = &Event{Type: EventTypePassageEntered, EntityType: EntityTypeSession, EntityID: "s-1"}
	if err := event.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionValidate(t *testing.T) {
	s := &Session{Passages: -1}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); got != "story: story is required; passages: passages must not be negative" {
		t.Fatalf("unexpected message %q", got)
	}
	if !(&Session{Story: "cellar"}).Active() {
		t.Fatal("expected new session to be active")
	}
}
