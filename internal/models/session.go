package models

import (
	"strings"
	"time"
)

// Session is a journaled playback run of a story.
type Session struct {
	ID          string     `json:"id"`
	Story       string     `json:"story"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	LastPassage string     `json:"last_passage,omitempty"`
	Passages    int        `json:"passages"`
}

// Active reports whether the session has not been finished.
func (s *Session) Active() bool { return s.EndedAt == nil }

// Validate checks if the session is valid.
func (s *Session) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(s.Story) == "" {
		validation.AddMessage("story", "story is required")
	}
	if s.Passages < 0 {
		validation.AddMessage("passages", "passages must not be negative")
	}
	return validation.Err()
}
