// Package story plays compiled passages as a resumable session.
//
// A Session walks the lazy output sequence of the current passage, places
// each item in the Output list and dispatches notifications and cues between
// items. Any cue may pause playback; Resume continues from the exact step
// that was next.
package story

import (
	"errors"
	"fmt"

	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/vars"
)

// Story errors.
var (
	ErrDuplicatePassage = errors.New("duplicate passage")
	ErrInvalidState     = errors.New("invalid playback state")
	ErrNotFound         = errors.New("not found")
	ErrNoStartPassage   = errors.New("story has no start passage")
)

// Passage is a named unit of narrative. Factory builds a fresh lazy output
// sequence each time the passage is entered or embedded.
type Passage struct {
	Name    string
	Tags    []string
	Factory func(*Session) output.Sequence
}

// HasTag reports whether the passage carries tag.
func (p *Passage) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Variable is an initial variable assignment.
type Variable struct {
	Name  string
	Value vars.Var
}

// Story is the compiled passage table.
type Story struct {
	Name         string
	StartPassage string
	Strict       bool
	Variables    []Variable

	passages map[string]*Passage
	order    []string
}

// New returns an empty story.
func New(name string) *Story {
	return &Story{Name: name, passages: make(map[string]*Passage)}
}

// Add registers a passage. Names are unique; the first added passage is the
// default start passage.
func (s *Story) Add(p Passage) error {
	if p.Name == "" {
		return errors.New("passage name is required")
	}
	if _, exists := s.passages[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePassage, p.Name)
	}
	if p.Factory == nil {
		p.Factory = func(*Session) output.Sequence { return output.Empty() }
	}
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	p.Tags = tags
	s.passages[p.Name] = &p
	s.order = append(s.order, p.Name)
	return nil
}

// MustAdd is Add that panics on error.
func (s *Story) MustAdd(p Passage) *Story {
	if err := s.Add(p); err != nil {
		panic(err)
	}
	return s
}

// Passage returns the named passage.
func (s *Story) Passage(name string) (*Passage, bool) {
	p, ok := s.passages[name]
	return p, ok
}

// Passages returns passages in registration order.
func (s *Story) Passages() []*Passage {
	out := make([]*Passage, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.passages[name])
	}
	return out
}

// Start returns the start passage name.
func (s *Story) Start() (string, error) {
	if s.StartPassage != "" {
		return s.StartPassage, nil
	}
	if len(s.order) == 0 {
		return "", ErrNoStartPassage
	}
	return s.order[0], nil
}
