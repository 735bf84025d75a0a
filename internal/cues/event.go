// Package cues resolves, validates, orders and invokes the listener
// callbacks ("cues") that react to passage playback events.
//
// Listeners are registered explicitly on named targets. A cue is either an
// explicit declaration (event kind plus optional passage, tag and link
// qualifiers) or a method whose name follows the <Passage>_<Suffix>
// convention.
package cues

import (
	"fmt"
	"sync/atomic"

	"github.com/opencode-ai/cradle/internal/output"
)

// EventKind identifies a playback event that cues react to.
type EventKind int

const (
	Enter EventKind = iota
	Exit
	Done
	Update
	Output
	LinkBegin
	LinkDone
)

var kindNames = map[EventKind]string{
	Enter:     "Enter",
	Exit:      "Exit",
	Done:      "Done",
	Update:    "Update",
	Output:    "Output",
	LinkBegin: "LinkBegin",
	LinkDone:  "LinkDone",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind resolves a kind name, case-sensitively.
func ParseEventKind(name string) (EventKind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown cue event %q", name)
}

// AllowsSuspending reports whether cues of this kind may return a
// Suspension. Update cues run every tick and must return nothing.
func (k EventKind) AllowsSuspending() bool {
	switch k {
	case Enter, Exit, Output, LinkBegin:
		return true
	}
	return false
}

// suffix is the conventional method name suffix. Link kinds are named
// <Passage>_<Link>_<suffix>.
func (k EventKind) suffix() string {
	switch k {
	case LinkBegin:
		return "Begin"
	case LinkDone:
		return "Done"
	}
	return k.String()
}

func (k EventKind) isLinkKind() bool { return k == LinkBegin || k == LinkDone }

// Event is passed to cue handlers.
type Event struct {
	Kind    EventKind
	Passage string
	Link    *output.Link
	Item    output.Item
}

// LinkName returns the name of the event's link, if any.
func (e Event) LinkName() string {
	if e.Link == nil {
		return ""
	}
	return e.Link.Name
}

// Suspension is returned by long-running cues. Playback pauses until Done
// reports true.
type Suspension interface {
	Done() bool
}

// SuspensionFunc adapts a function to a Suspension.
type SuspensionFunc func() bool

func (f SuspensionFunc) Done() bool { return f() }

// Wait is a Suspension finished manually.
type Wait struct {
	done atomic.Bool
}

// NewWait returns an unfinished Wait.
func NewWait() *Wait { return &Wait{} }

// Finish marks the wait as done.
func (w *Wait) Finish() { w.done.Store(true) }

func (w *Wait) Done() bool { return w.done.Load() }
