package story

import "fmt"

// State is the playback state of a session.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Exiting:
		return "exiting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateError rejects a call that is illegal in the current state.
type StateError struct {
	Op     string
	State  State
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is matches ErrInvalidState.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// LookupError reports an unknown passage or link.
type LookupError struct {
	Kind string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Is matches ErrNotFound.
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}
