package vars

import (
	"fmt"
	"sort"
	"sync"
)

// Store holds the named variables of a session. In strict mode a variable
// keeps the concrete type of its first non-empty assignment.
type Store struct {
	mu     sync.RWMutex
	strict bool
	values map[string]Var
}

// NewStore creates an empty store.
func NewStore(strict bool) *Store {
	return &Store{strict: strict, values: make(map[string]Var)}
}

// Strict reports whether strict mode is enforced.
func (s *Store) Strict() bool { return s.strict }

// Ops returns the operator set matching the store's strictness.
func (s *Store) Ops() Ops { return Ops{Strict: s.strict} }

// Get returns the named value, or Empty when unset.
func (s *Store) Get(name string) Var {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}

// Lookup returns the named value or ErrVarNotFound.
func (s *Store) Lookup(name string) (Var, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok {
		return Empty, fmt.Errorf("%w: %s", ErrVarNotFound, name)
	}
	return v, nil
}

// Set assigns value to name. Aggregates are copied. In strict mode a value of
// a different type is converted losslessly to the previous type or rejected
// with a *StrictModeError.
func (s *Store) Set(name string, value Var) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(name, value)
}

func (s *Store) setLocked(name string, value Var) error {
	value = Duplicate(value)
	prev, ok := s.values[name]
	if s.strict && ok && !prev.IsEmpty() && !value.IsEmpty() && prev.Type() != value.Type() {
		converted, err := Ops{Strict: true}.ConvertTo(value, prev.Type())
		if err != nil {
			return &StrictModeError{Name: name, From: prev.Type(), To: value.Type()}
		}
		value = converted
	}
	s.values[name] = value
	return nil
}

// Apply evaluates op with the current value as left operand and stores the
// result. Unary operators ignore operand.
func (s *Store) Apply(name string, op Operator, operand Var) (Var, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := Ops{Strict: s.strict}.Apply(op, s.values[name], operand)
	if err != nil {
		return Empty, fmt.Errorf("%s %s %s: %w", name, op, operand, err)
	}
	if err := s.setLocked(name, result); err != nil {
		return Empty, err
	}
	return s.values[name], nil
}

// Delete removes name.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// Names returns the variable names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset removes every variable.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]Var)
}

// GetMember reads a member of the named value.
func (s *Store) GetMember(name string, member Var) (Var, error) {
	s.mu.RLock()
	v, ok := s.values[name]
	s.mu.RUnlock()
	if !ok {
		return Empty, fmt.Errorf("%w: %s", ErrVarNotFound, name)
	}
	return Ops{Strict: s.strict}.GetMember(v, member)
}

// SetMember writes a member of the named aggregate.
func (s *Store) SetMember(name string, member, value Var) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVarNotFound, name)
	}
	return Ops{Strict: s.strict}.SetMember(v, member, Duplicate(value))
}
