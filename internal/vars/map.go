package vars

import (
	"sort"
	"strings"
)

// TypeMap is the type name of Map aggregates.
const TypeMap Type = "map"

// Map is a string-keyed aggregate that remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Var
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Var)}
}

func (m *Map) TypeName() Type { return TypeMap }

// Put sets key to v.
func (m *Map) Put(key string, v Var) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored for key.
func (m *Map) Get(key string) (Var, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

func (m *Map) GetMember(member Var) (Var, error) {
	key := member.String()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	if key == "length" {
		return Int(len(m.keys)), nil
	}
	return Empty, &memberError{Member: key, Type: TypeMap}
}

func (m *Map) SetMember(member Var, value Var) error {
	if member.IsEmpty() {
		return &VarTypeError{Operation: "member", From: TypeMap, To: TypeEmpty}
	}
	m.Put(member.String(), value)
	return nil
}

func (m *Map) RemoveMember(member Var) error {
	key := member.String()
	if _, ok := m.values[key]; !ok {
		return &memberError{Member: key, Type: TypeMap}
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Compare implements Equals (same key set and equal values) and Contains
// (key membership).
func (m *Map) Compare(op Operator, other Var) (bool, error) {
	switch op {
	case Equals:
		obj, ok := other.Object()
		if !ok {
			return false, nil
		}
		o, ok := obj.(*Map)
		if !ok || len(o.keys) != len(m.keys) {
			return false, nil
		}
		for key, v := range m.values {
			ov, ok := o.values[key]
			if !ok || !v.Equals(ov) {
				return false, nil
			}
		}
		return true, nil
	case Contains:
		_, ok := m.values[other.String()]
		return ok, nil
	}
	return false, incompatible(op, Object(m), other)
}

func (m *Map) Combine(op Operator, other Var) (Var, error) {
	if op != Add {
		return Empty, incompatible(op, Object(m), other)
	}
	obj, ok := other.Object()
	if !ok {
		return Empty, incompatible(op, Object(m), other)
	}
	o, ok := obj.(*Map)
	if !ok {
		return Empty, incompatible(op, Object(m), other)
	}
	out := m.Duplicate().(*Map)
	for _, key := range o.keys {
		out.Put(key, Duplicate(o.values[key]))
	}
	return Object(out), nil
}

func (m *Map) Unary(op Operator) (Var, error) {
	return Empty, incompatible(op, Object(m), Empty)
}

func (m *Map) ConvertTo(target Type, strict bool) (Var, bool) {
	if target == TypeString && !strict {
		return String(m.String()), true
	}
	return Empty, false
}

func (m *Map) Duplicate() VarType {
	out := NewMap()
	for _, key := range m.keys {
		out.Put(key, Duplicate(m.values[key]))
	}
	return out
}

func (m *Map) String() string {
	parts := make([]string, len(m.keys))
	for i, key := range m.keys {
		parts[i] = key + ": " + m.values[key].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
