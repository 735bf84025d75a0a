package vars

import "strings"

// TypeList is the type name of List aggregates.
const TypeList Type = "list"

// List is an ordered array aggregate with 1-based member access.
type List struct {
	items []Var
}

// NewList returns a list holding items.
func NewList(items ...Var) *List {
	l := &List{items: make([]Var, 0, len(items))}
	l.items = append(l.items, items...)
	return l
}

func (l *List) TypeName() Type { return TypeList }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the items.
func (l *List) Items() []Var {
	out := make([]Var, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds v to the end of the list.
func (l *List) Append(v Var) { l.items = append(l.items, v) }

func (l *List) GetMember(member Var) (Var, error) {
	if name, ok := member.Str(); ok && name == "length" {
		return Int(len(l.items)), nil
	}
	pos, ok := member.Int()
	if !ok {
		return Empty, &memberError{Member: member.String(), Type: TypeList}
	}
	idx, ok := resolveIndex(pos, len(l.items))
	if !ok {
		return Empty, &memberError{Member: member.String(), Type: TypeList}
	}
	return l.items[idx], nil
}

// SetMember replaces an existing position, or appends when pos is one past
// the end.
func (l *List) SetMember(member Var, value Var) error {
	pos, ok := member.Int()
	if !ok {
		return &VarTypeError{Operation: "member", From: TypeList, To: member.Type()}
	}
	if pos == len(l.items)+1 {
		l.items = append(l.items, value)
		return nil
	}
	idx, ok := resolveIndex(pos, len(l.items))
	if !ok {
		return &memberError{Member: member.String(), Type: TypeList}
	}
	l.items[idx] = value
	return nil
}

func (l *List) RemoveMember(member Var) error {
	pos, ok := member.Int()
	if !ok {
		return &VarTypeError{Operation: "member", From: TypeList, To: member.Type()}
	}
	idx, ok := resolveIndex(pos, len(l.items))
	if !ok {
		return &memberError{Member: member.String(), Type: TypeList}
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

func (l *List) Compare(op Operator, other Var) (bool, error) {
	switch op {
	case Equals:
		o, ok := asList(other)
		if !ok || len(o.items) != len(l.items) {
			return false, nil
		}
		for i := range l.items {
			if !l.items[i].Equals(o.items[i]) {
				return false, nil
			}
		}
		return true, nil
	case Contains:
		return l.indexOf(other) >= 0, nil
	}
	return false, incompatible(op, Object(l), other)
}

func (l *List) Combine(op Operator, other Var) (Var, error) {
	switch op {
	case Add:
		out := l.Duplicate().(*List)
		if o, ok := asList(other); ok {
			for _, item := range o.items {
				out.items = append(out.items, Duplicate(item))
			}
		} else {
			out.items = append(out.items, Duplicate(other))
		}
		return Object(out), nil
	case Subtract:
		out := NewList()
		remove := []Var{other}
		if o, ok := asList(other); ok {
			remove = o.items
		}
		for _, item := range l.items {
			if !containsVar(remove, item) {
				out.items = append(out.items, Duplicate(item))
			}
		}
		return Object(out), nil
	}
	return Empty, incompatible(op, Object(l), other)
}

func (l *List) Unary(op Operator) (Var, error) {
	return Empty, incompatible(op, Object(l), Empty)
}

func (l *List) ConvertTo(target Type, strict bool) (Var, bool) {
	if target == TypeString && !strict {
		return String(l.String()), true
	}
	return Empty, false
}

func (l *List) Duplicate() VarType {
	out := &List{items: make([]Var, len(l.items))}
	for i, item := range l.items {
		out.items[i] = Duplicate(item)
	}
	return out
}

func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, item := range l.items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ", ")
}

func (l *List) indexOf(v Var) int {
	for i, item := range l.items {
		if item.Equals(v) {
			return i
		}
	}
	return -1
}

func asList(v Var) (*List, bool) {
	obj, ok := v.Object()
	if !ok {
		return nil, false
	}
	l, ok := obj.(*List)
	return l, ok
}

func containsVar(items []Var, v Var) bool {
	for _, item := range items {
		if item.Equals(v) {
			return true
		}
	}
	return false
}
