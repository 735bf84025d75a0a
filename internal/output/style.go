package output

import (
	"sort"
	"strings"

	"github.com/opencode-ai/cradle/internal/vars"
)

// TypeStyle is the var type name of style records.
const TypeStyle vars.Type = "style"

// Style is an ordered key to value record describing text presentation.
// It is a vars aggregate, so conditions can test style keys with Contains.
type Style struct {
	keys   []string
	values map[string]vars.Var
}

// NewStyle returns an empty style.
func NewStyle() *Style {
	return &Style{values: make(map[string]vars.Var)}
}

// StyleOf builds a style from a map, keys sorted.
func StyleOf(values map[string]vars.Var) *Style {
	s := NewStyle()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Set(k, values[k])
	}
	return s
}

// Set assigns key and returns s for chaining.
func (s *Style) Set(key string, v vars.Var) *Style {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
	return s
}

// Get returns the value for key.
func (s *Style) Get(key string) (vars.Var, bool) {
	if s == nil {
		return vars.Empty, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is set.
func (s *Style) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the keys in assignment order.
func (s *Style) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of keys.
func (s *Style) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Merge returns a new style with other's keys overriding s.
func (s *Style) Merge(other *Style) *Style {
	out := NewStyle()
	for _, k := range s.Keys() {
		out.Set(k, s.values[k])
	}
	for _, k := range other.Keys() {
		out.Set(k, other.values[k])
	}
	return out
}

func (s *Style) TypeName() vars.Type { return TypeStyle }

func (s *Style) GetMember(member vars.Var) (vars.Var, error) {
	if v, ok := s.Get(member.String()); ok {
		return v, nil
	}
	return vars.Empty, nil
}

func (s *Style) SetMember(member vars.Var, value vars.Var) error {
	s.Set(member.String(), value)
	return nil
}

func (s *Style) RemoveMember(member vars.Var) error {
	key := member.String()
	if _, ok := s.values[key]; !ok {
		return vars.ErrMemberNotFound
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Compare implements Equals (same keys and values) and Contains (key set,
// or every key of another style with an equal value).
func (s *Style) Compare(op vars.Operator, other vars.Var) (bool, error) {
	switch op {
	case vars.Equals:
		o, ok := asStyle(other)
		if !ok || o.Len() != s.Len() {
			return false, nil
		}
		return s.includes(o), nil
	case vars.Contains:
		if o, ok := asStyle(other); ok {
			return s.includes(o), nil
		}
		return s.Has(other.String()), nil
	}
	return false, &vars.VarTypeError{Operation: op.String(), From: TypeStyle, To: other.Type()}
}

func (s *Style) includes(o *Style) bool {
	for _, k := range o.keys {
		v, ok := s.values[k]
		if !ok || !v.Equals(o.values[k]) {
			return false
		}
	}
	return true
}

func (s *Style) Combine(op vars.Operator, other vars.Var) (vars.Var, error) {
	if o, ok := asStyle(other); ok && op == vars.Add {
		return vars.Object(s.Merge(o)), nil
	}
	return vars.Empty, &vars.VarTypeError{Operation: op.String(), From: TypeStyle, To: other.Type()}
}

func (s *Style) Unary(op vars.Operator) (vars.Var, error) {
	return vars.Empty, &vars.VarTypeError{Operation: op.String(), From: TypeStyle, To: vars.TypeEmpty}
}

func (s *Style) ConvertTo(target vars.Type, strict bool) (vars.Var, bool) {
	if target == vars.TypeString && !strict {
		return vars.String(s.String()), true
	}
	return vars.Empty, false
}

func (s *Style) Duplicate() vars.VarType {
	return NewStyle().Merge(s)
}

func (s *Style) String() string {
	parts := make([]string, 0, s.Len())
	for _, k := range s.Keys() {
		parts = append(parts, k+"="+s.values[k].String())
	}
	return strings.Join(parts, " ")
}

func asStyle(v vars.Var) (*Style, bool) {
	obj, ok := v.Object()
	if !ok {
		return nil, false
	}
	s, ok := obj.(*Style)
	return s, ok
}

// StyleGroup is a node in the style scope tree.
type StyleGroup struct {
	Style  *Style
	Parent *StyleGroup
}

// Effective folds the group chain from root to leaf; the leaf wins.
func (g *StyleGroup) Effective() *Style {
	var chain []*StyleGroup
	for n := g; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	out := NewStyle()
	for i := len(chain) - 1; i >= 0; i-- {
		out = out.Merge(chain[i].Style)
	}
	return out
}

// Within reports whether g is anchor or one of its descendants.
func (g *StyleGroup) Within(anchor *StyleGroup) bool {
	for n := g; n != nil; n = n.Parent {
		if n == anchor {
			return true
		}
	}
	return false
}
