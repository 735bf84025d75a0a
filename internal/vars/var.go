// Package vars implements the dynamically-typed story variable system.
//
// A Var is a tagged value: empty, a scalar (bool, int, float, string) or an
// aggregate implementing VarType. Operators are dispatched to the TypeService
// registered for the left operand's type; aggregates without a registered
// service handle operators themselves.
package vars

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the storage tag of a Var.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

// Type names a concrete backing type. Scalars use the constants below,
// aggregates report their own name through VarType.TypeName.
type Type string

const (
	TypeEmpty  Type = "empty"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
)

// Var is a story variable value. The zero value is Empty.
type Var struct {
	kind Kind
	b    bool
	i    int
	f    float64
	s    string
	obj  VarType
}

// Empty is the absent value.
var Empty = Var{}

// Bool returns a boolean Var.
func Bool(b bool) Var { return Var{kind: KindBool, b: b} }

// Int returns an integer Var.
func Int(n int) Var { return Var{kind: KindInt, i: n} }

// Float returns a floating point Var.
func Float(f float64) Var { return Var{kind: KindFloat, f: f} }

// String returns a string Var.
func String(s string) Var { return Var{kind: KindString, s: s} }

// Object wraps an aggregate. A nil aggregate yields Empty.
func Object(t VarType) Var {
	if t == nil {
		return Empty
	}
	return Var{kind: KindObject, obj: t}
}

// From converts a Go value into a Var. Nested Vars are flattened so a Var
// never carries another Var as its payload.
func From(value any) (Var, error) {
	switch v := value.(type) {
	case nil:
		return Empty, nil
	case Var:
		return v, nil
	case *Var:
		if v == nil {
			return Empty, nil
		}
		return *v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(int(v)), nil
	case int16:
		return Int(int(v)), nil
	case int32:
		return Int(int(v)), nil
	case int64:
		return Int(int(v)), nil
	case uint:
		return Int(int(v)), nil
	case uint8:
		return Int(int(v)), nil
	case uint16:
		return Int(int(v)), nil
	case uint32:
		return Int(int(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Float(float64(v)), nil
		}
		return Int(int(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case VarType:
		return Object(v), nil
	case []Var:
		return Object(NewList(v...)), nil
	case []any:
		items := make([]Var, 0, len(v))
		for i, raw := range v {
			item, err := From(raw)
			if err != nil {
				return Empty, fmt.Errorf("list item %d: %w", i+1, err)
			}
			items = append(items, item)
		}
		return Object(NewList(items...)), nil
	case map[string]Var:
		m := NewMap()
		for _, key := range sortedKeys(v) {
			m.Put(key, v[key])
		}
		return Object(m), nil
	case map[string]any:
		m := NewMap()
		for _, key := range sortedKeys(v) {
			item, err := From(v[key])
			if err != nil {
				return Empty, fmt.Errorf("map key %q: %w", key, err)
			}
			m.Put(key, item)
		}
		return Object(m), nil
	default:
		return Empty, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// Of is like From but panics on unsupported values.
func Of(value any) Var {
	v, err := From(value)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind returns the storage tag.
func (v Var) Kind() Kind { return v.kind }

// Type returns the concrete type name used for service dispatch.
func (v Var) Type() Type {
	switch v.kind {
	case KindBool:
		return TypeBool
	case KindInt:
		return TypeInt
	case KindFloat:
		return TypeFloat
	case KindString:
		return TypeString
	case KindObject:
		return v.obj.TypeName()
	default:
		return TypeEmpty
	}
}

// IsEmpty reports whether v holds no value.
func (v Var) IsEmpty() bool { return v.kind == KindEmpty }

// IsNumber reports whether v is an int or a float.
func (v Var) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Bool returns the boolean payload.
func (v Var) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload.
func (v Var) Int() (int, bool) { return v.i, v.kind == KindInt }

// Float returns the float payload. Integers are widened.
func (v Var) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the string payload.
func (v Var) Str() (string, bool) { return v.s, v.kind == KindString }

// Object returns the aggregate payload.
func (v Var) Object() (VarType, bool) { return v.obj, v.kind == KindObject }

// Value returns the raw Go payload.
func (v Var) Value() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindObject:
		return v.obj
	default:
		return nil
	}
}

// Truthy reports the value's truthiness for conditionals.
func (v Var) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindObject:
		return true
	default:
		return false
	}
}

// String renders the value for display.
func (v Var) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindObject:
		if s, ok := v.obj.(fmt.Stringer); ok {
			return s.String()
		}
		return string(v.obj.TypeName())
	default:
		return ""
	}
}

// Equals reports non-strict equality through the left operand's service.
func (v Var) Equals(other Var) bool {
	ok, err := Ops{}.Compare(Equals, v, other)
	return err == nil && ok
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
