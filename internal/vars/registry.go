package vars

import "sync"

// TypeService implements operators for one backing type. Services are
// registered once per type for the whole process; the last registration wins.
type TypeService interface {
	// Compare evaluates a comparison operator with a as the left operand.
	Compare(op Operator, a, b Var, strict bool) (bool, error)
	// Combine evaluates a binary operator with a as the left operand.
	Combine(op Operator, a, b Var, strict bool) (Var, error)
	// Unary evaluates a unary operator.
	Unary(op Operator, a Var) (Var, error)
	// ConvertTo converts a (of this service's type, or Empty when asked to
	// synthesize a zero value) to target. ok is false when unsupported.
	ConvertTo(a Var, target Type, strict bool) (v Var, ok bool)
	// Duplicate returns an independent copy of a.
	Duplicate(a Var) Var
}

// VarType is the capability set of aggregate values.
type VarType interface {
	TypeName() Type
	GetMember(member Var) (Var, error)
	SetMember(member Var, value Var) error
	RemoveMember(member Var) error
	Compare(op Operator, other Var) (bool, error)
	Combine(op Operator, other Var) (Var, error)
	Unary(op Operator) (Var, error)
	ConvertTo(target Type, strict bool) (Var, bool)
	Duplicate() VarType
}

var (
	registryMu sync.RWMutex
	services   = map[Type]TypeService{}
)

func init() {
	Register(TypeEmpty, emptyService{})
	Register(TypeBool, boolService{})
	Register(TypeInt, intService{})
	Register(TypeFloat, floatService{})
	Register(TypeString, stringService{})
}

// Register installs the service for a backing type.
func Register(t Type, svc TypeService) {
	registryMu.Lock()
	defer registryMu.Unlock()
	services[t] = svc
}

// Service returns the service registered for t.
func Service(t Type) (TypeService, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	svc, ok := services[t]
	return svc, ok
}

// Ops evaluates operators with a fixed strictness. The zero value is
// non-strict.
type Ops struct {
	Strict bool
}

// Compare evaluates a comparison through the left operand's service.
func (o Ops) Compare(op Operator, a, b Var) (bool, error) {
	if !op.IsComparison() {
		return false, incompatible(op, a, b)
	}
	if svc, ok := Service(a.Type()); ok {
		return svc.Compare(op, a, b, o.Strict)
	}
	if obj, ok := a.Object(); ok {
		return obj.Compare(op, b)
	}
	return false, incompatible(op, a, b)
}

// Combine evaluates a binary operator through the left operand's service.
func (o Ops) Combine(op Operator, a, b Var) (Var, error) {
	if !op.IsBinary() {
		return Empty, incompatible(op, a, b)
	}
	if svc, ok := Service(a.Type()); ok {
		return svc.Combine(op, a, b, o.Strict)
	}
	if obj, ok := a.Object(); ok {
		return obj.Combine(op, b)
	}
	return Empty, incompatible(op, a, b)
}

// Unary evaluates a unary operator.
func (o Ops) Unary(op Operator, a Var) (Var, error) {
	if !op.IsUnary() {
		return Empty, incompatible(op, a, Empty)
	}
	if svc, ok := Service(a.Type()); ok {
		return svc.Unary(op, a)
	}
	if obj, ok := a.Object(); ok {
		return obj.Unary(op)
	}
	return Empty, incompatible(op, a, Empty)
}

// Apply dispatches op to Compare, Combine or Unary. Comparison results are
// returned as Bool vars.
func (o Ops) Apply(op Operator, a, b Var) (Var, error) {
	switch {
	case op.IsComparison():
		ok, err := o.Compare(op, a, b)
		if err != nil {
			return Empty, err
		}
		return Bool(ok), nil
	case op.IsUnary():
		return o.Unary(op, a)
	default:
		return o.Combine(op, a, b)
	}
}

// ConvertTo converts a to target. Resolution order: exact type, the source
// type's service, the aggregate's own conversion, then the target type's
// service synthesizing a value from Empty.
func (o Ops) ConvertTo(a Var, target Type) (Var, error) {
	if a.Type() == target {
		return a, nil
	}
	if svc, ok := Service(a.Type()); ok {
		if v, ok := svc.ConvertTo(a, target, o.Strict); ok {
			return v, nil
		}
	}
	if obj, ok := a.Object(); ok {
		if v, ok := obj.ConvertTo(target, o.Strict); ok {
			return v, nil
		}
	}
	if a.IsEmpty() {
		if svc, ok := Service(target); ok {
			if v, ok := svc.ConvertTo(Empty, target, o.Strict); ok {
				return v, nil
			}
		}
	}
	return Empty, unconvertible(a, target)
}

// Duplicate copies a through its service, or the aggregate's own Duplicate.
func (o Ops) Duplicate(a Var) Var {
	if svc, ok := Service(a.Type()); ok {
		return svc.Duplicate(a)
	}
	if obj, ok := a.Object(); ok {
		return Object(obj.Duplicate())
	}
	return a
}

// GetMember reads a member of a string or aggregate.
func (o Ops) GetMember(a, member Var) (Var, error) {
	if s, ok := a.Str(); ok {
		return stringMember(s, member)
	}
	if obj, ok := a.Object(); ok {
		return obj.GetMember(member)
	}
	return Empty, &VarTypeError{Operation: "member", From: a.Type(), To: member.Type()}
}

// SetMember writes a member of an aggregate.
func (o Ops) SetMember(a, member, value Var) error {
	if obj, ok := a.Object(); ok {
		return obj.SetMember(member, value)
	}
	return &VarTypeError{Operation: "member", From: a.Type(), To: member.Type()}
}

// RemoveMember deletes a member of an aggregate.
func (o Ops) RemoveMember(a, member Var) error {
	if obj, ok := a.Object(); ok {
		return obj.RemoveMember(member)
	}
	return &VarTypeError{Operation: "member", From: a.Type(), To: member.Type()}
}

// Compare evaluates a non-strict comparison.
func Compare(op Operator, a, b Var) (bool, error) { return Ops{}.Compare(op, a, b) }

// Combine evaluates a non-strict binary operator.
func Combine(op Operator, a, b Var) (Var, error) { return Ops{}.Combine(op, a, b) }

// Unary evaluates a unary operator.
func Unary(op Operator, a Var) (Var, error) { return Ops{}.Unary(op, a) }

// ConvertTo performs a non-strict conversion.
func ConvertTo(a Var, target Type) (Var, error) { return Ops{}.ConvertTo(a, target) }

// Duplicate copies a value.
func Duplicate(a Var) Var { return Ops{}.Duplicate(a) }
