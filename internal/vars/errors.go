package vars

import (
	"errors"
	"fmt"
)

// Var errors.
var (
	ErrIncompatibleTypes = errors.New("incompatible var types")
	ErrStrictMode        = errors.New("strict mode violation")
	ErrUnsupportedValue  = errors.New("unsupported var value")
	ErrVarNotFound       = errors.New("variable not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrDivideByZero      = errors.New("division by zero")
)

// VarTypeError reports an operation whose operand types are incompatible.
type VarTypeError struct {
	// Operation is the operator or "convert".
	Operation string
	// From is the left operand or source type.
	From Type
	// To is the right operand or target type.
	To Type
}

func (e *VarTypeError) Error() string {
	if e.Operation == "convert" {
		return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("%s: %s and %s", e.Operation, e.From, e.To)
}

// Is matches ErrIncompatibleTypes.
func (e *VarTypeError) Is(target error) bool {
	return target == ErrIncompatibleTypes
}

// StrictModeError reports a strict-mode reassignment to a different type.
type StrictModeError struct {
	Name string
	From Type
	To   Type
}

func (e *StrictModeError) Error() string {
	return fmt.Sprintf("strict mode: variable %q holds %s and cannot be assigned %s", e.Name, e.From, e.To)
}

// Is matches ErrStrictMode.
func (e *StrictModeError) Is(target error) bool {
	return target == ErrStrictMode
}

func incompatible(op Operator, a, b Var) error {
	return &VarTypeError{Operation: op.String(), From: a.Type(), To: b.Type()}
}

func unconvertible(a Var, target Type) error {
	return &VarTypeError{Operation: "convert", From: a.Type(), To: target}
}

type memberError struct {
	Member string
	Type   Type
}

func (e *memberError) Error() string {
	return fmt.Sprintf("%s has no member %q", e.Type, e.Member)
}

func (e *memberError) Is(target error) bool {
	return target == ErrMemberNotFound
}
