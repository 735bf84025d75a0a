package vars

import (
	"fmt"
	"strings"
)

// Operator identifies a comparison, binary or unary operation.
type Operator int

const (
	Equals Operator = iota
	GreaterThan
	GreaterThanOrEquals
	LessThan
	LessThanOrEquals
	Contains

	Add
	Subtract
	Multiply
	Divide
	Modulo
	LogicalAnd
	LogicalOr

	Increment
	Decrement
	Not
	Negate
)

var operatorNames = map[Operator]string{
	Equals:              "==",
	GreaterThan:         ">",
	GreaterThanOrEquals: ">=",
	LessThan:            "<",
	LessThanOrEquals:    "<=",
	Contains:            "contains",
	Add:                 "+",
	Subtract:            "-",
	Multiply:            "*",
	Divide:              "/",
	Modulo:              "%",
	LogicalAnd:          "and",
	LogicalOr:           "or",
	Increment:           "++",
	Decrement:           "--",
	Not:                 "not",
	Negate:              "neg",
}

var operatorAliases = map[string]Operator{
	"eq":  Equals,
	"is":  Equals,
	"gt":  GreaterThan,
	"gte": GreaterThanOrEquals,
	"lt":  LessThan,
	"lte": LessThanOrEquals,
	"&&":  LogicalAnd,
	"||":  LogicalOr,
	"!":   Not,
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// IsComparison reports whether o is evaluated with Compare.
func (o Operator) IsComparison() bool { return o >= Equals && o <= Contains }

// IsBinary reports whether o is evaluated with Combine.
func (o Operator) IsBinary() bool { return o >= Add && o <= LogicalOr }

// IsUnary reports whether o is evaluated with Unary.
func (o Operator) IsUnary() bool { return o >= Increment && o <= Negate }

// ParseOperator resolves an operator symbol or alias.
func ParseOperator(symbol string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(symbol))
	for op, name := range operatorNames {
		if name == key {
			return op, nil
		}
	}
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown operator %q", symbol)
}

// compareOrdered applies an ordering operator to a three-way comparison result.
func compareOrdered(op Operator, cmp int) (bool, bool) {
	switch op {
	case Equals:
		return cmp == 0, true
	case GreaterThan:
		return cmp > 0, true
	case GreaterThanOrEquals:
		return cmp >= 0, true
	case LessThan:
		return cmp < 0, true
	case LessThanOrEquals:
		return cmp <= 0, true
	}
	return false, false
}
