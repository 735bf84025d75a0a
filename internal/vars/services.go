package vars

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// emptyService handles the absent value by promoting it to the other
// operand's zero value.
type emptyService struct{}

func (emptyService) Compare(op Operator, a, b Var, strict bool) (bool, error) {
	switch op {
	case Equals:
		return b.IsEmpty(), nil
	case Contains:
		return false, nil
	}
	if b.IsEmpty() {
		ok, _ := compareOrdered(op, 0)
		return ok, nil
	}
	zero, err := Ops{Strict: strict}.ConvertTo(Empty, b.Type())
	if err != nil {
		return false, nil
	}
	return Ops{Strict: strict}.Compare(op, zero, b)
}

func (emptyService) Combine(op Operator, a, b Var, strict bool) (Var, error) {
	if b.IsEmpty() {
		return Empty, nil
	}
	zero, err := Ops{Strict: strict}.ConvertTo(Empty, b.Type())
	if err != nil {
		return Empty, incompatible(op, a, b)
	}
	return Ops{Strict: strict}.Combine(op, zero, b)
}

func (emptyService) Unary(op Operator, a Var) (Var, error) {
	switch op {
	case Increment:
		return Int(1), nil
	case Decrement:
		return Int(-1), nil
	case Not:
		return Bool(true), nil
	case Negate:
		return Empty, nil
	}
	return Empty, incompatible(op, a, Empty)
}

func (emptyService) ConvertTo(a Var, target Type, strict bool) (Var, bool) {
	return Empty, false
}

func (emptyService) Duplicate(a Var) Var { return a }

// boolService degrades non-equality operators to numeric operations with
// true as 1 and false as 0.
type boolService struct{}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (boolService) Compare(op Operator, a, b Var, strict bool) (bool, error) {
	if op == Contains {
		return false, incompatible(op, a, b)
	}
	if bb, ok := b.Bool(); ok {
		if op == Equals {
			return a.b == bb, nil
		}
		ok, _ := compareNumbers(op, float64(boolToInt(a.b)), float64(boolToInt(bb)))
		return ok, nil
	}
	y, ok := toNumber(b, strict)
	if !ok {
		if op == Equals || strict {
			return false, nil
		}
		return false, incompatible(op, a, b)
	}
	res, _ := compareNumbers(op, float64(boolToInt(a.b)), y)
	return res, nil
}

func (boolService) Combine(op Operator, a, b Var, strict bool) (Var, error) {
	bb, isBool := b.Bool()
	if strict && !isBool {
		return Empty, incompatible(op, a, b)
	}
	switch op {
	case LogicalAnd:
		if isBool {
			return Bool(a.b && bb), nil
		}
		return Bool(a.b && b.Truthy()), nil
	case LogicalOr:
		if isBool {
			return Bool(a.b || bb), nil
		}
		return Bool(a.b || b.Truthy()), nil
	}
	right := b
	if isBool {
		right = Int(boolToInt(bb))
	}
	return intService{}.Combine(op, Int(boolToInt(a.b)), right, strict)
}

func (boolService) Unary(op Operator, a Var) (Var, error) {
	if op == Not {
		return Bool(!a.b), nil
	}
	return intService{}.Unary(op, Int(boolToInt(a.b)))
}

func (boolService) ConvertTo(a Var, target Type, strict bool) (Var, bool) {
	if a.IsEmpty() {
		if target == TypeBool {
			return Bool(false), true
		}
		return Empty, false
	}
	if strict {
		return Empty, false
	}
	switch target {
	case TypeInt:
		return Int(boolToInt(a.b)), true
	case TypeFloat:
		return Float(float64(boolToInt(a.b))), true
	case TypeString:
		return String(strconv.FormatBool(a.b)), true
	}
	return Empty, false
}

func (boolService) Duplicate(a Var) Var { return a }

// intService performs arithmetic in float64 and snaps whole results back to Int.
type intService struct{}

func (intService) Compare(op Operator, a, b Var, strict bool) (bool, error) {
	return compareNumeric(op, float64(a.i), a, b, strict)
}

func (intService) Combine(op Operator, a, b Var, strict bool) (Var, error) {
	r, err := combineNumeric(op, float64(a.i), a, b, strict)
	if err != nil {
		return Empty, err
	}
	if op == LogicalAnd || op == LogicalOr {
		return r, nil
	}
	f, _ := r.Float()
	return snap(f), nil
}

func (intService) Unary(op Operator, a Var) (Var, error) {
	switch op {
	case Increment:
		return snap(float64(a.i) + 1), nil
	case Decrement:
		return snap(float64(a.i) - 1), nil
	case Negate:
		return Int(-a.i), nil
	case Not:
		return Bool(a.i == 0), nil
	}
	return Empty, incompatible(op, a, Empty)
}

func (intService) ConvertTo(a Var, target Type, strict bool) (Var, bool) {
	if a.IsEmpty() {
		if target == TypeInt {
			return Int(0), true
		}
		return Empty, false
	}
	switch target {
	case TypeFloat:
		return Float(float64(a.i)), true
	case TypeBool:
		if !strict {
			return Bool(a.i != 0), true
		}
	case TypeString:
		if !strict {
			return String(strconv.Itoa(a.i)), true
		}
	}
	return Empty, false
}

func (intService) Duplicate(a Var) Var { return a }

type floatService struct{}

func (floatService) Compare(op Operator, a, b Var, strict bool) (bool, error) {
	return compareNumeric(op, a.f, a, b, strict)
}

func (floatService) Combine(op Operator, a, b Var, strict bool) (Var, error) {
	return combineNumeric(op, a.f, a, b, strict)
}

func (floatService) Unary(op Operator, a Var) (Var, error) {
	switch op {
	case Increment:
		return Float(a.f + 1), nil
	case Decrement:
		return Float(a.f - 1), nil
	case Negate:
		return Float(-a.f), nil
	case Not:
		return Bool(a.f == 0), nil
	}
	return Empty, incompatible(op, a, Empty)
}

func (floatService) ConvertTo(a Var, target Type, strict bool) (Var, bool) {
	if a.IsEmpty() {
		if target == TypeFloat {
			return Float(0), true
		}
		return Empty, false
	}
	switch target {
	case TypeInt:
		if n, ok := wholeFloat(a.f); ok {
			return Int(n), true
		}
		if !strict {
			if n, ok := wholeFloat(roundToEven(a.f)); ok {
				return Int(n), true
			}
		}
	case TypeBool:
		if !strict {
			return Bool(a.f != 0), true
		}
	case TypeString:
		if !strict {
			return String(formatFloat(a.f)), true
		}
	}
	return Empty, false
}

func (floatService) Duplicate(a Var) Var { return a }

func compareNumeric(op Operator, x float64, a, b Var, strict bool) (bool, error) {
	if op == Contains {
		return false, incompatible(op, a, b)
	}
	y, ok := toNumber(b, strict)
	if !ok {
		if op == Equals || strict {
			return false, nil
		}
		return false, incompatible(op, a, b)
	}
	res, _ := compareNumbers(op, x, y)
	return res, nil
}

// combineNumeric returns a Float result; integer callers snap it.
func combineNumeric(op Operator, x float64, a, b Var, strict bool) (Var, error) {
	if op == LogicalAnd || op == LogicalOr {
		if strict {
			return Empty, incompatible(op, a, b)
		}
		if op == LogicalAnd {
			return Bool(a.Truthy() && b.Truthy()), nil
		}
		return Bool(a.Truthy() || b.Truthy()), nil
	}
	y, ok := toNumber(b, strict)
	if !ok {
		return Empty, incompatible(op, a, b)
	}
	r, err := combineNumbers(op, x, y)
	if err != nil {
		return Empty, err
	}
	return Float(r), nil
}

// stringService compares numerically when both sides parse as numbers,
// unless strict, and otherwise by collation order.
type stringService struct{}

func (stringService) Compare(op Operator, a, b Var, strict bool) (bool, error) {
	bs, isString := b.Str()
	switch op {
	case Equals:
		if isString {
			return a.s == bs, nil
		}
		if strict || b.IsEmpty() {
			return false, nil
		}
		if b.IsNumber() {
			x, ok := parseNumber(a.s)
			if !ok {
				return false, nil
			}
			y, _ := b.Float()
			return x == y, nil
		}
		return a.s == b.String(), nil

	case Contains:
		if isString {
			return strings.Contains(a.s, bs), nil
		}
		if strict || b.IsEmpty() {
			return false, nil
		}
		return strings.Contains(a.s, b.String()), nil
	}

	if !strict {
		if x, ok := parseNumber(a.s); ok {
			if y, ok := toNumber(b, false); ok && !b.IsEmpty() {
				res, _ := compareNumbers(op, x, y)
				return res, nil
			}
		}
	}
	if !isString {
		if strict {
			return false, nil
		}
		bs = b.String()
	}
	res, _ := compareOrdered(op, collateStrings(a.s, bs))
	return res, nil
}

func (stringService) Combine(op Operator, a, b Var, strict bool) (Var, error) {
	if op != Add {
		return Empty, incompatible(op, a, b)
	}
	if bs, ok := b.Str(); ok {
		return String(a.s + bs), nil
	}
	if strict {
		return Empty, incompatible(op, a, b)
	}
	return String(a.s + b.String()), nil
}

func (stringService) Unary(op Operator, a Var) (Var, error) {
	if op == Not {
		return Bool(a.s == ""), nil
	}
	return Empty, incompatible(op, a, Empty)
}

func (stringService) ConvertTo(a Var, target Type, strict bool) (Var, bool) {
	if a.IsEmpty() {
		if target == TypeString {
			return String(""), true
		}
		return Empty, false
	}
	if strict {
		return Empty, false
	}
	switch target {
	case TypeInt:
		if n, err := strconv.Atoi(strings.TrimSpace(a.s)); err == nil {
			return Int(n), true
		}
		if f, ok := parseNumber(a.s); ok {
			if n, ok := wholeFloat(f); ok {
				return Int(n), true
			}
		}
	case TypeFloat:
		if f, ok := parseNumber(a.s); ok {
			return Float(f), true
		}
	case TypeBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(a.s)); err == nil {
			return Bool(b), true
		}
	}
	return Empty, false
}

func (stringService) Duplicate(a Var) Var { return a }

// stringMember supports "length" and 1-based (negative from the end)
// character indexing.
func stringMember(s string, member Var) (Var, error) {
	if name, ok := member.Str(); ok {
		if name == "length" {
			return Int(utf8.RuneCountInString(s)), nil
		}
		return Empty, &memberError{Member: member.String(), Type: TypeString}
	}
	pos, ok := member.Int()
	if !ok {
		return Empty, &VarTypeError{Operation: "member", From: TypeString, To: member.Type()}
	}
	runes := []rune(s)
	idx, ok := resolveIndex(pos, len(runes))
	if !ok {
		return Empty, &memberError{Member: member.String(), Type: TypeString}
	}
	return String(string(runes[idx])), nil
}

// resolveIndex maps a 1-based position (negative counts from the end) to a
// 0-based slice index.
func resolveIndex(pos, length int) (int, bool) {
	switch {
	case pos > 0 && pos <= length:
		return pos - 1, true
	case pos < 0 && -pos <= length:
		return length + pos, true
	}
	return 0, false
}

func roundToEven(f float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 0, 64), 64)
	return r
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

func collateStrings(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}
