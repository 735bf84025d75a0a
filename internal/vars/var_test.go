package vars

import (
	"errors"
	"math"
	"testing"
)

func TestCombineSnapsWholeResultsToInt(t *testing.T) {
	sum, err := Combine(Add, Int(2), Int(3))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if sum.Kind() != KindInt {
		t.Fatalf("expected int kind, got %s", sum.Type())
	}
	if n, _ := sum.Int(); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}

	third, err := Combine(Divide, Int(1), Int(3))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if third.Kind() != KindFloat {
		t.Fatalf("expected float kind, got %s", third.Type())
	}

	drift, err := Combine(Multiply, Int(10), Float(0.1))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if n, ok := drift.Int(); !ok || n != 1 {
		t.Fatalf("expected 10*0.1 to snap to int 1, got %s (%s)", drift, drift.Type())
	}
}

func TestSnapKeepsOutOfRangeResultsFloat(t *testing.T) {
	for _, op := range []Operator{Multiply, Add} {
		v, err := Combine(op, Int(math.MaxInt64), Int(1))
		if err != nil {
			t.Fatalf("Combine(%s): %v", op, err)
		}
		if v.Kind() != KindFloat {
			t.Fatalf("%s at the int64 bound: expected float, got %s (%s)", op, v, v.Type())
		}
		if f, _ := v.Float(); f <= 0 {
			t.Fatalf("%s at the int64 bound: expected positive result, got %v", op, f)
		}
	}

	low, err := Combine(Subtract, Int(math.MinInt64), Int(0))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if n, ok := low.Int(); !ok || n != math.MinInt64 {
		t.Fatalf("expected MinInt64 to stay int, got %s (%s)", low, low.Type())
	}

	if _, err := ConvertTo(Float(0x1p63), TypeInt); err == nil {
		t.Fatalf("expected 2^63 not to convert to int")
	}
}

func TestFloatArithmeticStaysFloat(t *testing.T) {
	v, err := Combine(Add, Float(1.5), Float(1.5))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if v.Kind() != KindFloat {
		t.Fatalf("expected float kind, got %s", v.Type())
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := Combine(Divide, Int(1), Int(0))
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestBoolDegradesToNumeric(t *testing.T) {
	gt, err := Compare(GreaterThan, Bool(true), Bool(false))
	if err != nil || !gt {
		t.Fatalf("expected true > false, got %v (%v)", gt, err)
	}
	sum, err := Combine(Add, Bool(true), Int(2))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if n, ok := sum.Int(); !ok || n != 3 {
		t.Fatalf("expected 3, got %s", sum)
	}
}

func TestStringCompareTriesNumericFirst(t *testing.T) {
	gt, err := Compare(GreaterThan, String("5"), Int(3))
	if err != nil || !gt {
		t.Fatalf(`expected "5" > 3, got %v (%v)`, gt, err)
	}
	gt, err = Compare(GreaterThan, String("10"), String("9"))
	if err != nil || !gt {
		t.Fatalf(`expected "10" > "9" numerically, got %v (%v)`, gt, err)
	}

	strict := Ops{Strict: true}
	gt, err = strict.Compare(GreaterThan, String("5"), Int(3))
	if err != nil || gt {
		t.Fatalf("expected strict cross-type compare to fail closed, got %v (%v)", gt, err)
	}
	gt, err = strict.Compare(GreaterThan, String("10"), String("9"))
	if err != nil || gt {
		t.Fatalf(`expected strict "10" < "9" by collation, got %v (%v)`, gt, err)
	}

	lt, err := Compare(LessThan, String("apple"), String("banana"))
	if err != nil || !lt {
		t.Fatalf("expected apple < banana, got %v (%v)", lt, err)
	}
}

func TestStringContainsAndMembers(t *testing.T) {
	ok, err := Compare(Contains, String("hello world"), String("lo w"))
	if err != nil || !ok {
		t.Fatalf("expected substring match, got %v (%v)", ok, err)
	}

	n, err := Ops{}.GetMember(String("hello"), String("length"))
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got, _ := n.Int(); got != 5 {
		t.Fatalf("expected length 5, got %s", n)
	}
	last, err := Ops{}.GetMember(String("hello"), Int(-1))
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if last.String() != "o" {
		t.Fatalf("expected o, got %q", last.String())
	}
	if _, err := (Ops{}).GetMember(String("hi"), Int(5)); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestConvertTo(t *testing.T) {
	v, err := ConvertTo(String("12"), TypeInt)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if n, ok := v.Int(); !ok || n != 12 {
		t.Fatalf("expected 12, got %s", v)
	}

	zero, err := ConvertTo(Empty, TypeInt)
	if err != nil {
		t.Fatalf("ConvertTo empty: %v", err)
	}
	if n, ok := zero.Int(); !ok || n != 0 {
		t.Fatalf("expected synthesized 0, got %s", zero)
	}

	_, err = ConvertTo(Bool(true), TypeList)
	if !errors.Is(err, ErrIncompatibleTypes) {
		t.Fatalf("expected ErrIncompatibleTypes, got %v", err)
	}
	var typeErr *VarTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *VarTypeError, got %T", err)
	}
	if typeErr.From != TypeBool || typeErr.To != TypeList {
		t.Fatalf("unexpected types in error: %+v", typeErr)
	}

	if _, err := (Ops{Strict: true}).ConvertTo(Float(2.5), TypeInt); err == nil {
		t.Fatalf("expected strict lossy conversion to fail")
	}
	whole, err := Ops{Strict: true}.ConvertTo(Float(5), TypeInt)
	if err != nil {
		t.Fatalf("strict whole conversion: %v", err)
	}
	if n, _ := whole.Int(); n != 5 {
		t.Fatalf("expected 5, got %s", whole)
	}
}

func TestFromFlattensNestedVars(t *testing.T) {
	inner := Int(7)
	v, err := From(&inner)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if v.Kind() != KindInt {
		t.Fatalf("expected int, got %s", v.Type())
	}
	v = Of(Of(Of("x")))
	if s, ok := v.Str(); !ok || s != "x" {
		t.Fatalf("expected flattened string, got %s", v.Type())
	}
	if _, err := From(struct{}{}); !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
}

func TestMapEquality(t *testing.T) {
	a := Of(map[string]any{"a": 1, "b": "x"})
	m := NewMap()
	m.Put("b", String("x"))
	m.Put("a", Int(1))
	if !a.Equals(Object(m)) {
		t.Fatalf("expected maps with the same keys and values to be equal")
	}

	m.Put("a", Int(2))
	if a.Equals(Object(m)) {
		t.Fatalf("expected maps with different values to differ")
	}

	extra := NewMap()
	extra.Put("a", Int(1))
	if a.Equals(Object(extra)) {
		t.Fatalf("expected maps with different key sets to differ")
	}

	has, err := Compare(Contains, a, String("b"))
	if err != nil || !has {
		t.Fatalf("expected map to contain key b, got %v (%v)", has, err)
	}
}

func TestListOperations(t *testing.T) {
	list := Of([]any{"sword", "shield"})
	has, err := Compare(Contains, list, String("shield"))
	if err != nil || !has {
		t.Fatalf("expected list to contain shield, got %v (%v)", has, err)
	}

	first, err := Ops{}.GetMember(list, Int(1))
	if err != nil || first.String() != "sword" {
		t.Fatalf("expected sword, got %s (%v)", first, err)
	}

	grown, err := Combine(Add, list, String("torch"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	n, _ := Ops{}.GetMember(grown, String("length"))
	if got, _ := n.Int(); got != 3 {
		t.Fatalf("expected 3 items, got %s", n)
	}
	if l, _ := (Ops{}).GetMember(list, String("length")); l.String() != "2" {
		t.Fatalf("expected original list untouched, got length %s", l)
	}

	shrunk, err := Combine(Subtract, grown, String("sword"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if shrunk.String() != "shield, torch" {
		t.Fatalf("unexpected list after subtract: %q", shrunk.String())
	}
}

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		">=":       GreaterThanOrEquals,
		"gte":      GreaterThanOrEquals,
		"contains": Contains,
		"&&":       LogicalAnd,
		"++":       Increment,
	}
	for symbol, want := range cases {
		got, err := ParseOperator(symbol)
		if err != nil {
			t.Fatalf("ParseOperator(%q): %v", symbol, err)
		}
		if got != want {
			t.Errorf("ParseOperator(%q) = %s, want %s", symbol, got, want)
		}
	}
	if _, err := ParseOperator("<=>"); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}
