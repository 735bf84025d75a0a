package vars

import (
	"errors"
	"testing"
)

func TestStoreStrictMode(t *testing.T) {
	store := NewStore(true)
	if err := store.Set("gold", Int(5)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := store.Set("gold", String("hello"))
	if !errors.Is(err, ErrStrictMode) {
		t.Fatalf("expected ErrStrictMode, got %v", err)
	}
	var strictErr *StrictModeError
	if !errors.As(err, &strictErr) {
		t.Fatalf("expected *StrictModeError, got %T", err)
	}
	if strictErr.Name != "gold" || strictErr.From != TypeInt || strictErr.To != TypeString {
		t.Fatalf("unexpected error fields: %+v", strictErr)
	}

	if err := store.Set("gold", Float(5.0)); err != nil {
		t.Fatalf("expected lossless conversion to succeed: %v", err)
	}
	if got := store.Get("gold"); got.Kind() != KindInt {
		t.Fatalf("expected value stored as int, got %s", got.Type())
	}
}

func TestStoreNonStrictAllowsRetyping(t *testing.T) {
	store := NewStore(false)
	if err := store.Set("name", Int(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("name", String("Ada")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store.Get("name").String(); got != "Ada" {
		t.Fatalf("expected Ada, got %q", got)
	}
}

func TestStoreApply(t *testing.T) {
	store := NewStore(false)
	v, err := store.Apply("visits", Increment, Empty)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n, ok := v.Int(); !ok || n != 1 {
		t.Fatalf("expected 1, got %s", v)
	}
	v, err = store.Apply("visits", Add, Int(4))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n, _ := v.Int(); n != 5 {
		t.Fatalf("expected 5, got %s", v)
	}
	if _, err := store.Apply("visits", Divide, Int(0)); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestStoreLookupAndNames(t *testing.T) {
	store := NewStore(false)
	if _, err := store.Lookup("missing"); !errors.Is(err, ErrVarNotFound) {
		t.Fatalf("expected ErrVarNotFound, got %v", err)
	}
	_ = store.Set("b", Int(1))
	_ = store.Set("a", Int(2))
	names := store.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
	store.Reset()
	if len(store.Names()) != 0 {
		t.Fatalf("expected empty store after Reset")
	}
}

func TestStoreCopiesAggregates(t *testing.T) {
	store := NewStore(false)
	inv := NewList(String("key"))
	if err := store.Set("inventory", Object(inv)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	inv.Append(String("lamp"))

	n, err := store.GetMember("inventory", String("length"))
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got, _ := n.Int(); got != 1 {
		t.Fatalf("expected stored list to be independent, got length %s", n)
	}
	if err := store.SetMember("inventory", Int(2), String("rope")); err != nil {
		t.Fatalf("SetMember: %v", err)
	}
	n, _ = store.GetMember("inventory", String("length"))
	if got, _ := n.Int(); got != 2 {
		t.Fatalf("expected append through SetMember, got length %s", n)
	}
}
