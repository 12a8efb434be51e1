package bridge

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	var gotMethod, gotArg string
	err := r.Register("FormInterceptorInterface", HandlerFunc(func(method, arg string) error {
		gotMethod, gotArg = method, arg
		return nil
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err = r.Dispatch("FormInterceptorInterface", "processFormData", "code=c|"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if gotMethod != "processFormData" || gotArg != "code=c|" {
		t.Fatalf("handler got (%q, %q)", gotMethod, gotArg)
	}
}

func TestRegistry_UnknownHandler(t *testing.T) {
	r := NewRegistry()
	if err := r.Dispatch("missing", "m", ""); !errors.Is(err, ErrUnknownHandler) {
		t.Fatalf("expected ErrUnknownHandler, got %v", err)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()
	noop := HandlerFunc(func(string, string) error { return nil })

	if err := r.Register("  ", noop); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := r.Register("x", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
	if err := r.Register("x", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("x", noop); !errors.Is(err, ErrDuplicateHandler) {
		t.Fatalf("expected ErrDuplicateHandler, got %v", err)
	}

	r.Unregister("x")
	if err := r.Register("x", noop); err != nil {
		t.Fatalf("Register after Unregister: %v", err)
	}
}

func TestRegistry_PanicBecomesError(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("boom", HandlerFunc(func(string, string) error { panic("bad page") }))

	err := r.Dispatch("boom", "m", "")
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	noop := HandlerFunc(func(string, string) error { return nil })
	_ = r.Register("b", noop)
	_ = r.Register("a", noop)

	if got := r.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Names = %v", got)
	}
}
