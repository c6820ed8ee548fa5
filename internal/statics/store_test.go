package statics

import (
	"testing"

	"github.com/fatalsec/dalivm/internal/value"
)

func TestGetSetDefault(t *testing.T) {
	s := New()
	if got := s.Get("Lcom/example/Foo;", "bar", value.Int(7)); got.Int32() != 7 {
		t.Errorf("Get on unset field = %v, want default 7", got)
	}
	s.Set("Lcom/example/Foo;", "bar", value.Int(42))
	if got := s.Get("Lcom/example/Foo;", "bar", value.Int(7)); got.Int32() != 42 {
		t.Errorf("Get after Set = %v, want 42", got)
	}
}

func TestFieldsScopedByClass(t *testing.T) {
	s := New()
	s.Set("Lcom/example/A;", "x", value.Int(1))
	s.Set("Lcom/example/B;", "x", value.Int(2))
	if got := s.Get("Lcom/example/A;", "x", value.Null()).Int32(); got != 1 {
		t.Errorf("class A field = %d, want 1", got)
	}
	if got := s.Get("Lcom/example/B;", "x", value.Null()).Int32(); got != 2 {
		t.Errorf("class B field = %d, want 2", got)
	}
}

func TestInitializedTracking(t *testing.T) {
	s := New()
	if s.IsInitialized("Lcom/example/Foo;") {
		t.Fatalf("fresh store should report uninitialized")
	}
	s.MarkInitialized("Lcom/example/Foo;")
	if !s.IsInitialized("Lcom/example/Foo;") {
		t.Errorf("expected Lcom/example/Foo; to be marked initialized")
	}
	if s.IsInitialized("Lcom/example/Bar;") {
		t.Errorf("unrelated class should remain uninitialized")
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Set("Lcom/example/Foo;", "x", value.Int(1))
	s.MarkInitialized("Lcom/example/Foo;")
	s.Reset()
	if s.IsInitialized("Lcom/example/Foo;") {
		t.Errorf("Reset should clear initialized set")
	}
	if got := s.Get("Lcom/example/Foo;", "x", value.Int(-1)); got.Int32() != -1 {
		t.Errorf("Reset should clear fields, got %v", got)
	}
}

func TestDump(t *testing.T) {
	s := New()
	s.Set("Lcom/example/Foo;", "x", value.Int(5))
	dump := s.Dump()
	got, ok := dump["Lcom/example/Foo;->x"]
	if !ok {
		t.Fatalf("Dump missing expected key, got %v", dump)
	}
	if got.Int32() != 5 {
		t.Errorf("Dump value = %v, want 5", got)
	}
}
