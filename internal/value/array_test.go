package value

import "testing"

func TestArrayGetSetBounds(t *testing.T) {
	a := NewArray("[I", 3)
	if !a.Set(1, Int(42)) {
		t.Fatalf("Set(1) reported failure")
	}
	got, ok := a.Get(1)
	if !ok || got.Int32() != 42 {
		t.Errorf("Get(1) = (%v, %v), want (42, true)", got, ok)
	}
	if _, ok := a.Get(3); ok {
		t.Errorf("Get(3) out of range should fail")
	}
	if a.Set(-1, Int(1)) {
		t.Errorf("Set(-1) should fail")
	}
}

func TestNewArrayClampsNegativeSize(t *testing.T) {
	a := NewArray("[B", -5)
	if a.Size != 0 {
		t.Errorf("Size = %d, want 0", a.Size)
	}
}

func TestElementWidth(t *testing.T) {
	cases := map[string]int{
		"[Z": 1, "[B": 1,
		"[S": 2, "[C": 2,
		"[J": 8, "[D": 8,
		"[I": 4, "[F": 4,
		"[Ljava/lang/Object;": 4,
	}
	for desc, want := range cases {
		a := NewArray(desc, 1)
		if got := a.ElementWidth(); got != want {
			t.Errorf("ElementWidth(%s) = %d, want %d", desc, got, want)
		}
	}
}

func TestNilArrayIsSafe(t *testing.T) {
	var a *Array
	if _, ok := a.Get(0); ok {
		t.Errorf("nil Array.Get should fail")
	}
	if a.Set(0, Int(1)) {
		t.Errorf("nil Array.Set should fail")
	}
	if got := a.String(); got != "null" {
		t.Errorf("nil Array.String() = %q, want null", got)
	}
}
