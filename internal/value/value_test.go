package value

import (
	"math"
	"testing"
)

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"zero int", Int(0), false},
		{"nonzero int", Int(5), true},
		{"zero long", Long(0), false},
		{"nonzero long", Long(-1), true},
		{"object", FromObject(NewObject("Ljava/lang/Object;")), true},
		{"nil object wraps to null", FromObject(nil), false},
		{"array", FromArray(NewArray("[I", 1)), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.IsTruthy(); got != c.want {
				t.Errorf("IsTruthy() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestInt32Softening(t *testing.T) {
	if got := Null().Int32(); got != 0 {
		t.Errorf("Null().Int32() = %d, want 0", got)
	}
	if got := Long(1 << 40).Int32(); got != 0 { // the low 32 bits of 1<<40 are all zero
		t.Errorf("Long truncation mismatch: got %d", got)
	}
	if got := Float(3.9).Int32(); got != 3 {
		t.Errorf("Float(3.9).Int32() = %d, want 3", got)
	}
}

func TestIsNullVsWideContinuation(t *testing.T) {
	if !Null().IsNull() {
		t.Errorf("Null().IsNull() = false")
	}
	if WideContinuation().IsNull() {
		t.Errorf("WideContinuation().IsNull() = true, want false")
	}
}

func TestAsDoubleBitReinterpretFromLong(t *testing.T) {
	bits := math.Float64bits(3.25)
	v := Long(int64(bits))
	if got := v.AsDouble(); got != 3.25 {
		t.Errorf("AsDouble() from raw bits = %v, want 3.25", got)
	}
}

func TestAsFloat32DirectFromFloatKind(t *testing.T) {
	v := Float(1.5)
	if got := v.AsFloat32(); got != 1.5 {
		t.Errorf("AsFloat32() = %v, want 1.5", got)
	}
}

func TestValueStringRendering(t *testing.T) {
	cases := map[string]Value{
		"null":        Null(),
		"5":           Int(5),
		"5L":          Long(5),
		"<wide-cont>": WideContinuation(),
	}
	for want, v := range cases {
		if got := v.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
