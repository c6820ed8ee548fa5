package analysis

import (
	"testing"

	"github.com/fatalsec/dalivm/internal/value"
)

func TestFormatValuePrimitives(t *testing.T) {
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.Null(), "null"},
		{value.Int(7), "7"},
		{value.Long(42), "42L"},
	}
	for _, c := range cases {
		if got := FormatValue(c.v); got != c.want {
			t.Errorf("FormatValue(%+v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestFormatIntGlyphRange(t *testing.T) {
	if got := formatInt(65); got != "65" {
		t.Errorf("formatInt(65) = %q, want %q (at/below 127 stays plain)", got, "65")
	}
	if got := formatInt(65); got == "'A' (65)" {
		t.Errorf("formatInt(65) unexpectedly glyphed, boundary is >127")
	}
	if got := formatInt(200); got != "'È' (200)" {
		t.Errorf("formatInt(200) = %q, want glyphed form", got)
	}
	if got := formatInt(70000); got != "70000" {
		t.Errorf("formatInt(70000) = %q, want plain (at/above 65536)", got)
	}
}

func TestFormatIntSurrogateRange(t *testing.T) {
	got := formatInt(0xD800)
	want := "'\\ud800' (55296)"
	if got != want {
		t.Errorf("formatInt(0xD800) = %q, want %q", got, want)
	}
}

func TestFormatArgs(t *testing.T) {
	args := []value.Value{value.Int(1), value.Null()}
	out := FormatArgs(args)
	if len(out) != 2 || out[0] != "1" || out[1] != "null" {
		t.Errorf("FormatArgs = %v, want [1 null]", out)
	}
}
