package analysis

import (
	"fmt"

	"github.com/fatalsec/dalivm/internal/value"
)

// FormatValue renders a register value the way call-site reports do:
// strings quoted, arrays as "<Type[size]>", objects as "<ClassName>", and
// integers in decimal with an optional character-glyph suffix.
//
// Any integer in (127, 65536) gets a glyph suffix, rendered as a literal
// character outside the UTF-16 surrogate range (0xD800-0xDFFF) and as a
// \uXXXX escape inside it, since a lone surrogate has no valid rune form to
// print directly.
func FormatValue(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "null"
	case value.KindInt:
		return formatInt(v.Int)
	case value.KindLong:
		return fmt.Sprintf("%dL", v.Long)
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case value.KindDouble:
		return fmt.Sprintf("%g", v.Double)
	case value.KindObject:
		return formatObject(v.Obj)
	case value.KindArray:
		return formatArray(v.Arr)
	case value.KindWideContinuation:
		return "<wide-cont>"
	default:
		return "<?>"
	}
}

func formatInt(n int32) string {
	if n <= 127 || n >= 65536 {
		return fmt.Sprintf("%d", n)
	}
	if n >= 0xD800 && n <= 0xDFFF {
		return fmt.Sprintf("'\\u%04x' (%d)", uint32(n), n)
	}
	return fmt.Sprintf("'%c' (%d)", rune(n), n)
}

func formatObject(o *value.Object) string {
	if o == nil {
		return "null"
	}
	if s, ok := o.Text(); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("<%s>", o.ClassName)
}

func formatArray(a *value.Array) string {
	if a == nil {
		return "null"
	}
	return fmt.Sprintf("<%s[%d]>", a.TypeDesc, a.Size)
}

// FormatArgs renders a full argument list for one call-site report.
func FormatArgs(args []value.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = FormatValue(a)
	}
	return out
}
