// Package value implements the tagged register value, heap object, array,
// and register-file types that make up the Dalvik virtual machine's data
// model.
package value

import (
	"fmt"
	"math"
)

// Kind tags the payload a Value carries.
type Kind uint8

const (
	// KindNull marks a null object reference.
	KindNull Kind = iota
	// KindInt marks a signed 32-bit integer.
	KindInt
	// KindLong marks a signed 64-bit integer.
	KindLong
	// KindFloat marks a 32-bit IEEE float.
	KindFloat
	// KindDouble marks a 64-bit IEEE double.
	KindDouble
	// KindObject marks a heap object handle.
	KindObject
	// KindArray marks an array handle.
	KindArray
	// KindWideContinuation marks the high half of a wide register pair.
	// No opcode may read this as a scalar operand.
	KindWideContinuation
)

// Value is a single register cell. It is copied by value; heap payloads
// (Object, Array) are held by pointer so aliasing through move instructions
// behaves like the Dalvik reference-copy semantics.
type Value struct {
	Kind   Kind
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Obj    *Object
	Arr    *Array
}

// Null is the canonical null reference value.
func Null() Value { return Value{Kind: KindNull} }

// WideContinuation is the canonical high-half placeholder for a wide pair.
func WideContinuation() Value { return Value{Kind: KindWideContinuation} }

// Int returns an int-kind value.
func Int(v int32) Value { return Value{Kind: KindInt, Int: v} }

// Long returns a long-kind value.
func Long(v int64) Value { return Value{Kind: KindLong, Long: v} }

// Float returns a float-kind value.
func Float(v float32) Value { return Value{Kind: KindFloat, Float: v} }

// Double returns a double-kind value.
func Double(v float64) Value { return Value{Kind: KindDouble, Double: v} }

// FromObject wraps a heap object handle.
func FromObject(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{Kind: KindObject, Obj: o}
}

// FromArray wraps an array handle.
func FromArray(a *Array) Value {
	if a == nil {
		return Null()
	}
	return Value{Kind: KindArray, Arr: a}
}

// IsNull reports whether the value is a null reference. A wide-continuation
// placeholder is not null, just unreadable as a scalar.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Int32 reads the value as a 32-bit integer. Non-numeric values (null,
// object, array, wide-continuation) read as 0 rather than panicking.
func (v Value) Int32() int32 {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindLong:
		return int32(v.Long)
	case KindFloat:
		return int32(v.Float)
	case KindDouble:
		return int32(v.Double)
	default:
		return 0
	}
}

// Int64 reads the value as a 64-bit integer. Non-numeric values read as 0.
func (v Value) Int64() int64 {
	switch v.Kind {
	case KindInt:
		return int64(v.Int)
	case KindLong:
		return v.Long
	case KindFloat:
		return int64(v.Float)
	case KindDouble:
		return int64(v.Double)
	default:
		return 0
	}
}

// AsFloat32 reads the value as a 32-bit float. Registers carrying a raw
// int/long payload (const, const-wide and their high16 forms load literal
// bits, not a numerically-cast value) are reinterpreted bit-for-bit, since
// Dalvik registers are untyped storage and the consuming opcode — not the
// producing one — decides whether a 32-bit payload is an int or a float.
// A value already tagged Float or Double carries a real floating-point
// number, produced by an opcode that computed it, and is read directly.
func (v Value) AsFloat32() float32 {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindDouble:
		return float32(v.Double)
	case KindInt:
		return math.Float32frombits(uint32(v.Int))
	case KindLong:
		return math.Float32frombits(uint32(v.Long))
	default:
		return 0
	}
}

// AsDouble reads the value as a 64-bit double, with the same bit-reinterpret
// rule AsFloat32 documents.
func (v Value) AsDouble() float64 {
	switch v.Kind {
	case KindDouble:
		return v.Double
	case KindFloat:
		return float64(v.Float)
	case KindLong:
		return math.Float64frombits(uint64(v.Long))
	case KindInt:
		return math.Float64frombits(uint64(uint32(v.Int)))
	default:
		return 0
	}
}

// IsTruthy implements the zero-ness rule used by if-testz opcodes: null is
// zero, a non-null object or array reference is non-zero, a numeric value is
// compared against zero directly.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindInt:
		return v.Int != 0
	case KindLong:
		return v.Long != 0
	case KindObject, KindArray:
		return true
	default:
		return true
	}
}

// String renders the value for debug logging only; call-site reporting uses
// the dedicated formatter in internal/analysis, not this method.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindLong:
		return fmt.Sprintf("%dL", v.Long)
	case KindFloat:
		return fmt.Sprintf("%gf", v.Float)
	case KindDouble:
		return fmt.Sprintf("%g", v.Double)
	case KindObject:
		if v.Obj != nil {
			return v.Obj.String()
		}
		return "null"
	case KindArray:
		if v.Arr != nil {
			return v.Arr.String()
		}
		return "null"
	case KindWideContinuation:
		return "<wide-cont>"
	default:
		return "<?>"
	}
}
