package dex

import (
	"math"

	"github.com/fatalsec/dalivm/internal/value"
)

// Encoded-value type tags, DEX format §"encoded_value encoding".
const (
	evByte    = 0x00
	evShort   = 0x02
	evChar    = 0x03
	evInt     = 0x04
	evLong    = 0x06
	evFloat   = 0x10
	evDouble  = 0x11
	evString  = 0x17
	evType    = 0x18
	evBoolean = 0x1f
	evNull    = 0x1e
)

// decodeEncodedArray decodes the encoded_array at off: a ULEB128 size
// followed by that many encoded_value entries, in the same order as the
// static fields they initialize.
func (c *Container) decodeEncodedArray(off uint32) []value.Value {
	if off == 0 || off >= uint32(len(c.data)) {
		return nil
	}
	r := newULEB128Reader(c.data, int(off))
	size := r.next()
	out := make([]value.Value, 0, size)
	for i := uint32(0); i < size; i++ {
		out = append(out, c.decodeEncodedValue(r))
	}
	return out
}

// decodeEncodedValue reads one encoded_value: a header byte packing
// (arg_count-1) into its top three bits and the type tag into the bottom
// five, followed by arg_count little-endian bytes for sized numeric types.
func (c *Container) decodeEncodedValue(r *uleb128Reader) value.Value {
	if r.pos >= len(r.data) {
		return value.Null()
	}
	header := r.data[r.pos]
	r.pos++
	valueType := header & 0x1f
	argCount := int(header>>5) + 1

	readBytes := func() []byte {
		if r.pos+argCount > len(r.data) {
			argCount = len(r.data) - r.pos
		}
		b := r.data[r.pos : r.pos+argCount]
		r.pos += argCount
		return b
	}

	switch valueType {
	case evBoolean:
		return value.Int(int32(header >> 5))
	case evByte:
		b := readBytes()
		if len(b) == 0 {
			return value.Int(0)
		}
		return value.Int(int32(int8(b[0])))
	case evShort, evChar, evInt:
		b := readBytes()
		return value.Int(signExtend32(b, valueType == evChar))
	case evLong:
		b := readBytes()
		return value.Long(signExtend64(b))
	case evFloat:
		b := readBytes()
		bits := uint32(leUint64(b) << (uint(4-len(b)) * 8))
		return value.Float(math.Float32frombits(bits))
	case evDouble:
		b := readBytes()
		bits := leUint64(b) << (uint(8-len(b)) * 8)
		return value.Double(math.Float64frombits(bits))
	case evString:
		b := readBytes()
		idx := uint32(signExtend32(b, true))
		return value.FromObject(value.NewString(c.string(idx)))
	case evType:
		b := readBytes()
		idx := uint32(signExtend32(b, true))
		o := value.NewObject("Ljava/lang/Class;")
		o.Internal = c.typeString(idx)
		return value.FromObject(o)
	case evNull:
		return value.Null()
	default:
		// Annotation/array/enum/method/field-handle constants are not
		// meaningful as a register value; skip past them conservatively.
		readBytes()
		return value.Null()
	}
}

func signExtend32(b []byte, unsigned bool) int32 {
	var v int32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int32(b[i])
	}
	if !unsigned && len(b) > 0 && len(b) < 4 && b[len(b)-1]&0x80 != 0 {
		v |= -1 << (uint(len(b)) * 8)
	}
	return v
}

func signExtend64(b []byte) int64 {
	var v int64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int64(b[i])
	}
	if len(b) > 0 && len(b) < 8 && b[len(b)-1]&0x80 != 0 {
		v |= -1 << (uint(len(b)) * 8)
	}
	return v
}

// leUint64 reads up to 8 bytes as a little-endian unsigned integer, used to
// reassemble the truncated float/double encodings encoded_value allows.
func leUint64(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
