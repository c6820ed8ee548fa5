package vm

import "github.com/fatalsec/dalivm/internal/value"

// Unary conversions and negations, opcodes 0x7b-0x8f (format 12x).
func opUnary(m *DalvikVM, in Instruction, next int) {
	src := m.regs.Get(int(in.B))
	switch in.Opcode {
	case 0x7b: // neg-int
		m.regs.Set(int(in.A), value.Int(-src.Int32()))
	case 0x7c: // not-int
		m.regs.Set(int(in.A), value.Int(^src.Int32()))
	case 0x7d: // neg-long
		m.regs.SetWide(int(in.A), value.Long(-src.Int64()))
	case 0x7e: // not-long
		m.regs.SetWide(int(in.A), value.Long(^src.Int64()))
	case 0x7f: // neg-float
		m.regs.Set(int(in.A), value.Float(-src.AsFloat32()))
	case 0x80: // neg-double
		m.regs.SetWide(int(in.A), value.Double(-src.AsDouble()))
	case 0x81: // int-to-long
		m.regs.SetWide(int(in.A), value.Long(int64(src.Int32())))
	case 0x82: // int-to-float
		m.regs.Set(int(in.A), value.Float(float32(src.Int32())))
	case 0x83: // int-to-double
		m.regs.SetWide(int(in.A), value.Double(float64(src.Int32())))
	case 0x84: // long-to-int
		m.regs.Set(int(in.A), value.Int(int32(src.Int64())))
	case 0x85: // long-to-float
		m.regs.Set(int(in.A), value.Float(float32(src.Int64())))
	case 0x86: // long-to-double
		m.regs.SetWide(int(in.A), value.Double(float64(src.Int64())))
	case 0x87: // float-to-int
		m.regs.Set(int(in.A), value.Int(float64ToInt32(float64(src.AsFloat32()))))
	case 0x88: // float-to-long
		m.regs.SetWide(int(in.A), value.Long(float64ToInt64(float64(src.AsFloat32()))))
	case 0x89: // float-to-double
		m.regs.SetWide(int(in.A), value.Double(float64(src.AsFloat32())))
	case 0x8a: // double-to-int
		m.regs.Set(int(in.A), value.Int(float64ToInt32(src.AsDouble())))
	case 0x8b: // double-to-long
		m.regs.SetWide(int(in.A), value.Long(float64ToInt64(src.AsDouble())))
	case 0x8c: // double-to-float
		m.regs.Set(int(in.A), value.Float(float32(src.AsDouble())))
	case 0x8d: // int-to-byte
		m.regs.Set(int(in.A), value.Int(int32(int8(src.Int32()))))
	case 0x8e: // int-to-char
		m.regs.Set(int(in.A), value.Int(int32(uint16(src.Int32()))))
	case 0x8f: // int-to-short
		m.regs.Set(int(in.A), value.Int(int32(int16(src.Int32()))))
	}
	m.advance(next)
}

// float64ToInt32 implements the JLS float/double-to-int narrowing
// conversion: NaN becomes 0, and an out-of-range value saturates to
// MinInt32/MaxInt32 instead of wrapping (Go's own float-to-int conversion
// is undefined in that case, so this cannot just be a Go type conversion).
func float64ToInt32(f float64) int32 {
	switch {
	case f != f:
		return 0
	case f >= 2147483647:
		return 2147483647
	case f <= -2147483648:
		return -2147483648
	default:
		return int32(f)
	}
}

func float64ToInt64(f float64) int64 {
	switch {
	case f != f:
		return 0
	case f >= 9223372036854775807:
		return 9223372036854775807
	case f <= -9223372036854775808:
		return -9223372036854775808
	default:
		return int64(f)
	}
}

// binOp identifies one arithmetic operation independent of which of the
// four encodings (23x, 12x/2addr, 22s/lit16, 22b/lit8) carried it.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opRem
	opAnd
	opOr
	opXor
	opShl
	opShr
	opUShr
	opRSub // lit16/lit8 only: literal - register
)

// binOpFamily groups the width/type an operation applies to.
type binOpFamily int

const (
	familyInt binOpFamily = iota
	familyLong
	familyFloat
	familyDouble
)

// binOpOf decodes opcodes 0x90-0xaf (format 23x, two register operands)
// and 0xb0-0xcf (format 12x/2addr, dest doubles as the first operand) into
// (family, op): both ranges list the same 32 operations in the same order,
// so a 2addr opcode's table position is just its 23x counterpart's plus
// 0x20.
func binOpOf(op byte) (binOpFamily, binOp) {
	idx := int(op) - 0x90
	if op >= 0xb0 {
		idx = int(op) - 0xb0
	}
	switch {
	case idx < 11:
		return familyInt, binOp(idx)
	case idx < 22:
		return familyLong, binOp(idx - 11)
	case idx < 27:
		return familyFloat, binOp(idx - 22)
	default:
		return familyDouble, binOp(idx - 27)
	}
}

func applyInt(op binOp, a, b int32) int32 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case opRem:
		if b == 0 {
			return 0
		}
		return a % b
	case opAnd:
		return a & b
	case opOr:
		return a | b
	case opXor:
		return a ^ b
	case opShl:
		return a << (uint32(b) & 0x1f)
	case opShr:
		return a >> (uint32(b) & 0x1f)
	case opUShr:
		return int32(uint32(a) >> (uint32(b) & 0x1f))
	case opRSub:
		return b - a
	default:
		return 0
	}
}

func applyLong(op binOp, a, b int64) int64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case opRem:
		if b == 0 {
			return 0
		}
		return a % b
	case opAnd:
		return a & b
	case opOr:
		return a | b
	case opXor:
		return a ^ b
	case opShl:
		return a << (uint64(b) & 0x3f)
	case opShr:
		return a >> (uint64(b) & 0x3f)
	case opUShr:
		return int64(uint64(a) >> (uint64(b) & 0x3f))
	default:
		return 0
	}
}

func applyFloat(op binOp, a, b float32) float32 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	case opRem:
		return float32(ieeeRemainder(float64(a), float64(b)))
	default:
		return 0
	}
}

func applyDouble(op binOp, a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	case opRem:
		return ieeeRemainder(a, b)
	default:
		return 0
	}
}

// ieeeRemainder implements Java's floating-point remainder: a - (b *
// truncated-toward-zero-quotient), which differs from math.Mod only in
// that Go's math.Mod already uses truncated division, so the two agree;
// spelled out locally to keep this package's only float dependency the
// standard numeric operators.
func ieeeRemainder(a, b float64) float64 {
	if b == 0 {
		return nan()
	}
	q := a / b
	qi := float64(int64(q))
	return a - qi*b
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// opBinary backs the 23x (two source registers) binary arithmetic family.
func opBinary(m *DalvikVM, in Instruction, next int) {
	family, op := binOpOf(in.Opcode)
	b, c := m.regs.Get(int(in.B)), m.regs.Get(int(in.C))
	switch family {
	case familyInt:
		m.regs.Set(int(in.A), value.Int(applyInt(op, b.Int32(), c.Int32())))
	case familyLong:
		m.regs.SetWide(int(in.A), value.Long(applyLong(op, b.Int64(), c.Int64())))
	case familyFloat:
		m.regs.Set(int(in.A), value.Float(applyFloat(op, b.AsFloat32(), c.AsFloat32())))
	case familyDouble:
		m.regs.SetWide(int(in.A), value.Double(applyDouble(op, b.AsDouble(), c.AsDouble())))
	}
	m.advance(next)
}

// opBinary2Addr backs the 12x/2addr family: vA is both destination and
// first operand.
func opBinary2Addr(m *DalvikVM, in Instruction, next int) {
	family, op := binOpOf(in.Opcode)
	a, b := m.regs.Get(int(in.A)), m.regs.Get(int(in.B))
	switch family {
	case familyInt:
		m.regs.Set(int(in.A), value.Int(applyInt(op, a.Int32(), b.Int32())))
	case familyLong:
		m.regs.SetWide(int(in.A), value.Long(applyLong(op, a.Int64(), b.Int64())))
	case familyFloat:
		m.regs.Set(int(in.A), value.Float(applyFloat(op, a.AsFloat32(), b.AsFloat32())))
	case familyDouble:
		m.regs.SetWide(int(in.A), value.Double(applyDouble(op, a.AsDouble(), b.AsDouble())))
	}
	m.advance(next)
}

var lit16Ops = [8]binOp{opAdd, opRSub, opMul, opDiv, opRem, opAnd, opOr, opXor}
var lit8Ops = [11]binOp{opAdd, opRSub, opMul, opDiv, opRem, opAnd, opOr, opXor, opShl, opShr, opUShr}

// opBinaryLit16 backs add-int/lit16 through xor-int/lit16 (format 22s):
// vA <- vB op literal, always over int.
func opBinaryLit16(m *DalvikVM, in Instruction, next int) {
	op := lit16Ops[in.Opcode-0xd0]
	b := m.regs.GetInt(int(in.B))
	m.regs.Set(int(in.A), value.Int(applyInt(op, b, int32(in.Lit))))
	m.advance(next)
}

// opBinaryLit8 backs add-int/lit8 through ushr-int/lit8 (format 22b).
func opBinaryLit8(m *DalvikVM, in Instruction, next int) {
	op := lit8Ops[in.Opcode-0xd8]
	b := m.regs.GetInt(int(in.B))
	m.regs.Set(int(in.A), value.Int(applyInt(op, b, int32(in.Lit))))
	m.advance(next)
}
