package vm

import (
	"encoding/binary"

	"github.com/fatalsec/dalivm/internal/value"
)

// opGoto backs goto, goto/16 and goto/32: unconditional relative branch.
func opGoto(m *DalvikVM, in Instruction, next int) { m.branchTo(in) }

func valuesEqual(m *DalvikVM, a, b int32) bool {
	av, bv := m.regs.Get(int(a)), m.regs.Get(int(b))
	if av.Kind != bv.Kind {
		// Treat a null reference as equal only to another null; numeric
		// kinds never compare equal across differing register tags.
		return av.IsNull() && bv.IsNull()
	}
	switch av.Kind {
	case value.KindObject:
		return av.Obj == bv.Obj
	case value.KindArray:
		return av.Arr == bv.Arr
	default:
		return av.Int32() == bv.Int32()
	}
}

// opIfTest backs if-eq/if-ne/if-lt/if-ge/if-gt/if-le (format 22t, two
// register operands).
func opIfTest(m *DalvikVM, in Instruction, next int) {
	a, b := m.regs.GetInt(int(in.A)), m.regs.GetInt(int(in.B))
	var taken bool
	switch in.Opcode {
	case 0x32:
		taken = valuesEqual(m, in.A, in.B)
	case 0x33:
		taken = !valuesEqual(m, in.A, in.B)
	case 0x34:
		taken = a < b
	case 0x35:
		taken = a >= b
	case 0x36:
		taken = a > b
	case 0x37:
		taken = a <= b
	}
	if taken {
		m.branchTo(in)
	} else {
		m.advance(next)
	}
}

// opIfTestz backs if-eqz/if-nez/if-ltz/if-gez/if-gtz/if-lez (format 21t,
// one register compared against zero; also the null test for references).
func opIfTestz(m *DalvikVM, in Instruction, next int) {
	v := m.regs.Get(int(in.A))
	var taken bool
	switch in.Opcode {
	case 0x38:
		taken = v.IsNull() || v.Int32() == 0
	case 0x39:
		taken = !v.IsNull() && v.Int32() != 0
	case 0x3a:
		taken = v.Int32() < 0
	case 0x3b:
		taken = v.Int32() >= 0
	case 0x3c:
		taken = v.Int32() > 0
	case 0x3d:
		taken = v.Int32() <= 0
	}
	if taken {
		m.branchTo(in)
	} else {
		m.advance(next)
	}
}

// opCompare backs cmpl-float, cmpg-float, cmpl-double, cmpg-double and
// cmp-long (format 23x): writes -1/0/1 to vAA. The l/g suffix only matters
// when one operand is NaN: cmpl ("less") yields -1, cmpg ("greater") yields
// 1, so whichever direction the caller is testing against still resolves
// to "not equal" rather than spuriously comparing true.
func opCompare(m *DalvikVM, in Instruction, next int) {
	lhs, rhs := m.regs.Get(int(in.B)), m.regs.Get(int(in.C))
	var result int32
	switch in.Opcode {
	case 0x2d, 0x2e: // cmpl-float, cmpg-float
		a, b := lhs.AsFloat32(), rhs.AsFloat32()
		if a != a || b != b { // either side is NaN
			if in.Opcode == 0x2d {
				result = -1
			} else {
				result = 1
			}
		} else {
			result = compareOrdered(float64(a), float64(b))
		}
	case 0x2f, 0x30: // cmpl-double, cmpg-double
		a, b := lhs.AsDouble(), rhs.AsDouble()
		if a != a || b != b {
			if in.Opcode == 0x2f {
				result = -1
			} else {
				result = 1
			}
		} else {
			result = compareOrdered(a, b)
		}
	case 0x31: // cmp-long
		a, b := lhs.Int64(), rhs.Int64()
		switch {
		case a < b:
			result = -1
		case a > b:
			result = 1
		}
	}
	m.regs.Set(int(in.A), value.Int(result))
	m.advance(next)
}

func compareOrdered(a, b float64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

const payloadPackedSwitchIdent = 0x0100
const payloadSparseSwitchIdent = 0x0200
const payloadFillArrayDataIdent = 0x0300

// opSwitch backs packed-switch and sparse-switch: the instruction names a
// register holding a key and an offset (relative to the instruction's own
// start) to a payload pseudo-instruction holding the jump table.
func opSwitch(m *DalvikVM, in Instruction, next int) {
	key := m.regs.GetInt(int(in.A))
	payloadUnit := m.pc + int(in.Branch)
	target, ok := resolveSwitchTarget(m.code, payloadUnit, key)
	if ok {
		m.pc += target
		return
	}
	m.advance(next)
}

func resolveSwitchTarget(code []byte, payloadUnit int, key int32) (int, bool) {
	off := payloadUnit * 2
	if off+2 > len(code) {
		return 0, false
	}
	ident := binary.LittleEndian.Uint16(code[off : off+2])
	switch ident {
	case payloadPackedSwitchIdent:
		if off+8 > len(code) {
			return 0, false
		}
		size := int(binary.LittleEndian.Uint16(code[off+2 : off+4]))
		firstKey := int32(binary.LittleEndian.Uint32(code[off+4 : off+8]))
		base := off + 8
		idx := int(key - firstKey)
		if idx < 0 || idx >= size || base+idx*4+4 > len(code) {
			return 0, false
		}
		return int(int32(binary.LittleEndian.Uint32(code[base+idx*4 : base+idx*4+4]))), true
	case payloadSparseSwitchIdent:
		if off+4 > len(code) {
			return 0, false
		}
		size := int(binary.LittleEndian.Uint16(code[off+2 : off+4]))
		keysBase := off + 4
		targetsBase := keysBase + size*4
		if targetsBase+size*4 > len(code) {
			return 0, false
		}
		for i := 0; i < size; i++ {
			k := int32(binary.LittleEndian.Uint32(code[keysBase+i*4 : keysBase+i*4+4]))
			if k == key {
				return int(int32(binary.LittleEndian.Uint32(code[targetsBase+i*4 : targetsBase+i*4+4]))), true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}
