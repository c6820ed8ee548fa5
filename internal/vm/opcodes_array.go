package vm

import (
	"encoding/binary"

	"github.com/fatalsec/dalivm/internal/value"
)

// opArrayLength backs array-length.
func opArrayLength(m *DalvikVM, in Instruction, next int) {
	arr := m.regs.Get(int(in.B)).Arr
	size := int32(0)
	if arr != nil {
		size = int32(arr.Size)
	}
	m.regs.Set(int(in.A), value.Int(size))
	m.advance(next)
}

// opNewArray backs new-array: vA <- new array of the resolved element type,
// sized by vB.
func opNewArray(m *DalvikVM, in Instruction, next int) {
	typeDesc := m.opts.Resolver.Type(in.PoolIdx)
	size := m.regs.GetInt(int(in.B))
	m.regs.Set(int(in.A), value.FromArray(value.NewArray(typeDesc, int(size))))
	m.advance(next)
}

// opFilledNewArray backs filled-new-array: builds an array from the
// variadic register list and stashes it as the pending call result, the
// same slot move-result-object reads (filled-new-array never writes a
// destination register directly; the caller must follow it with
// move-result-object).
func opFilledNewArray(m *DalvikVM, in Instruction, next int) {
	typeDesc := m.opts.Resolver.Type(in.PoolIdx)
	arr := value.NewArray(typeDesc, len(in.VarArgs))
	for i, r := range in.VarArgs {
		arr.Set(i, m.regs.Get(int(r)))
	}
	m.setResult(value.FromArray(arr))
	m.advance(next)
}

// opFilledNewArrayRange backs filled-new-array/range.
func opFilledNewArrayRange(m *DalvikVM, in Instruction, next int) {
	typeDesc := m.opts.Resolver.Type(in.PoolIdx)
	count := int(in.RangeCount)
	arr := value.NewArray(typeDesc, count)
	for i := 0; i < count; i++ {
		arr.Set(i, m.regs.Get(int(in.RangeStart)+i))
	}
	m.setResult(value.FromArray(arr))
	m.advance(next)
}

// opFillArrayData backs fill-array-data: reads the fill-array-data-payload
// pseudo-instruction at the branch target and populates vA's array from it.
func opFillArrayData(m *DalvikVM, in Instruction, next int) {
	arr := m.regs.Get(int(in.A)).Arr
	if arr != nil {
		payloadUnit := m.pc + int(in.Branch)
		fillFromPayload(m.code, payloadUnit, arr)
	}
	m.advance(next)
}

func fillFromPayload(code []byte, payloadUnit int, arr *value.Array) {
	off := payloadUnit * 2
	if off+8 > len(code) {
		return
	}
	ident := binary.LittleEndian.Uint16(code[off : off+2])
	if ident != payloadFillArrayDataIdent {
		return
	}
	elemWidth := int(binary.LittleEndian.Uint16(code[off+2 : off+4]))
	size := int(binary.LittleEndian.Uint32(code[off+4 : off+8]))
	base := off + 8
	for i := 0; i < size && i < arr.Size; i++ {
		start := base + i*elemWidth
		if start+elemWidth > len(code) {
			break
		}
		arr.Set(i, decodeArrayElement(code[start:start+elemWidth], elemWidth))
	}
}

func decodeArrayElement(b []byte, width int) value.Value {
	switch width {
	case 1:
		return value.Int(int32(int8(b[0])))
	case 2:
		return value.Int(int32(int16(binary.LittleEndian.Uint16(b))))
	case 8:
		return value.Long(int64(binary.LittleEndian.Uint64(b)))
	default:
		return value.Int(int32(binary.LittleEndian.Uint32(b)))
	}
}

// opAGet backs aget and its typed variants (aget-wide, aget-object,
// aget-boolean, aget-byte, aget-char, aget-short): vAA <- vBB[vCC].
func opAGet(m *DalvikVM, in Instruction, next int) {
	arr := m.regs.Get(int(in.B)).Arr
	idx := m.regs.GetInt(int(in.C))
	v, _ := arr.Get(int(idx))
	if in.Opcode == 0x45 { // aget-wide
		m.regs.SetWide(int(in.A), v)
	} else {
		m.regs.Set(int(in.A), v)
	}
	m.advance(next)
}

// opAPut backs aput and its typed variants: vBB[vCC] <- vAA.
func opAPut(m *DalvikVM, in Instruction, next int) {
	arr := m.regs.Get(int(in.B)).Arr
	idx := m.regs.GetInt(int(in.C))
	if arr != nil {
		arr.Set(int(idx), m.regs.Get(int(in.A)))
	}
	m.advance(next)
}
