// Package vm implements the register-based Dalvik bytecode interpreter:
// instruction decoding, the ~220-opcode dispatch table, and one step of
// execution at a time so callers (the class loader, the slicer) can drive
// it method by method.
package vm

import "encoding/binary"

// instrFormat names one of the fixed Dalvik instruction-encoding shapes.
// Every opcode decodes under exactly one of these; the shape determines
// which Instruction fields are meaningful for that opcode.
type instrFormat uint8

const (
	fmt10x instrFormat = iota // op
	fmt12x                    // op, vA, vB (nibbles)
	fmt11n                    // op, vA, #+B (signed nibble literal)
	fmt11x                    // op, vAA
	fmt10t                    // op, +AA (signed byte branch)
	fmt20t                    // op, +AAAA (signed branch)
	fmt22x                    // op vAA, vBBBB
	fmt21t                    // op vAA, +BBBB (branch)
	fmt21s                    // op vAA, #+BBBB
	fmt21h                    // op vAA, #+BBBB0000... (high bits literal)
	fmt21c                    // op vAA, pool@BBBB
	fmt23x                    // op vAA, vBB, vCC
	fmt22b                    // op vAA, vBB, #+CC
	fmt22t                    // op vA, vB, +CCCC (branch)
	fmt22s                    // op vA, vB, #+CCCC
	fmt22c                    // op vA, vB, pool@CCCC
	fmt30t                    // op, +AAAAAAAA (branch)
	fmt32x                    // op, vAAAA, vBBBB
	fmt31i                    // op vAA, #+BBBBBBBB
	fmt31t                    // op vAA, +BBBBBBBB (table/payload offset)
	fmt31c                    // op vAA, pool@BBBBBBBB
	fmt35c                    // op {vC..vG}, pool@BBBB (register count in A)
	fmt3rc                    // op {vCCCC..vNNNN}, pool@BBBB
	fmt51l                    // op vAA, #+BBBBBBBBBBBBBBBB
)

// Instruction is the decoded, typed shape of one bytecode unit: which
// registers it reads or writes, which constant-pool index it references,
// and which literal or branch-offset field is populated. Opcode handlers
// read only the fields their own format makes meaningful.
type Instruction struct {
	Opcode byte
	Format instrFormat
	Units  int // 16-bit code units consumed, including the opcode unit

	A, B, C int32 // register operands, meaning depends on Format
	Lit     int64 // sign- or zero-extended literal, format-dependent
	PoolIdx uint32
	Branch  int32 // signed code-unit offset from the start of this instruction

	// VarArgs holds the invoke-family register list in C,D,E,F,G order for
	// fmt35c, or is unused (RangeStart/RangeCount apply instead) for fmt3rc.
	VarArgs    []int32
	RangeStart int32
	RangeCount int32
}

func u16At(code []byte, unitIdx int) uint16 {
	off := unitIdx * 2
	if off+2 > len(code) {
		return 0
	}
	return binary.LittleEndian.Uint16(code[off : off+2])
}

// Decode reads the instruction whose opcode unit starts at code unit pc,
// using the format assigned to its opcode byte.
func Decode(code []byte, pc int) Instruction {
	op := byte(u16At(code, pc))
	format := formatOf(op)
	in := Instruction{Opcode: op, Format: format}

	first := u16At(code, pc)
	switch format {
	case fmt10x:
		in.Units = 1
	case fmt12x:
		in.A = int32(first>>8) & 0xf
		in.B = int32(first>>12) & 0xf
		in.Units = 1
	case fmt11n:
		in.A = int32(first>>8) & 0xf
		in.Lit = int64(int8(first>>12) << 4 >> 4) // sign-extend 4-bit nibble
		in.Units = 1
	case fmt11x:
		in.A = int32(first >> 8)
		in.Units = 1
	case fmt10t:
		in.Branch = int32(int8(first >> 8))
		in.Units = 1
	case fmt20t:
		in.Branch = int32(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt22x:
		in.A = int32(first >> 8)
		in.B = int32(u16At(code, pc+1))
		in.Units = 2
	case fmt21t:
		in.A = int32(first >> 8)
		in.Branch = int32(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt21s:
		in.A = int32(first >> 8)
		in.Lit = int64(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt21h:
		in.A = int32(first >> 8)
		in.Lit = int64(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt21c:
		in.A = int32(first >> 8)
		in.PoolIdx = uint32(u16At(code, pc+1))
		in.Units = 2
	case fmt23x:
		in.A = int32(first >> 8)
		second := u16At(code, pc+1)
		in.B = int32(second & 0xff)
		in.C = int32(second >> 8)
		in.Units = 2
	case fmt22b:
		in.A = int32(first >> 8)
		second := u16At(code, pc+1)
		in.B = int32(second & 0xff)
		in.Lit = int64(int8(second >> 8))
		in.Units = 2
	case fmt22t:
		in.A = int32(first>>8) & 0xf
		in.B = int32(first>>12) & 0xf
		in.Branch = int32(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt22s:
		in.A = int32(first>>8) & 0xf
		in.B = int32(first>>12) & 0xf
		in.Lit = int64(int16(u16At(code, pc+1)))
		in.Units = 2
	case fmt22c:
		in.A = int32(first>>8) & 0xf
		in.B = int32(first>>12) & 0xf
		in.PoolIdx = uint32(u16At(code, pc+1))
		in.Units = 2
	case fmt30t:
		lo := uint32(u16At(code, pc+1))
		hi := uint32(u16At(code, pc+2))
		in.Branch = int32(lo | hi<<16)
		in.Units = 3
	case fmt32x:
		in.A = int32(u16At(code, pc+1))
		in.B = int32(u16At(code, pc+2))
		in.Units = 3
	case fmt31i:
		lo := uint32(u16At(code, pc+1))
		hi := uint32(u16At(code, pc+2))
		in.A = int32(first >> 8)
		in.Lit = int64(int32(lo | hi<<16))
		in.Units = 3
	case fmt31t:
		lo := uint32(u16At(code, pc+1))
		hi := uint32(u16At(code, pc+2))
		in.A = int32(first >> 8)
		in.Branch = int32(lo | hi<<16)
		in.Units = 3
	case fmt31c:
		lo := uint32(u16At(code, pc+1))
		hi := uint32(u16At(code, pc+2))
		in.A = int32(first >> 8)
		in.PoolIdx = lo | hi<<16
		in.Units = 3
	case fmt35c:
		argCount := int32(first>>12) & 0xf
		in.PoolIdx = uint32(u16At(code, pc+1))
		regsWord := u16At(code, pc+2)
		g := int32(first>>8) & 0xf
		regs := []int32{
			int32(regsWord) & 0xf,
			int32(regsWord>>4) & 0xf,
			int32(regsWord>>8) & 0xf,
			int32(regsWord>>12) & 0xf,
			g,
		}
		in.VarArgs = regs[:argCount]
		in.Units = 3
	case fmt3rc:
		in.RangeCount = int32(first >> 8)
		in.PoolIdx = uint32(u16At(code, pc+1))
		in.RangeStart = int32(u16At(code, pc+2))
		in.Units = 3
	case fmt51l:
		in.A = int32(first >> 8)
		w0 := uint64(u16At(code, pc+1))
		w1 := uint64(u16At(code, pc+2))
		w2 := uint64(u16At(code, pc+3))
		w3 := uint64(u16At(code, pc+4))
		in.Lit = int64(w0 | w1<<16 | w2<<32 | w3<<48)
		in.Units = 5
	default:
		in.Units = 1
	}
	return in
}

func formatOf(op byte) instrFormat {
	switch {
	case op == 0x00:
		return fmt10x
	case op == 0x01 || op == 0x04 || op == 0x07:
		return fmt12x
	case op == 0x02 || op == 0x05 || op == 0x08:
		return fmt22x
	case op == 0x03 || op == 0x06 || op == 0x09:
		return fmt32x
	case op >= 0x0a && op <= 0x0d:
		return fmt11x
	case op == 0x0e:
		return fmt10x
	case op >= 0x0f && op <= 0x11:
		return fmt11x
	case op == 0x12:
		return fmt11n
	case op == 0x13:
		return fmt21s
	case op == 0x14:
		return fmt31i
	case op == 0x15:
		return fmt21h
	case op == 0x16:
		return fmt21s
	case op == 0x17:
		return fmt31i
	case op == 0x18:
		return fmt51l
	case op == 0x19:
		return fmt21h
	case op == 0x1a:
		return fmt21c
	case op == 0x1b:
		return fmt31c
	case op == 0x1c:
		return fmt21c
	case op == 0x1d || op == 0x1e:
		return fmt11x
	case op == 0x1f:
		return fmt21c
	case op == 0x20:
		return fmt22c
	case op == 0x21:
		return fmt12x
	case op == 0x22:
		return fmt21c
	case op == 0x23:
		return fmt22c
	case op == 0x24:
		return fmt35c
	case op == 0x25:
		return fmt3rc
	case op == 0x26:
		return fmt31t
	case op == 0x27:
		return fmt11x
	case op == 0x28:
		return fmt10t
	case op == 0x29:
		return fmt20t
	case op == 0x2a:
		return fmt30t
	case op == 0x2b || op == 0x2c:
		return fmt31t
	case op >= 0x2d && op <= 0x31:
		return fmt23x
	case op >= 0x32 && op <= 0x37:
		return fmt22t
	case op >= 0x38 && op <= 0x3d:
		return fmt21t
	case op >= 0x44 && op <= 0x51:
		return fmt23x
	case op >= 0x52 && op <= 0x5f:
		return fmt22c
	case op >= 0x60 && op <= 0x6d:
		return fmt21c
	case op >= 0x6e && op <= 0x72:
		return fmt35c
	case op >= 0x74 && op <= 0x78:
		return fmt3rc
	case op >= 0x7b && op <= 0x8f:
		return fmt12x
	case op >= 0x90 && op <= 0xaf:
		return fmt23x
	case op >= 0xb0 && op <= 0xcf:
		return fmt12x
	case op >= 0xd0 && op <= 0xd7:
		return fmt22s
	case op >= 0xd8 && op <= 0xe2:
		return fmt22b
	default:
		return fmt10x // unassigned opcode: treated as a 1-unit no-op
	}
}
