// Package slicer computes the backward data-flow slice of a method's
// bytecode that is sufficient to resolve a set of argument registers at a
// call site: the minimal set of earlier instructions whose execution can
// reproduce those registers' values, without running the rest of the
// method.
//
// It walks backward from targetPC over the typed instruction records
// disasm.Build produces, rather than a textual disassembly listing.
package slicer

import (
	"sort"

	"github.com/fatalsec/dalivm/internal/disasm"
	"github.com/fatalsec/dalivm/internal/vm"
)

// BuildDependencies returns the set of PCs (strictly before targetPC) that
// must execute to compute argRegs's values at targetPC: a backward walk
// that, for each instruction writing a still-needed register, adds its PC
// to the slice and swaps that register out for whatever registers feed it,
// plus two forward lookups that pull in an object's follow-on
// initialization: new-instance's constructor call, and new-array's
// fill-array-data payload.
func BuildDependencies(trace map[int]disasm.Entry, targetPC int, argRegs []int) map[int]bool {
	pcs := make([]int, 0, len(trace))
	for pc := range trace {
		if pc < targetPC {
			pcs = append(pcs, pc)
		}
	}
	sort.Ints(pcs)
	deps := map[int]bool{}
	if len(pcs) == 0 {
		return deps
	}

	needed := map[int]bool{}
	for _, r := range argRegs {
		needed[r] = true
	}

	for i := len(pcs) - 1; i >= 0; i-- {
		pc := pcs[i]
		in := trace[pc].Instruction
		op := in.Opcode

		var writtenReg int
		hasWrite := false
		var readRegs []int

		switch {
		case isConstOp(op):
			writtenReg, hasWrite = int(in.A), true

		case isMoveOp(op):
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.B))

		case isMoveResultOp(op):
			writtenReg, hasWrite = int(in.A), true
			// Pull in the preceding invoke unconditionally: a move-result
			// is meaningless without the call that produced its value,
			// whether or not this particular register turns out to be on
			// the chain back to the target's arguments.
			for j := i - 1; j >= 0; j-- {
				prevIn := trace[pcs[j]].Instruction
				if isInvokeOp(prevIn.Opcode) {
					deps[pcs[j]] = true
					readRegs = append(readRegs, invokeArgRegs(prevIn)...)
					break
				}
			}

		case op >= 0x60 && op <= 0x66: // sget family
			writtenReg, hasWrite = int(in.A), true

		case op >= 0x52 && op <= 0x58: // iget family
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.B))

		case op >= 0x44 && op <= 0x4a: // aget family
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.B), int(in.C))

		case op == 0x23: // new-array
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.B))
			for j := i + 1; j < len(pcs); j++ {
				fwdPC := pcs[j]
				fwd := trace[fwdPC].Instruction
				if fwd.Opcode == 0x26 && int(fwd.A) == writtenReg { // fill-array-data
					deps[fwdPC] = true
					break
				}
			}

		case op == 0x22: // new-instance
			writtenReg, hasWrite = int(in.A), true
			for j := i + 1; j < len(pcs); j++ {
				fwdPC := pcs[j]
				fwd := trace[fwdPC]
				if fwd.Instruction.Opcode == 0x70 && fwd.MethodRef.Name == "<init>" { // invoke-direct <init>
					args := invokeArgRegs(fwd.Instruction)
					if len(args) > 0 && args[0] == writtenReg {
						deps[fwdPC] = true
						readRegs = append(readRegs, args[1:]...)
						break
					}
				}
			}

		case op == 0x1f: // check-cast, modifies in place
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.A))

		case isBinOp(op):
			a, b, c, hasC := binOpOperands(op, in)
			writtenReg, hasWrite = a, true
			readRegs = append(readRegs, b)
			if hasC {
				readRegs = append(readRegs, c)
			}
			if is2AddrBinOp(op) {
				readRegs = append(readRegs, a)
			}

		case isUnaryOp(op):
			writtenReg, hasWrite = int(in.A), true
			readRegs = append(readRegs, int(in.B))
		}

		if hasWrite && needed[writtenReg] {
			deps[pc] = true
			delete(needed, writtenReg)
			for _, r := range readRegs {
				needed[r] = true
			}
		}
	}

	return deps
}

func isConstOp(op byte) bool {
	return op >= 0x12 && op <= 0x1c // const/4 .. const-class
}

func isMoveOp(op byte) bool {
	return op >= 0x01 && op <= 0x09 // move, move-wide, move-object (all three, all width variants)
}

func isMoveResultOp(op byte) bool {
	return op == 0x0a || op == 0x0b || op == 0x0c
}

func isInvokeOp(op byte) bool {
	return (op >= 0x6e && op <= 0x72) || (op >= 0x74 && op <= 0x78)
}

// isBinOp covers every binary-arithmetic encoding: 23x, 2addr, lit16, lit8.
func isBinOp(op byte) bool {
	return (op >= 0x90 && op <= 0xaf) || (op >= 0xb0 && op <= 0xcf) ||
		(op >= 0xd0 && op <= 0xd7) || (op >= 0xd8 && op <= 0xe2)
}

// is2AddrBinOp reports whether op is a 2addr binop encoding, where the
// destination register is also a source (vA = vA op vB) and so must be
// added to the read set alongside vB.
func is2AddrBinOp(op byte) bool {
	return op >= 0xb0 && op <= 0xcf
}

// isUnaryOp covers neg/not and the int/long/float/double conversions
// (0x7b-0x8f), all format 12x (dest vA, src vB).
func isUnaryOp(op byte) bool {
	return op >= 0x7b && op <= 0x8f
}

// binOpOperands returns (dest, src1, src2, hasSrc2) for any binop encoding.
// 2addr folds dest and src1 into the same register.
func binOpOperands(op byte, in vm.Instruction) (int, int, int, bool) {
	switch {
	case op >= 0x90 && op <= 0xaf: // 23x: vAA, vBB, vCC
		return int(in.A), int(in.B), int(in.C), true
	case op >= 0xb0 && op <= 0xcf: // 2addr: vA, vB (vA read and written; see is2AddrBinOp)
		return int(in.A), int(in.B), 0, false
	case op >= 0xd0 && op <= 0xd7, op >= 0xd8 && op <= 0xe2: // lit16/lit8: vA, vB, #lit
		return int(in.A), int(in.B), 0, false
	default:
		return 0, 0, 0, false
	}
}

// InvokeArgRegs returns the argument register list for an invoke-family
// instruction, expanding the /range contiguous form if that shape was used.
// Exported for the driver's call-site scan, which needs the same
// expansion slicing already does internally for move-result chaining.
func InvokeArgRegs(in vm.Instruction) []int { return invokeArgRegs(in) }

// invokeArgRegs returns the argument register list for an invoke-family
// instruction, expanding the /range contiguous form if that shape was used.
func invokeArgRegs(in vm.Instruction) []int {
	if len(in.VarArgs) > 0 || !isInvokeRange(in) {
		regs := make([]int, len(in.VarArgs))
		for i, r := range in.VarArgs {
			regs[i] = int(r)
		}
		return regs
	}
	regs := make([]int, 0, in.RangeCount)
	for i := int32(0); i < in.RangeCount; i++ {
		regs = append(regs, int(in.RangeStart+i))
	}
	return regs
}

func isInvokeRange(in vm.Instruction) bool {
	return in.RangeCount > 0
}
