package slicer

import (
	"sort"

	"github.com/fatalsec/dalivm/internal/disasm"
	"github.com/fatalsec/dalivm/internal/value"
	"github.com/fatalsec/dalivm/internal/vm"
)

// Resolution is the outcome of driving one call site's argument slice: the
// values the invoke's argument registers held once the slice finished
// executing, and which of those registers never got written by anything in
// the slice (still carrying their initial null) and so are candidates for
// mock injection by the caller.
type Resolution struct {
	Args       []value.Value
	Unresolved []bool
	SlicePCs   map[int]bool
}

// ResolveArgs computes the backward slice for the invoke at targetPC within
// a method whose bytecode is code/regSize, executes exactly that slice (in
// ascending PC order, skipping everything else) against a fresh interpreter
// built from opts, and reads back argRegs.
//
// The slice is driven by repositioning the interpreter's PC to each
// dependency in turn rather than running the method's normal control flow,
// which is what makes a single call site's argument resolution cheap in a
// method with thousands of instructions mostly irrelevant to this one
// invoke.
func ResolveArgs(code []byte, regSize int, opts vm.Options, trace map[int]disasm.Entry, targetPC int, argRegs []int) Resolution {
	deps := BuildDependencies(trace, targetPC, argRegs)

	pcs := make([]int, 0, len(deps))
	for pc := range deps {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)

	interp := vm.New(code, regSize, opts)
	for _, pc := range pcs {
		func() {
			// A panicking opcode handler skips only its own instruction;
			// execution continues at the next slice PC.
			defer func() { _ = recover() }()
			interp.SetPC(pc)
			interp.Step()
		}()
	}

	regs := interp.Registers()
	args := make([]value.Value, len(argRegs))
	unresolved := make([]bool, len(argRegs))
	for i, r := range argRegs {
		v := regs.Get(r)
		args[i] = v
		unresolved[i] = v.IsNull()
	}
	return Resolution{Args: args, Unresolved: unresolved, SlicePCs: deps}
}
