package vm

import "github.com/fatalsec/dalivm/internal/value"

// opMove backs move, move/from16, move/16, move-object, move-object/from16
// and move-object/16: a plain register-to-register copy. Object references
// need no special handling since value.Value already carries the object
// pointer, so moving a reference is exactly moving a scalar.
func opMove(m *DalvikVM, in Instruction, next int) {
	m.regs.Set(int(in.A), m.regs.Get(int(in.B)))
	m.advance(next)
}

// opMoveWide backs move-wide, move-wide/from16 and move-wide/16.
func opMoveWide(m *DalvikVM, in Instruction, next int) {
	m.regs.CopyWide(int(in.A), int(in.B))
	m.advance(next)
}

// opMoveResult backs move-result and move-result-object: both just drain
// the pending call result into a register.
func opMoveResult(m *DalvikVM, in Instruction, next int) {
	m.regs.Set(int(in.A), m.takeResult())
	m.advance(next)
}

// opMoveResultWide backs move-result-wide.
func opMoveResultWide(m *DalvikVM, in Instruction, next int) {
	m.regs.SetWide(int(in.A), m.takeResult())
	m.advance(next)
}

// opMoveException backs move-exception. The interpreter never unwinds to a
// catch handler (a throw ends the run immediately), so this only fires if
// bytecode reaches a catch block through control flow the slicer's
// forward-lookup walk does not model; it yields a generic throwable rather
// than tracking the thrown instance.
func opMoveException(m *DalvikVM, in Instruction, next int) {
	m.regs.Set(int(in.A), value.FromObject(value.NewObject("Ljava/lang/Throwable;")))
	m.advance(next)
}
