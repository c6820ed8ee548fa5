package vm

import "github.com/fatalsec/dalivm/internal/value"

// isWideFieldOp reports whether an iget/iput/sget/sput opcode carries a
// wide (long/double) payload, based on the field-op table's fixed layout:
// each family groups plain, wide, object, boolean, byte, char, short in
// that order.
func isWideFieldOp(op byte) bool {
	switch op {
	case 0x53, 0x5a, 0x61, 0x68: // iget-wide, iput-wide, sget-wide, sput-wide
		return true
	default:
		return false
	}
}

// opIGet backs the iget family (format 22c: vA <- vB.field).
func opIGet(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Field(in.PoolIdx)
	obj := m.regs.Get(int(in.B)).Obj
	v := obj.GetField(ref.Name)
	if isWideFieldOp(in.Opcode) {
		m.regs.SetWide(int(in.A), v)
	} else {
		m.regs.Set(int(in.A), v)
	}
	m.advance(next)
}

// opIPut backs the iput family: vB.field <- vA.
func opIPut(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Field(in.PoolIdx)
	obj := m.regs.Get(int(in.B)).Obj
	if obj != nil {
		obj.SetField(ref.Name, m.regs.Get(int(in.A)))
	}
	m.advance(next)
}

// opSGet backs the sget family (format 21c): vA <- Class.field, triggering
// <clinit> for the owning class first since a read can observe static
// state only after it has been initialized.
func opSGet(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Field(in.PoolIdx)
	if m.opts.Classes != nil {
		m.opts.Classes.EnsureInitialized(ref.Class)
	}
	v := m.opts.Statics.Get(ref.Class, ref.Name, value.Null())
	if isWideFieldOp(in.Opcode) {
		m.regs.SetWide(int(in.A), v)
	} else {
		m.regs.Set(int(in.A), v)
	}
	m.advance(next)
}

// opSPut backs the sput family: Class.field <- vA.
func opSPut(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Field(in.PoolIdx)
	if m.opts.Classes != nil {
		m.opts.Classes.EnsureInitialized(ref.Class)
	}
	m.opts.Statics.Set(ref.Class, ref.Name, m.regs.Get(int(in.A)))
	m.advance(next)
}
