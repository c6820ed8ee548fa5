package vm

import "github.com/fatalsec/dalivm/internal/value"

// opCheckCast backs check-cast: a no-op other than advancing the PC.
// IsInstance only walks the declared superclass chain and never models
// interfaces, so a real ClassCastException check here would spuriously
// abort execution on the ubiquitous cast to an interface type (e.g. a
// List-typed local holding a mocked ArrayList); vA's value and type are
// left exactly as they were.
func opCheckCast(m *DalvikVM, in Instruction, next int) {
	m.advance(next)
}

// opInstanceOf backs instance-of (format 22c): vA <- vB instanceof type.
// A null reference is never an instance of anything, per the Open Question
// this interpreter resolves concretely: null always yields false, never an
// unknown or thrown value.
func opInstanceOf(m *DalvikVM, in Instruction, next int) {
	wanted := m.opts.Resolver.Type(in.PoolIdx)
	v := m.regs.Get(int(in.B))
	result := false
	if !v.IsNull() && v.Obj != nil && m.opts.Classes != nil {
		result = m.opts.Classes.IsInstance(v.Obj.ClassName, wanted)
	}
	b := int32(0)
	if result {
		b = 1
	}
	m.regs.Set(int(in.A), value.Int(b))
	m.advance(next)
}

// opNewInstance backs new-instance: vA <- a fresh, uninitialized instance
// of the resolved type. <init> is whatever invoke-direct bytecode follows;
// this opcode only allocates.
func opNewInstance(m *DalvikVM, in Instruction, next int) {
	class := m.opts.Resolver.Type(in.PoolIdx)
	m.regs.Set(int(in.A), value.FromObject(value.NewObject(class)))
	m.advance(next)
}
