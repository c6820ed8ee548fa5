package vm

import "github.com/fatalsec/dalivm/internal/value"

// opConstInt backs const/4, const/16, const and const/high16: all load a
// literal into a single register as a raw 32-bit payload. const/high16
// shifts its 16-bit literal into the top half, matching its encoding.
func opConstInt(m *DalvikVM, in Instruction, next int) {
	lit := in.Lit
	if in.Opcode == 0x15 { // const/high16
		lit = lit << 16
	}
	m.regs.Set(int(in.A), value.Int(int32(lit)))
	m.advance(next)
}

// opConstWide backs const-wide/16, const-wide/32, const-wide and
// const-wide/high16, all loading a wide literal as a raw 64-bit payload.
func opConstWide(m *DalvikVM, in Instruction, next int) {
	lit := in.Lit
	if in.Opcode == 0x19 { // const-wide/high16
		lit = lit << 48
	}
	m.regs.SetWide(int(in.A), value.Long(lit))
	m.advance(next)
}

// opConstString backs const-string and const-string/jumbo.
func opConstString(m *DalvikVM, in Instruction, next int) {
	s := m.opts.Resolver.String(in.PoolIdx)
	m.regs.Set(int(in.A), value.FromObject(value.NewString(s)))
	m.advance(next)
}

// opConstClass backs const-class: a java.lang.Class stand-in carrying the
// resolved type descriptor as its internal text, enough for mocks and
// instance-of/check-cast bookkeeping that inspects it.
func opConstClass(m *DalvikVM, in Instruction, next int) {
	desc := m.opts.Resolver.Type(in.PoolIdx)
	o := value.NewObject("Ljava/lang/Class;")
	o.Internal = desc
	m.regs.Set(int(in.A), value.FromObject(o))
	m.advance(next)
}
