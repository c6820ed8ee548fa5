package vm

import "github.com/fatalsec/dalivm/internal/value"

// opNop backs nop: no state change.
func opNop(m *DalvikVM, in Instruction, next int) { m.advance(next) }

// opReturnVoid backs return-void.
func opReturnVoid(m *DalvikVM, in Instruction, next int) {
	m.doReturn(value.Null(), false)
}

// opReturn backs return, return-object: both return a single register's
// value, object or scalar.
func opReturn(m *DalvikVM, in Instruction, next int) {
	m.doReturn(m.regs.Get(int(in.A)), true)
}

// opReturnWide backs return-wide.
func opReturnWide(m *DalvikVM, in Instruction, next int) {
	m.doReturn(m.regs.Get(int(in.A)), true)
}

// opMonitor backs monitor-enter and monitor-exit. The interpreter performs
// no concurrency, so both are no-ops that only consume the instruction.
func opMonitor(m *DalvikVM, in Instruction, next int) { m.advance(next) }

// opThrow backs throw. Per the faithful, non-unwinding design, this ends
// the run immediately rather than searching for a handler: the interpreter
// reports that a throw occurred and with which class, but never resumes
// bytecode after it.
func opThrow(m *DalvikVM, in Instruction, next int) {
	v := m.regs.Get(int(in.A))
	class := "Ljava/lang/Throwable;"
	if v.Obj != nil && v.Obj.ClassName != "" {
		class = v.Obj.ClassName
	}
	m.doThrow(class)
}
