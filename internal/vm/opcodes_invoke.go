package vm

import "github.com/fatalsec/dalivm/internal/value"

func invokeKindOf(op byte) InvokeKind {
	switch op {
	case 0x6e, 0x74:
		return InvokeVirtual
	case 0x6f, 0x75:
		return InvokeSuper
	case 0x70, 0x76:
		return InvokeDirect
	case 0x71, 0x77:
		return InvokeStatic
	case 0x72, 0x78:
		return InvokeInterface
	default:
		return InvokeVirtual
	}
}

// opInvoke backs invoke-virtual/super/direct/static/interface (format 35c):
// arguments come from the explicit register list, receiver first for every
// kind but invoke-static.
func opInvoke(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Method(in.PoolIdx)
	args := make([]value.Value, 0, len(in.VarArgs))
	for _, r := range in.VarArgs {
		args = append(args, m.regs.Get(int(r)))
	}
	dispatchInvoke(m, invokeKindOf(in.Opcode), ref, args)
	m.advance(next)
}

// opInvokeRange backs the /range invoke family (format 3rc): the argument
// list is a contiguous register run instead of an explicit list.
func opInvokeRange(m *DalvikVM, in Instruction, next int) {
	ref := m.opts.Resolver.Method(in.PoolIdx)
	count := int(in.RangeCount)
	args := make([]value.Value, count)
	for i := 0; i < count; i++ {
		args[i] = m.regs.Get(int(in.RangeStart) + i)
	}
	dispatchInvoke(m, invokeKindOf(in.Opcode), ref, args)
	m.advance(next)
}

func dispatchInvoke(m *DalvikVM, kind InvokeKind, ref MethodRef, args []value.Value) {
	if m.opts.Invoker == nil {
		return
	}
	if result, ok := m.opts.Invoker.Invoke(kind, ref, args); ok {
		m.setResult(result)
	}
}
