package vm

import (
	"fmt"

	"github.com/fatalsec/dalivm/internal/statics"
	"github.com/fatalsec/dalivm/internal/value"
)

// InvokeKind names which of the five Dalvik invoke opcodes triggered a
// call, since virtual/super/direct/static/interface dispatch differ in how
// the target method is resolved.
type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeSuper
	InvokeDirect
	InvokeStatic
	InvokeInterface
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeVirtual:
		return "invoke-virtual"
	case InvokeSuper:
		return "invoke-super"
	case InvokeDirect:
		return "invoke-direct"
	case InvokeStatic:
		return "invoke-static"
	case InvokeInterface:
		return "invoke-interface"
	default:
		return "invoke-unknown"
	}
}

// MethodRef is a resolved, typed method reference: the pool index decoded
// into the triple an invoker actually needs to look the target up, rather
// than a disassembled text string to pattern-match against.
type MethodRef struct {
	Class      string
	Name       string
	ParamDescs []string
	ReturnDesc string
}

// Signature renders "(params)ret".
func (r MethodRef) Signature() string {
	p := ""
	for _, d := range r.ParamDescs {
		p += d
	}
	return "(" + p + ")" + r.ReturnDesc
}

// FullName renders "LClass;->name(params)ret", for logging only.
func (r MethodRef) FullName() string { return r.Class + "->" + r.Name + r.Signature() }

// FieldRef is a resolved field reference (class, name, type descriptor).
type FieldRef struct {
	Class    string
	Name     string
	TypeDesc string
}

// Resolver turns constant-pool indices embedded in an instruction into the
// typed records opcode handlers operate on. One Resolver instance is scoped
// to the DEX container that owns the method currently executing.
type Resolver interface {
	String(idx uint32) string
	Type(idx uint32) string
	Field(idx uint32) FieldRef
	Method(idx uint32) MethodRef
}

// Invoker executes (or mocks) a call reached by an invoke-family opcode.
// ok is false when the call could not be resolved to any value (the callee
// has no bytecode, no mock, and no inferable return), in which case the
// interpreter treats the result as an unknown null rather than aborting.
type Invoker interface {
	Invoke(kind InvokeKind, ref MethodRef, args []value.Value) (result value.Value, ok bool)
}

// ClassHost provides the class-level operations an interpreter needs but
// does not itself implement: static-field seeding/<clinit> triggering and
// instance-of class-hierarchy answers.
type ClassHost interface {
	// EnsureInitialized triggers <clinit> for class if not already
	// attempted, lazily loading and executing it.
	EnsureInitialized(class string)
	// IsInstance reports whether an object of class actual satisfies the
	// type check against descriptor wanted.
	IsInstance(actual, wanted string) bool
}

// Options configures one interpreter run. Silent marks a nested or
// class-initializer run; it is a plain field, never a mutable global, and
// the interpreter emits no per-step trace whatever its value.
type Options struct {
	Silent    bool
	StepLimit int
	Invoker   Invoker
	Resolver  Resolver
	Classes   ClassHost
	Statics   *statics.Store
}

// ErrStepLimitExceeded is returned by Run when a method's instruction
// budget is exhausted, most often meaning the method loops unboundedly
// against inputs the interpreter cannot drive to a fixed point.
type ErrStepLimitExceeded struct {
	Limit int
}

func (e *ErrStepLimitExceeded) Error() string {
	return fmt.Sprintf("vm: step limit of %d instructions exceeded", e.Limit)
}

// DalvikVM interprets one method's bytecode against one register file.
type DalvikVM struct {
	code []byte
	regs *value.Registers
	pc   int // current position, in 16-bit code units

	result     value.Value
	hasResult  bool
	returned   value.Value
	hasReturn  bool
	finished   bool
	threwClass string // non-empty once a throw instruction has executed

	opts  Options
	steps int
}

// New builds an interpreter for one method body. regSize is the method's
// declared register count (code_item.registers_size); args are placed by
// the caller into the tail registers before Run is invoked.
func New(code []byte, regSize int, opts Options) *DalvikVM {
	if opts.StepLimit <= 0 {
		opts.StepLimit = 5000
	}
	return &DalvikVM{
		code: code,
		regs: value.NewRegisters(regSize),
		opts: opts,
	}
}

// Registers exposes the register file so a caller can seed argument
// registers before Run.
func (m *DalvikVM) Registers() *value.Registers { return m.regs }

// SetPC repositions the program counter. The slicer drives an interpreter
// through an out-of-sequence subset of a method's instructions (its
// dependency set) rather than Run's full linear walk, jumping to each
// dependency PC in turn.
func (m *DalvikVM) SetPC(pc int) { m.pc = pc }

// PC reports the current program counter, in 16-bit code units.
func (m *DalvikVM) PC() int { return m.pc }

// Step decodes and executes exactly one instruction at the current PC,
// for callers (the slicer) that drive execution instruction-by-instruction
// instead of through Run's step-limited loop. It never returns an error;
// running off the end of the code simply marks the interpreter finished.
func (m *DalvikVM) Step() { m.step() }

// Finished reports whether a return or throw has ended the run.
func (m *DalvikVM) Finished() bool { return m.finished }

// Run executes from register 0 / pc 0 until a return, an unhandled throw,
// or the step limit. It returns the returned value (null/zero value if the
// method returned void or the run ended in a throw) and whether a
// meaningful return value was produced.
func (m *DalvikVM) Run() (value.Value, bool, error) {
	for !m.finished {
		if m.steps >= m.opts.StepLimit {
			return value.Null(), false, &ErrStepLimitExceeded{Limit: m.opts.StepLimit}
		}
		m.steps++
		if err := m.step(); err != nil {
			return value.Null(), false, err
		}
	}
	return m.returned, m.hasReturn, nil
}

// Threw reports the class of an exception thrown during the run, if any.
// The interpreter is faithful rather than unwinding: a throw ends the run
// immediately with no return value, but callers are never handed a Go
// panic for it.
func (m *DalvikVM) Threw() (class string, threw bool) {
	return m.threwClass, m.threwClass != ""
}

func (m *DalvikVM) step() error {
	if m.pc*2 >= len(m.code) {
		m.finished = true
		return nil
	}
	in := Decode(m.code, m.pc)
	handler := dispatchTable[in.Opcode]
	if handler == nil {
		// Unassigned or not-yet-modeled opcode: skip over it rather than
		// aborting the run, matching the "warn and continue" disposition
		// used throughout the interpreter for anything it cannot model.
		m.pc += in.Units
		return nil
	}
	nextPC := m.pc + in.Units
	handler(m, in, nextPC)
	return nil
}

// advance is the default successor-pc rule every non-branching handler
// uses.
func (m *DalvikVM) advance(nextPC int) { m.pc = nextPC }

// branchTo jumps relative to the start of the current instruction, per
// Dalvik's code-unit-relative branch offsets.
func (m *DalvikVM) branchTo(in Instruction) { m.pc += int(in.Branch) }

func (m *DalvikVM) setResult(v value.Value) {
	m.result = v
	m.hasResult = true
}

func (m *DalvikVM) takeResult() value.Value {
	if !m.hasResult {
		return value.Null()
	}
	v := m.result
	m.result = value.Null()
	m.hasResult = false
	return v
}

func (m *DalvikVM) doReturn(v value.Value, has bool) {
	m.returned = v
	m.hasReturn = has
	m.finished = true
}

func (m *DalvikVM) doThrow(class string) {
	m.threwClass = class
	m.finished = true
}
