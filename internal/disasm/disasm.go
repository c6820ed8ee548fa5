// Package disasm renders decoded bytecode into the typed trace map the
// slicer and reporting layer consume: one entry per instruction, carrying
// the same typed Instruction the interpreter itself decodes plus — for any
// instruction whose operand is a constant-pool index — the resolved typed
// reference (string, type, field, or method) rather than a bare index.
//
// A textual mnemonic is rendered alongside purely for log/report display;
// nothing downstream parses it, per the no-string-matching redesign.
package disasm

import "github.com/fatalsec/dalivm/internal/vm"

// PoolKind names which constant-pool table an instruction's PoolIdx
// operand indexes into, so Build knows which Resolver method to call.
type PoolKind uint8

const (
	PoolNone PoolKind = iota
	PoolString
	PoolType
	PoolField
	PoolMethod
)

// Entry is one decoded instruction, positioned at its PC (in 16-bit code
// units) within a method's bytecode.
type Entry struct {
	PC   int
	Next int // PC + Units, the fall-through successor
	Instruction vm.Instruction

	Mnemonic string

	// Exactly one of these is populated, chosen by the instruction's
	// PoolKind; all are the zero value otherwise.
	StringRef string
	TypeRef   string
	FieldRef  vm.FieldRef
	MethodRef vm.MethodRef
}

// Build decodes every instruction in code into a PC-ordered trace, resolving
// constant-pool operands through resolver.
func Build(code []byte, resolver vm.Resolver) []Entry {
	var entries []Entry
	pc := 0
	for pc*2 < len(code) {
		in := vm.Decode(code, pc)
		if in.Units <= 0 {
			in.Units = 1
		}
		e := Entry{PC: pc, Next: pc + in.Units, Instruction: in}
		e.Mnemonic = mnemonicOf(in)
		switch poolKindOf(in.Opcode) {
		case PoolString:
			e.StringRef = resolver.String(in.PoolIdx)
		case PoolType:
			e.TypeRef = resolver.Type(in.PoolIdx)
		case PoolField:
			e.FieldRef = resolver.Field(in.PoolIdx)
		case PoolMethod:
			e.MethodRef = resolver.Method(in.PoolIdx)
		}
		entries = append(entries, e)
		pc = e.Next
	}
	return entries
}

// ByPC indexes a trace by instruction PC, the shape every slicer/resolver
// lookup actually wants.
func ByPC(entries []Entry) map[int]Entry {
	out := make(map[int]Entry, len(entries))
	for _, e := range entries {
		out[e.PC] = e
	}
	return out
}

// poolKindOf reports which pool table, if any, opcode's PoolIdx indexes.
func poolKindOf(op byte) PoolKind {
	switch {
	case op == 0x1a || op == 0x1b:
		return PoolString // const-string, const-string/jumbo
	case op == 0x1c || op == 0x1f || op == 0x20 || op == 0x22 || op == 0x23 || op == 0x24 || op == 0x25:
		return PoolType // const-class, check-cast, instance-of, new-instance, new-array, filled-new-array(/range)
	case op >= 0x52 && op <= 0x6d:
		return PoolField // iget*/iput*/sget*/sput*
	case (op >= 0x6e && op <= 0x72) || (op >= 0x74 && op <= 0x78):
		return PoolMethod // invoke-kind(/range)
	default:
		return PoolNone
	}
}

var invokeNames = map[byte]string{
	0x6e: "invoke-virtual", 0x6f: "invoke-super", 0x70: "invoke-direct",
	0x71: "invoke-static", 0x72: "invoke-interface",
	0x74: "invoke-virtual/range", 0x75: "invoke-super/range", 0x76: "invoke-direct/range",
	0x77: "invoke-static/range", 0x78: "invoke-interface/range",
}

var fixedNames = map[byte]string{
	0x00: "nop", 0x01: "move", 0x02: "move/from16", 0x03: "move/16",
	0x04: "move-wide", 0x05: "move-wide/from16", 0x06: "move-wide/16",
	0x07: "move-object", 0x08: "move-object/from16", 0x09: "move-object/16",
	0x0a: "move-result", 0x0b: "move-result-wide", 0x0c: "move-result-object",
	0x0d: "move-exception", 0x0e: "return-void", 0x0f: "return",
	0x10: "return-wide", 0x11: "return-object",
	0x12: "const/4", 0x13: "const/16", 0x14: "const", 0x15: "const/high16",
	0x16: "const-wide/16", 0x17: "const-wide/32", 0x18: "const-wide",
	0x19: "const-wide/high16", 0x1a: "const-string", 0x1b: "const-string/jumbo",
	0x1c: "const-class", 0x1d: "monitor-enter", 0x1e: "monitor-exit",
	0x1f: "check-cast", 0x20: "instance-of", 0x21: "array-length",
	0x22: "new-instance", 0x23: "new-array", 0x24: "filled-new-array",
	0x25: "filled-new-array/range", 0x26: "fill-array-data", 0x27: "throw",
	0x28: "goto", 0x29: "goto/16", 0x2a: "goto/32",
	0x2b: "packed-switch", 0x2c: "sparse-switch",
	0x2d: "cmpl-float", 0x2e: "cmpg-float", 0x2f: "cmpl-double",
	0x30: "cmpg-double", 0x31: "cmp-long",
	0x32: "if-eq", 0x33: "if-ne", 0x34: "if-lt", 0x35: "if-ge", 0x36: "if-gt", 0x37: "if-le",
	0x38: "if-eqz", 0x39: "if-nez", 0x3a: "if-ltz", 0x3b: "if-gez", 0x3c: "if-gtz", 0x3d: "if-lez",
	0x44: "aget", 0x45: "aget-wide", 0x46: "aget-object", 0x47: "aget-boolean",
	0x48: "aget-byte", 0x49: "aget-char", 0x4a: "aget-short",
	0x4b: "aput", 0x4c: "aput-wide", 0x4d: "aput-object", 0x4e: "aput-boolean",
	0x4f: "aput-byte", 0x50: "aput-char", 0x51: "aput-short",
	0x52: "iget", 0x53: "iget-wide", 0x54: "iget-object", 0x55: "iget-boolean",
	0x56: "iget-byte", 0x57: "iget-char", 0x58: "iget-short",
	0x59: "iput", 0x5a: "iput-wide", 0x5b: "iput-object", 0x5c: "iput-boolean",
	0x5d: "iput-byte", 0x5e: "iput-char", 0x5f: "iput-short",
	0x60: "sget", 0x61: "sget-wide", 0x62: "sget-object", 0x63: "sget-boolean",
	0x64: "sget-byte", 0x65: "sget-char", 0x66: "sget-short",
	0x67: "sput", 0x68: "sput-wide", 0x69: "sput-object", 0x6a: "sput-boolean",
	0x6b: "sput-byte", 0x6c: "sput-char", 0x6d: "sput-short",
}

var binOpNames = []string{
	"add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr", "ushr",
}

// mnemonicOf renders a debug-readable, smali-ish name for the instruction.
// Arithmetic ranges (0x7b-0xe2) are named from their opcode-table position
// rather than exhaustively enumerated, since this text is never parsed.
func mnemonicOf(in vm.Instruction) string {
	op := in.Opcode
	if n, ok := fixedNames[op]; ok {
		return n
	}
	if n, ok := invokeNames[op]; ok {
		return n
	}
	switch {
	case op >= 0x7b && op <= 0x8f:
		return "unop"
	case op >= 0x90 && op <= 0xaf:
		return binOpName(int(op)-0x90) + "-int/long/float/double"
	case op >= 0xb0 && op <= 0xcf:
		return binOpName(int(op)-0xb0) + "/2addr"
	case op >= 0xd0 && op <= 0xd7:
		return binOpName(int(op)-0xd0) + "/lit16"
	case op >= 0xd8 && op <= 0xe2:
		return binOpName(int(op)-0xd8) + "/lit8"
	default:
		return "unknown"
	}
}

func binOpName(idx int) string {
	families := 4
	per := len(binOpNames)
	_ = families
	i := idx % per
	if i < 0 {
		i = 0
	}
	if i >= len(binOpNames) {
		return "binop"
	}
	return binOpNames[i]
}
