package disasm

import (
	"encoding/binary"
	"testing"

	"github.com/fatalsec/dalivm/internal/vm"
)

type fakeResolver struct{}

func (fakeResolver) String(idx uint32) string { return "str" }
func (fakeResolver) Type(idx uint32) string   { return "Ltype;" }
func (fakeResolver) Field(idx uint32) vm.FieldRef {
	return vm.FieldRef{Class: "LHolder;", Name: "field", TypeDesc: "I"}
}
func (fakeResolver) Method(idx uint32) vm.MethodRef {
	return vm.MethodRef{Class: "LHolder;", Name: "doIt", ParamDescs: nil, ReturnDesc: "V"}
}

func putU16(buf *[]byte, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	*buf = append(*buf, b[:]...)
}

func TestBuildDecodesConstAndReturn(t *testing.T) {
	var code []byte
	// const/4 v0, #5 : op=0x12, byte1 = (5<<4)|0
	putU16(&code, uint16(0x12)|uint16(5)<<12)
	// return v0 : op=0x0f, byte1 = vAA = 0
	putU16(&code, uint16(0x0f))

	entries := Build(code, fakeResolver{})
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Mnemonic != "const/4" {
		t.Errorf("entries[0].Mnemonic = %q, want const/4", entries[0].Mnemonic)
	}
	if entries[0].Instruction.A != 0 || entries[0].Instruction.Lit != 5 {
		t.Errorf("entries[0] decoded A=%d Lit=%d, want A=0 Lit=5", entries[0].Instruction.A, entries[0].Instruction.Lit)
	}
	if entries[1].PC != 1 {
		t.Errorf("entries[1].PC = %d, want 1", entries[1].PC)
	}
	if entries[1].Mnemonic != "return" {
		t.Errorf("entries[1].Mnemonic = %q, want return", entries[1].Mnemonic)
	}
}

func TestBuildResolvesFieldAndMethodRefs(t *testing.T) {
	var code []byte
	// sget v0, field@0001 : op=0x60 fmt21c, A=byte1, poolidx = next u16
	putU16(&code, uint16(0x60))
	putU16(&code, 1)
	// invoke-static {}, method@0002 : op=0x71 fmt35c, argcount/regs in byte1, poolidx next u16, regs word after
	putU16(&code, uint16(0x71))
	putU16(&code, 2)
	putU16(&code, 0)

	entries := Build(code, fakeResolver{})
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].FieldRef.Class != "LHolder;" || entries[0].FieldRef.Name != "field" {
		t.Errorf("entries[0].FieldRef = %+v, want resolved field", entries[0].FieldRef)
	}
	if entries[1].MethodRef.Class != "LHolder;" || entries[1].MethodRef.Name != "doIt" {
		t.Errorf("entries[1].MethodRef = %+v, want resolved method", entries[1].MethodRef)
	}
}

func TestByPCIndexesByProgramCounter(t *testing.T) {
	var code []byte
	putU16(&code, uint16(0x00)) // nop
	putU16(&code, uint16(0x0e)) // return-void
	byPC := ByPC(Build(code, fakeResolver{}))
	if _, ok := byPC[0]; !ok {
		t.Fatalf("missing entry at PC 0")
	}
	if _, ok := byPC[1]; !ok {
		t.Fatalf("missing entry at PC 1")
	}
}
