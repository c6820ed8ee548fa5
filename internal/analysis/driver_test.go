package analysis

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/mock"
)

// The following mini-DEX builder duplicates internal/dex's test fixture
// shape (one class, one static method, a two-unit code_item) since dex's
// own builder is unexported. It gives this package's driver tests a real
// *dex.Program without needing an APK fixture on disk.

type miniDexBuilder struct{ buf bytes.Buffer }

func (b *miniDexBuilder) off() uint32 { return uint32(b.buf.Len()) }

func (b *miniDexBuilder) writeStringData(s string) uint32 {
	off := b.off()
	putULEB128(&b.buf, uint32(len([]rune(s))))
	b.buf.WriteString(s)
	b.buf.WriteByte(0x00)
	return off
}

func putULEB128(buf *bytes.Buffer, v uint32) {
	for {
		bb := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf.WriteByte(bb | 0x80)
		} else {
			buf.WriteByte(bb)
			break
		}
	}
}

func u16(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.LittleEndian, v) }
func u32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }

const miniHeaderSize = 0x70

// buildTargetDex declares Lcom/example/Target;->target()I with a body of
// const/4 v0, #5 ; return v0.
func buildTargetDex(t *testing.T) []byte {
	t.Helper()
	var b miniDexBuilder
	b.buf.Write(make([]byte, miniHeaderSize))

	classNameOff := b.writeStringData("Lcom/example/Target;")
	nameOff := b.writeStringData("target")
	intTypeOff := b.writeStringData("I")

	codeOff := b.off()
	u16(&b.buf, 1) // registers_size
	u16(&b.buf, 0) // ins_size
	u16(&b.buf, 0) // outs_size
	u16(&b.buf, 0) // tries_size
	u32(&b.buf, 0) // debug_info_off
	u32(&b.buf, 2) // insns_size
	u16(&b.buf, 0x5012) // const/4 v0, #5
	u16(&b.buf, 0x000f) // return v0

	classDataOff := b.off()
	putULEB128(&b.buf, 0)
	putULEB128(&b.buf, 0)
	putULEB128(&b.buf, 1)
	putULEB128(&b.buf, 0)
	putULEB128(&b.buf, 0)
	putULEB128(&b.buf, 0x0009)
	putULEB128(&b.buf, codeOff)

	stringIDsOff := b.off()
	u32(&b.buf, classNameOff)
	u32(&b.buf, nameOff)
	u32(&b.buf, intTypeOff)

	typeIDsOff := b.off()
	u32(&b.buf, 0)
	u32(&b.buf, 2)

	protoIDsOff := b.off()
	u32(&b.buf, 2)
	u32(&b.buf, 1)
	u32(&b.buf, 0)

	methodIDsOff := b.off()
	u16(&b.buf, 0)
	u16(&b.buf, 0)
	u32(&b.buf, 1)

	classDefsOff := b.off()
	u32(&b.buf, 0)
	u32(&b.buf, 0x0009)
	u32(&b.buf, 0xffffffff)
	u32(&b.buf, 0)
	u32(&b.buf, 0xffffffff)
	u32(&b.buf, 0)
	u32(&b.buf, classDataOff)
	u32(&b.buf, 0)

	out := b.buf.Bytes()
	binary.LittleEndian.PutUint32(out[56:60], 3)
	binary.LittleEndian.PutUint32(out[60:64], stringIDsOff)
	binary.LittleEndian.PutUint32(out[64:68], 2)
	binary.LittleEndian.PutUint32(out[68:72], typeIDsOff)
	binary.LittleEndian.PutUint32(out[72:76], 1)
	binary.LittleEndian.PutUint32(out[76:80], protoIDsOff)
	binary.LittleEndian.PutUint32(out[80:84], 0)
	binary.LittleEndian.PutUint32(out[84:88], 0)
	binary.LittleEndian.PutUint32(out[88:92], 1)
	binary.LittleEndian.PutUint32(out[92:96], methodIDsOff)
	binary.LittleEndian.PutUint32(out[96:100], 1)
	binary.LittleEndian.PutUint32(out[100:104], classDefsOff)
	return out
}

func loadTargetProgram(t *testing.T) *dex.Program {
	t.Helper()
	p, err := dex.LoadDex("classes.dex", buildTargetDex(t))
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}
	return p
}

func TestFindTargetLocatesDeclaredMethod(t *testing.T) {
	p := loadTargetProgram(t)
	m, err := FindTarget(p, "Lcom/example/Target;->target")
	if err != nil {
		t.Fatalf("FindTarget: %v", err)
	}
	if m.Name != "target" || m.Class != "Lcom/example/Target;" {
		t.Errorf("FindTarget returned %s->%s, want Target->target", m.Class, m.Name)
	}
}

func TestFindTargetRejectsMalformedSpec(t *testing.T) {
	p := loadTargetProgram(t)
	if _, err := FindTarget(p, "not-a-spec"); err == nil {
		t.Error("expected an error for a malformed target spec")
	}
}

func TestFindTargetRejectsUnknownClass(t *testing.T) {
	p := loadTargetProgram(t)
	if _, err := FindTarget(p, "Lcom/example/Missing;->foo"); err == nil {
		t.Error("expected an error for a class absent from the archive")
	}
}

func TestFindTargetRejectsUnknownMethod(t *testing.T) {
	p := loadTargetProgram(t)
	if _, err := FindTarget(p, "Lcom/example/Target;->missing"); err == nil {
		t.Error("expected an error for a method absent from the class")
	}
}

func TestRunWithNoCallersYieldsEmptyResult(t *testing.T) {
	p := loadTargetProgram(t)
	target, err := FindTarget(p, "Lcom/example/Target;->target")
	if err != nil {
		t.Fatalf("FindTarget: %v", err)
	}
	ctx := New(p, mock.DefaultConfig(), nil, 0, 0)
	result := ctx.Run(target)
	if len(result.CallSites) != 0 {
		t.Errorf("expected no call sites for a target nothing calls, got %d", len(result.CallSites))
	}
	if result.RunID == "" {
		t.Error("expected a non-empty run ID")
	}
}
