package dex

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// miniDexBuilder assembles a minimal, hand-laid-out classes.dex buffer for
// one class with one static method, to exercise the header, string, type,
// proto, method, class_data and code_item parsing paths without needing a
// real APK fixture on disk.
type miniDexBuilder struct {
	buf bytes.Buffer
}

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
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			break
		}
	}
}

func u16(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.LittleEndian, v) }
func u32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }

// buildMiniDex lays out a DEX file declaring:
//
//	Lcom/example/Target; -> static int target()
//
// with a two-instruction code_item body (const/4 + return), so both class
// metadata and bytecode extraction can be verified end to end.
func buildMiniDex(t *testing.T) []byte {
	t.Helper()
	var b miniDexBuilder
	b.buf.Write(make([]byte, headerSize)) // patched at the end

	classNameOff := b.writeStringData("Lcom/example/Target;")
	nameOff := b.writeStringData("target")
	intTypeOff := b.writeStringData("I")

	codeOff := b.off()
	u16(&b.buf, 2) // registers_size
	u16(&b.buf, 0) // ins_size
	u16(&b.buf, 0) // outs_size
	u16(&b.buf, 0) // tries_size
	u32(&b.buf, 0) // debug_info_off
	u32(&b.buf, 2) // insns_size (2 code units)
	u16(&b.buf, 0x0012) // const/4 v0, #0
	u16(&b.buf, 0x000f) // return v0

	classDataOff := b.off()
	putULEB128(&b.buf, 0) // static_fields_size
	putULEB128(&b.buf, 0) // instance_fields_size
	putULEB128(&b.buf, 1) // direct_methods_size
	putULEB128(&b.buf, 0) // virtual_methods_size
	putULEB128(&b.buf, 0) // method_idx_diff (absolute 0, first entry)
	putULEB128(&b.buf, 0x0009) // access_flags: ACC_PUBLIC|ACC_STATIC
	putULEB128(&b.buf, codeOff)

	stringIDsOff := b.off()
	u32(&b.buf, classNameOff)
	u32(&b.buf, nameOff)
	u32(&b.buf, intTypeOff)

	typeIDsOff := b.off()
	u32(&b.buf, 0) // type 0 -> string 0 (class descriptor)
	u32(&b.buf, 2) // type 1 -> string 2 ("I")

	protoIDsOff := b.off()
	u32(&b.buf, 2) // shorty_idx -> "I"
	u32(&b.buf, 1) // return_type_idx -> type 1 ("I")
	u32(&b.buf, 0) // parameters_off (none)

	methodIDsOff := b.off()
	u16(&b.buf, 0) // class_idx -> type 0
	u16(&b.buf, 0) // proto_idx -> proto 0
	u32(&b.buf, 1) // name_idx -> string 1 ("target")

	classDefsOff := b.off()
	u32(&b.buf, 0)          // class_idx
	u32(&b.buf, 0x0009)     // access_flags
	u32(&b.buf, 0xffffffff) // superclass_idx NO_INDEX
	u32(&b.buf, 0)          // interfaces_off
	u32(&b.buf, 0xffffffff) // source_file_idx NO_INDEX
	u32(&b.buf, 0)          // annotations_off
	u32(&b.buf, classDataOff)
	u32(&b.buf, 0) // static_values_off

	out := b.buf.Bytes()
	binary.LittleEndian.PutUint32(out[56:60], 3) // string_ids_size
	binary.LittleEndian.PutUint32(out[60:64], stringIDsOff)
	binary.LittleEndian.PutUint32(out[64:68], 2) // type_ids_size
	binary.LittleEndian.PutUint32(out[68:72], typeIDsOff)
	binary.LittleEndian.PutUint32(out[72:76], 1) // proto_ids_size
	binary.LittleEndian.PutUint32(out[76:80], protoIDsOff)
	binary.LittleEndian.PutUint32(out[80:84], 0) // field_ids_size
	binary.LittleEndian.PutUint32(out[84:88], 0)
	binary.LittleEndian.PutUint32(out[88:92], 1) // method_ids_size
	binary.LittleEndian.PutUint32(out[92:96], methodIDsOff)
	binary.LittleEndian.PutUint32(out[96:100], 1) // class_defs_size
	binary.LittleEndian.PutUint32(out[100:104], classDefsOff)
	return out
}

func TestLoadDexParsesClassAndMethod(t *testing.T) {
	raw := buildMiniDex(t)
	p, err := LoadDex("classes.dex", raw)
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}

	methods := p.MethodsOf("Lcom/example/Target;")
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
	m := methods[0]
	if m.Name != "target" {
		t.Errorf("Name = %q, want target", m.Name)
	}
	if !m.IsStatic() {
		t.Errorf("expected static method")
	}
	if m.ReturnDesc != "I" {
		t.Errorf("ReturnDesc = %q, want I", m.ReturnDesc)
	}
	if m.Signature() != "()I" {
		t.Errorf("Signature() = %q, want ()I", m.Signature())
	}

	code, regs, ok := m.Bytecode()
	if !ok {
		t.Fatalf("expected bytecode present")
	}
	if regs != 2 {
		t.Errorf("registersSize = %d, want 2", regs)
	}
	if len(code) != 4 {
		t.Fatalf("bytecode length = %d, want 4 bytes", len(code))
	}
}

func TestMethodByGlobalIndexRoundTrips(t *testing.T) {
	raw := buildMiniDex(t)
	p, err := LoadDex("classes.dex", raw)
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}
	m := p.MethodByGlobalIndex(0)
	if m == nil {
		t.Fatalf("expected a method at global index 0")
	}
	if m.FullName() != "Lcom/example/Target;->target()I" {
		t.Errorf("FullName() = %q", m.FullName())
	}
	if p.MethodByGlobalIndex(-1) != nil {
		t.Errorf("expected nil for negative index")
	}
	if p.MethodByGlobalIndex(999) != nil {
		t.Errorf("expected nil for out-of-range index")
	}
}

func TestLoadRejectsArchiveWithNoDexMembers(t *testing.T) {
	if _, err := Load([]byte("not a zip")); err == nil {
		t.Errorf("expected an error for a non-zip buffer")
	}
}

func TestDecodeMUTF8(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"embedded null", []byte{0xC0, 0x80, 'x'}, "\x00x"},
		{"three byte bmp", []byte{0xE4, 0xB8, 0xAD}, "中"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := decodeMUTF8(c.in)
			if !ok {
				t.Fatalf("decodeMUTF8 failed to decode %v", c.in)
			}
			if got != c.want {
				t.Errorf("decodeMUTF8(%v) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestDecodeMUTF8InvalidFallsBackToLatin1(t *testing.T) {
	bad := []byte{0xC0} // truncated two-byte sequence
	if _, ok := decodeMUTF8(bad); ok {
		t.Fatalf("expected decode failure on truncated sequence")
	}
	got := latin1Fallback(bad)
	if got != "À" {
		t.Errorf("latin1Fallback(%v) = %q", bad, got)
	}
}

func TestULEB128RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 1 << 20, 0xffffffff} {
		var buf bytes.Buffer
		putULEB128(&buf, v)
		r := newULEB128Reader(buf.Bytes(), 0)
		got := r.next()
		if got != v {
			t.Errorf("uleb128 round trip for %d got %d", v, got)
		}
	}
}
