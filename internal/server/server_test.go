package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatalsec/dalivm/internal/config"
	"github.com/fatalsec/dalivm/internal/dex"
)

// buildMiniDex duplicates the internal/dex test fixture (unexported there)
// for one class with one static no-arg method, so handleAnalyze can be
// exercised against a real *dex.Program.
func buildMiniDex(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 0x70))

	writeStr := func(s string) uint32 {
		off := uint32(buf.Len())
		n := len([]rune(s))
		for {
			b := byte(n & 0x7f)
			n >>= 7
			if n != 0 {
				buf.WriteByte(b | 0x80)
			} else {
				buf.WriteByte(b)
				break
			}
		}
		buf.WriteString(s)
		buf.WriteByte(0)
		return off
	}
	u16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	u32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	classNameOff := writeStr("Lcom/example/Target;")
	nameOff := writeStr("target")
	intTypeOff := writeStr("I")

	codeOff := uint32(buf.Len())
	u16(1)
	u16(0)
	u16(0)
	u16(0)
	u32(0)
	u32(2)
	u16(0x5012)
	u16(0x000f)

	classDataOff := uint32(buf.Len())
	buf.WriteByte(0)
	buf.WriteByte(0)
	buf.WriteByte(1)
	buf.WriteByte(0)
	buf.WriteByte(0)
	buf.WriteByte(0x09)
	n := codeOff
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			break
		}
	}

	stringIDsOff := uint32(buf.Len())
	u32(classNameOff)
	u32(nameOff)
	u32(intTypeOff)

	typeIDsOff := uint32(buf.Len())
	u32(0)
	u32(2)

	protoIDsOff := uint32(buf.Len())
	u32(2)
	u32(1)
	u32(0)

	methodIDsOff := uint32(buf.Len())
	u16(0)
	u16(0)
	u32(1)

	classDefsOff := uint32(buf.Len())
	u32(0)
	u32(0x0009)
	u32(0xffffffff)
	u32(0)
	u32(0xffffffff)
	u32(0)
	u32(classDataOff)
	u32(0)

	out := buf.Bytes()
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

func TestHandleAnalyzeRejectsGet(t *testing.T) {
	raw := buildMiniDex(t)
	prog, err := dex.LoadDex("classes.dex", raw)
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}
	srv := New(prog, config.Default())

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	srv.handleAnalyze(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleAnalyzeRunsTarget(t *testing.T) {
	raw := buildMiniDex(t)
	prog, err := dex.LoadDex("classes.dex", raw)
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}
	srv := New(prog, config.Default())

	body, _ := json.Marshal(analyzeRequest{Target: "Lcom/example/Target;->target"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Target == "" {
		t.Error("expected a non-empty target in the response")
	}
}

func TestHandleAnalyzeUnknownTarget(t *testing.T) {
	raw := buildMiniDex(t)
	prog, err := dex.LoadDex("classes.dex", raw)
	if err != nil {
		t.Fatalf("LoadDex: %v", err)
	}
	srv := New(prog, config.Default())

	body, _ := json.Marshal(analyzeRequest{Target: "Lcom/example/Missing;->foo"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleAnalyze(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
