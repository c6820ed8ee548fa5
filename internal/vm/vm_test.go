package vm

import (
	"testing"

	"github.com/fatalsec/dalivm/internal/statics"
	"github.com/fatalsec/dalivm/internal/value"
)

type stubResolver struct {
	strings map[uint32]string
	types   map[uint32]string
	fields  map[uint32]FieldRef
	methods map[uint32]MethodRef
}

func (r *stubResolver) String(idx uint32) string { return r.strings[idx] }
func (r *stubResolver) Type(idx uint32) string   { return r.types[idx] }
func (r *stubResolver) Field(idx uint32) FieldRef { return r.fields[idx] }
func (r *stubResolver) Method(idx uint32) MethodRef { return r.methods[idx] }

type stubInvoker struct {
	calls []MethodRef
	ret   value.Value
	ok    bool
}

func (s *stubInvoker) Invoke(kind InvokeKind, ref MethodRef, args []value.Value) (value.Value, bool) {
	s.calls = append(s.calls, ref)
	return s.ret, s.ok
}

func code(units ...uint16) []byte {
	b := make([]byte, len(units)*2)
	for i, u := range units {
		b[i*2] = byte(u)
		b[i*2+1] = byte(u >> 8)
	}
	return b
}

func newTestOpts() Options {
	return Options{
		StepLimit: 1000,
		Resolver:  &stubResolver{strings: map[uint32]string{}, types: map[uint32]string{}, fields: map[uint32]FieldRef{}, methods: map[uint32]MethodRef{}},
		Statics:   statics.New(),
	}
}

// TestConstAndReturn exercises const/4 (0x12) followed by return (0x0f):
// "const/4 v0, #1; return v0".
func TestConstAndReturn(t *testing.T) {
	// const/4 vA=0, litB=1 -> opcode byte 0x12, high nibble B=1, next nibble A=0
	// encoding: op=0x12, upper byte = (B<<4)|A = (1<<4)|0 = 0x10
	instrs := code(0x1012, 0x000f)
	m := New(instrs, 2, newTestOpts())
	v, has, err := m.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !has {
		t.Fatalf("expected a return value")
	}
	if v.Int32() != 1 {
		t.Errorf("returned %v, want 1", v)
	}
}

func TestAddIntLit8(t *testing.T) {
	// const/4 v0, #5
	// add-int/lit8 v1, v0, #3   (opcode 0xd8, format 22b: AA|op CC|BB)
	// return v1
	b := []byte{
		0x12, 0x50, // const/4 v0, #5  (op=0x12, (B=5<<4)|A=0 = 0x50)
		0xd8, 0x01, // add-int/lit8 op, AA=1 (dest v1, src v0 packed below)
		0x00, 0x03, // CC|BB = src reg0 (BB=0x00), literal CC=3
		0x0f, 0x01, // return v1
	}
	m := New(b, 2, newTestOpts())
	v, has, err := m.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !has {
		t.Fatalf("expected a return value")
	}
	if v.Int32() != 8 {
		t.Errorf("returned %v, want 8", v)
	}
}

func TestInvokeDispatchesThroughInvoker(t *testing.T) {
	inv := &stubInvoker{ret: value.Int(42), ok: true}
	opts := newTestOpts()
	opts.Invoker = inv
	opts.Resolver.(*stubResolver).methods[0] = MethodRef{Class: "Lc;", Name: "m", ReturnDesc: "I"}

	b := []byte{
		0x71, 0x00, // invoke-static {}, method@0 (argCount=0, G=0)
		0x00, 0x00, // method@0
		0x00, 0x00, // unused register-packing word (no args)
		0x0c, 0x00, // move-result-object v0
		0x0f, 0x00, // return v0
	}
	m := New(b, 2, opts)
	v, has, err := m.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !has {
		t.Fatalf("expected return value")
	}
	if v.Int32() != 42 {
		t.Errorf("returned %v, want 42", v)
	}
	if len(inv.calls) != 1 || inv.calls[0].Name != "m" {
		t.Errorf("expected invoker called once with method m, got %v", inv.calls)
	}
}

func TestStepLimitExceeded(t *testing.T) {
	// goto 0 — infinite loop
	b := []byte{0x28, 0x00}
	opts := newTestOpts()
	opts.StepLimit = 10
	m := New(b, 1, opts)
	_, _, err := m.Run()
	if err == nil {
		t.Fatalf("expected step-limit error")
	}
	if _, ok := err.(*ErrStepLimitExceeded); !ok {
		t.Errorf("error = %T, want *ErrStepLimitExceeded", err)
	}
}
