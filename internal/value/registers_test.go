package value

import "testing"

func TestRegistersAutoExtend(t *testing.T) {
	r := NewRegisters(2)
	r.Set(5, Int(9))
	if r.Size() != 6 {
		t.Fatalf("Size() = %d, want 6 after write past declared size", r.Size())
	}
	if got := r.GetInt(5); got != 9 {
		t.Errorf("GetInt(5) = %d, want 9", got)
	}
	if got := r.Get(3); !got.IsNull() {
		t.Errorf("Get(3) = %v, want null (gap fill)", got)
	}
}

func TestRegistersWidePair(t *testing.T) {
	r := NewRegisters(4)
	r.SetWide(0, Long(123456789012))
	if got := r.Get(0).Int64(); got != 123456789012 {
		t.Errorf("Get(0).Int64() = %d", got)
	}
	if r.Get(1).Kind != KindWideContinuation {
		t.Errorf("Get(1).Kind = %v, want KindWideContinuation", r.Get(1).Kind)
	}

	r.CopyWide(2, 0)
	if got := r.Get(2).Int64(); got != 123456789012 {
		t.Errorf("CopyWide did not copy low half: got %d", got)
	}
	if r.Get(3).Kind != KindWideContinuation {
		t.Errorf("CopyWide did not copy high half placeholder")
	}
}

func TestRegistersOutOfRangeReadsNull(t *testing.T) {
	r := NewRegisters(2)
	if got := r.Get(-1); !got.IsNull() {
		t.Errorf("Get(-1) = %v, want null", got)
	}
	if got := r.Get(100); !got.IsNull() {
		t.Errorf("Get(100) = %v, want null", got)
	}
}

func TestNewRegistersClampsNegativeSize(t *testing.T) {
	r := NewRegisters(-3)
	if r.Size() != 0 {
		t.Errorf("Size() = %d, want 0", r.Size())
	}
}
