package x86

import "testing"

// TestGPR64Index is spec.md §8 scenario 4: Register64.fromIndex(0..15)
// yields rax, rcx, rdx, rbx, rsp, rbp, rsi, rdi, r8..r15 in that order.
func TestGPR64Index(t *testing.T) {
	want := []string{
		"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	}
	for i, name := range want {
		got := GPR64(uint8(i)).Name()
		if got != name {
			t.Errorf("GPR64(%d).Name() = %q, want %q", i, got, name)
		}
	}
}

func TestGPR8Naming(t *testing.T) {
	tests := []struct {
		idx    uint8
		hasRex bool
		want   string
	}{
		{0, false, "al"},
		{4, false, "ah"},
		{4, true, "spl"},
		{7, true, "dil"},
		{8, false, "r8b"}, // index >= 8 always takes the REX-extended table
	}
	for _, tt := range tests {
		got := GPR8(tt.idx, tt.hasRex).Name()
		if got != tt.want {
			t.Errorf("GPR8(%d, %v).Name() = %q, want %q", tt.idx, tt.hasRex, got, tt.want)
		}
	}
}

func TestRegisterWidth(t *testing.T) {
	tests := []struct {
		reg  Register
		want int
	}{
		{GPR64(0), 64},
		{GPR32(0), 32},
		{GPR16Reg(0), 16},
		{GPR8(0, false), 8},
		{XMMReg(0), 128},
		{YMMReg(0), 256},
		{ZMMReg(0), 512},
		{Null, 0},
	}
	for _, tt := range tests {
		if got := tt.reg.Width(); got != tt.want {
			t.Errorf("%+v.Width() = %d, want %d", tt.reg, got, tt.want)
		}
	}
}

func TestNullRegisterSentinel(t *testing.T) {
	if !Null.IsNull() {
		t.Fatal("Null.IsNull() = false, want true")
	}
	if GPR64(0).IsNull() {
		t.Fatal("GPR64(0).IsNull() = true, want false")
	}
	if Null.Name() != "" {
		t.Errorf("Null.Name() = %q, want empty string", Null.Name())
	}
}

func TestSegmentRegisterNames(t *testing.T) {
	want := []string{"es", "cs", "ss", "ds", "fs", "gs"}
	for i, name := range want {
		if got := SegmentReg(uint8(i)).Name(); got != name {
			t.Errorf("SegmentReg(%d).Name() = %q, want %q", i, got, name)
		}
	}
}
