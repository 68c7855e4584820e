package x86

import "testing"

func TestImmediateFitsInt8(t *testing.T) {
	tests := []struct {
		imm  Immediate
		want bool
	}{
		{NewImmediate32(127), true},
		{NewImmediate32(-128), true},
		{NewImmediate32(128), false},
		{NewImmediate32(-129), false},
	}
	for _, tt := range tests {
		if got := tt.imm.FitsInt8(); got != tt.want {
			t.Errorf("Immediate{%d}.FitsInt8() = %v, want %v", tt.imm.Value, got, tt.want)
		}
	}
}

// TestImmediateAsUnsigned is the immediate half of spec.md §8 scenario 2:
// cmp WORD PTR [...],0xbeef carries a 16-bit immediate whose unsigned
// rendering the printer needs verbatim.
func TestImmediateAsUnsigned(t *testing.T) {
	imm := NewImmediate16(-16657) // 0xBEEF as a signed 16-bit value
	if got := imm.AsUnsigned(); got != 0xBEEF {
		t.Errorf("AsUnsigned() = %#x, want 0xbeef", got)
	}
}

func TestImmediateAsUnsignedWidths(t *testing.T) {
	if got := NewImmediate8(-1).AsUnsigned(); got != 0xFF {
		t.Errorf("NewImmediate8(-1).AsUnsigned() = %#x, want 0xff", got)
	}
	if got := NewImmediate32(-1).AsUnsigned(); got != 0xFFFFFFFF {
		t.Errorf("NewImmediate32(-1).AsUnsigned() = %#x, want 0xffffffff", got)
	}
}
