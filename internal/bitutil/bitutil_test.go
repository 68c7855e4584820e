package bitutil

import "testing"

func TestZeroExtend(t *testing.T) {
	if got := ZeroExtendByte(0xFF); got != 0xFF {
		t.Errorf("ZeroExtendByte(0xFF) = %#x, want 0xFF", got)
	}
	if got := ZeroExtendWord(0xFFFF); got != 0xFFFF {
		t.Errorf("ZeroExtendWord(0xFFFF) = %#x, want 0xFFFF", got)
	}
	if got := ZeroExtendDword(0xFFFFFFFF); got != 0xFFFFFFFF {
		t.Errorf("ZeroExtendDword(0xFFFFFFFF) = %#x, want 0xFFFFFFFF", got)
	}
}

func TestModRMExtraction(t *testing.T) {
	// 0xC3 = 1100 0011: mod=11, reg=000, rm=011
	b := byte(0xC3)
	if mod := Field(b, 7, 6); mod != 0b11 {
		t.Errorf("mod = %02b, want 11", mod)
	}
	if reg := Field(b, 5, 3); reg != 0b000 {
		t.Errorf("reg = %03b, want 000", reg)
	}
	if rm := Field(b, 2, 0); rm != 0b011 {
		t.Errorf("rm = %03b, want 011", rm)
	}
}

func TestParseHexByte(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{"00", 0x00, false},
		{"ff", 0xFF, false},
		{"FF", 0xFF, false},
		{"a1", 0xA1, false},
		{"a", 0, true},
		{"abc", 0, true},
		{"zz", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHexByte(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexByte(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseHexByte(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestToBinaryString(t *testing.T) {
	tests := []struct {
		in   byte
		want string
	}{
		{0x00, "00000000"},
		{0xFF, "11111111"},
		{0xC3, "11000011"},
		{0x01, "00000001"},
		{0x80, "10000000"},
	}
	for _, tt := range tests {
		if got := ToBinaryString(tt.in); got != tt.want {
			t.Errorf("ToBinaryString(%#x) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []uint8{1, 2, 4, 8} {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = false, want true", n)
		}
	}
	for _, n := range []uint8{0, 3, 5, 6, 7, 9} {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = true, want false", n)
		}
	}
}

func TestShrShl(t *testing.T) {
	if got := Shr(0x80, 7); got != 1 {
		t.Errorf("Shr(0x80,7) = %d, want 1", got)
	}
	if got := Shl(0x01, 7); got != 0x80 {
		t.Errorf("Shl(0x01,7) = %#x, want 0x80", got)
	}
}
