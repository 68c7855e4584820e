package x86

import "testing"

func TestIndirectOperandBuilderValidScale(t *testing.T) {
	for _, scale := range []uint8{0, 1, 2, 4, 8} {
		b := NewIndirectOperandBuilder().Base(GPR64(5)).Scale(scale).PointerSize(DwordPtr)
		if _, err := b.Finalize(); err != nil {
			t.Errorf("scale %d: Finalize() err = %v, want nil", scale, err)
		}
	}
}

func TestIndirectOperandBuilderRejectsBadScale(t *testing.T) {
	for _, scale := range []uint8{3, 5, 6, 7, 9} {
		b := NewIndirectOperandBuilder().Base(GPR64(0)).Scale(scale)
		if _, err := b.Finalize(); err == nil {
			t.Errorf("scale %d: Finalize() err = nil, want InvalidArgument", scale)
		}
	}
}

func TestIndirectOperandBuilderRejectsDoubleSet(t *testing.T) {
	b := NewIndirectOperandBuilder().Base(GPR64(0)).Base(GPR64(1))
	if _, err := b.Finalize(); err == nil {
		t.Fatal("Finalize() err = nil, want error for base set twice")
	}
}

func TestIndirectOperandBuilderRejectsRSPIndex(t *testing.T) {
	b := NewIndirectOperandBuilder().Base(GPR64(0)).Index(GPR64(4)).Scale(2)
	if _, err := b.Finalize(); err == nil {
		t.Fatal("Finalize() err = nil, want error for rsp as SIB index")
	}
}

func TestIndirectOperandBuilderDisplacement(t *testing.T) {
	op, err := NewIndirectOperandBuilder().
		Base(GPR64(9)).Index(GPR64(1)).Scale(4).
		Displacement(0x12345678, false).
		PointerSize(WordPtr).
		Finalize()
	if err != nil {
		t.Fatalf("Finalize() err = %v, want nil", err)
	}
	if !op.HasDisplacement || op.Displacement != 0x12345678 {
		t.Errorf("Displacement = %#x, want 0x12345678", op.Displacement)
	}
	if op.Disp8Bit {
		t.Error("Disp8Bit = true, want false for a disp32")
	}
	if op.PointerSize != WordPtr {
		t.Errorf("PointerSize = %v, want WordPtr", op.PointerSize)
	}
}

func TestPointerSizeString(t *testing.T) {
	tests := []struct {
		size PointerSize
		want string
	}{
		{NoPointerSize, ""},
		{BytePtr, "BYTE PTR"},
		{WordPtr, "WORD PTR"},
		{DwordPtr, "DWORD PTR"},
		{QwordPtr, "QWORD PTR"},
		{XmmwordPtr, "XMMWORD PTR"},
	}
	for _, tt := range tests {
		if got := tt.size.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.size, got, tt.want)
		}
	}
}
