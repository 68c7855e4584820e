package encoder

import (
	"bytes"
	"testing"

	"github.com/xyproto/xdis/internal/x86"
	"github.com/xyproto/xdis/internal/x86/decoder"
)

func TestEncodeGoldenCmpWordPtr(t *testing.T) {
	// cmp WORD PTR [r9+rcx*4+0x12345678],0xbeef
	mem, err := x86.NewIndirectOperandBuilder().
		Base(x86.GPR64(9)).
		Index(x86.GPR64(1)).
		Scale(4).
		Displacement(0x12345678, false).
		PointerSize(x86.WordPtr).
		Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	instr := x86.Instruction{
		Prefixes: x86.Prefixes{Segment: x86.Null, OperandSizeOverride: true},
		Opcode:   x86.Opcode{Mnemonic: "cmp", Arity: 2},
		Op1:      mem,
		Op2:      x86.NewImmediate16(-16657),
	}
	got, err := Encode(instr)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	want := []byte{0x66, 0x41, 0x81, 0xBC, 0x89, 0x78, 0x56, 0x34, 0x12, 0xEF, 0xBE}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}

func TestEncodeMovRegToReg(t *testing.T) {
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2},
		Op1:    x86.GPR64(0),
		Op2:    x86.GPR64(3),
	}
	got, err := Encode(instr)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	want := []byte{0x48, 0x89, 0xD8}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x66, 0x41, 0x81, 0xBC, 0x89, 0x78, 0x56, 0x34, 0x12, 0xEF, 0xBE},
		{0x48, 0x89, 0xD8},
		{0x48, 0xB8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00},
		{0x41, 0x57},
		{0x75, 0xFE},
		{0xC3},
		{0x48, 0x83, 0xC0, 0x01}, // add rax,1
		{0x48, 0x01, 0xD8},       // add rax,rbx
		{0x48, 0x0F, 0xAF, 0xC3}, // imul rax,rbx
	}
	for _, code := range cases {
		instr, err := decoder.Decode(code)
		if err != nil {
			t.Fatalf("Decode(% x) error: %v", code, err)
		}
		got, err := Encode(instr)
		if err != nil {
			t.Fatalf("Encode(Decode(% x)) error: %v", code, err)
		}
		if !bytes.Equal(got, code) {
			t.Fatalf("Encode(Decode(% x)) = % x, want % x", code, got, code)
		}
	}
}

func TestEncodeGroup1PrefersImm8(t *testing.T) {
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "add", Arity: 2},
		Op1:    x86.GPR64(0),
		Op2:    x86.NewImmediate32(5),
	}
	got, err := Encode(instr)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	want := []byte{0x48, 0x83, 0xC0, 0x05}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x (expected compact imm8 form)", got, want)
	}
}

func TestEncodeRejectsInvalidInstruction(t *testing.T) {
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2},
		Op1:    x86.GPR64(0),
		// Op2 missing: arity mismatch.
	}
	if _, err := Encode(instr); err == nil {
		t.Fatalf("Encode() of an arity-mismatched instruction should fail")
	}
}

func TestEncodeRejectsRspAsIndex(t *testing.T) {
	_, err := x86.NewIndirectOperandBuilder().
		Base(x86.GPR64(0)).
		Index(x86.GPR64(4)).
		Scale(2).
		Finalize()
	if err == nil {
		t.Fatalf("Finalize() should reject rsp as a SIB index")
	}
}
