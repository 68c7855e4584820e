package decoder

import (
	"testing"

	"github.com/xyproto/xdis/internal/x86"
)

func TestDecodeGoldenCmpWordPtr(t *testing.T) {
	// 66 41 81 BC 89 78 56 34 12 EF BE
	// cmp WORD PTR [r9+rcx*4+0x12345678],0xbeef
	code := []byte{0x66, 0x41, 0x81, 0xBC, 0x89, 0x78, 0x56, 0x34, 0x12, 0xEF, 0xBE}
	instr, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Length != len(code) {
		t.Fatalf("Length = %d, want %d", instr.Length, len(code))
	}
	if instr.Opcode.Mnemonic != "cmp" {
		t.Fatalf("Mnemonic = %q, want cmp", instr.Opcode.Mnemonic)
	}
	mem, ok := instr.Op1.(x86.IndirectOperand)
	if !ok {
		t.Fatalf("Op1 = %#v, want IndirectOperand", instr.Op1)
	}
	if mem.Base.Name() != "r9" || mem.Index.Name() != "rcx" || mem.Scale != 4 {
		t.Fatalf("mem = %#v, want base=r9 index=rcx scale=4", mem)
	}
	if !mem.HasDisplacement || mem.Displacement != 0x12345678 {
		t.Fatalf("displacement = %#x, want 0x12345678", mem.Displacement)
	}
	if mem.PointerSize != x86.WordPtr {
		t.Fatalf("PointerSize = %v, want WordPtr", mem.PointerSize)
	}
	imm, ok := instr.Op2.(x86.Immediate)
	if !ok || imm.AsUnsigned() != 0xbeef {
		t.Fatalf("Op2 = %#v, want immediate 0xbeef", instr.Op2)
	}
}

func TestDecodeMovRegToReg(t *testing.T) {
	// 48 89 D8  mov rax,rbx
	instr, err := Decode([]byte{0x48, 0x89, 0xD8})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "mov" {
		t.Fatalf("Mnemonic = %q, want mov", instr.Opcode.Mnemonic)
	}
	dst, ok := instr.Op1.(x86.Register)
	if !ok || dst.Name() != "rax" {
		t.Fatalf("Op1 = %#v, want rax", instr.Op1)
	}
	src, ok := instr.Op2.(x86.Register)
	if !ok || src.Name() != "rbx" {
		t.Fatalf("Op2 = %#v, want rbx", instr.Op2)
	}
	if instr.Length != 3 {
		t.Fatalf("Length = %d, want 3", instr.Length)
	}
}

func TestDecodeMovImmediate64(t *testing.T) {
	// 48 B8 ff ff ff ff ff ff ff ff  mov rax,-1
	code := []byte{0x48, 0xB8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	instr, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	imm, ok := instr.Op2.(x86.Immediate)
	if !ok || imm.Value != -1 {
		t.Fatalf("Op2 = %#v, want immediate -1", instr.Op2)
	}
	if instr.Length != len(code) {
		t.Fatalf("Length = %d, want %d", instr.Length, len(code))
	}
}

func TestDecodeLeaRipRelative(t *testing.T) {
	// 48 8D 05 10 00 00 00  lea rax,[rip+0x10]
	code := []byte{0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00}
	instr, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "lea" {
		t.Fatalf("Mnemonic = %q, want lea", instr.Opcode.Mnemonic)
	}
	mem, ok := instr.Op2.(x86.IndirectOperand)
	if !ok || mem.Base.Kind != x86.RIP {
		t.Fatalf("Op2 = %#v, want rip-relative memory", instr.Op2)
	}
	if mem.Displacement != 0x10 {
		t.Fatalf("Displacement = %#x, want 0x10", mem.Displacement)
	}
}

func TestDecodePushPopGPR(t *testing.T) {
	// 41 57  push r15
	instr, err := Decode([]byte{0x41, 0x57})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "push" {
		t.Fatalf("Mnemonic = %q, want push", instr.Opcode.Mnemonic)
	}
	reg, ok := instr.Op1.(x86.Register)
	if !ok || reg.Name() != "r15" {
		t.Fatalf("Op1 = %#v, want r15", instr.Op1)
	}
	if instr.Length != 2 {
		t.Fatalf("Length = %d, want 2", instr.Length)
	}
}

func TestDecodeJccRel8(t *testing.T) {
	// 75 fe  jne -2
	instr, err := Decode([]byte{0x75, 0xFE})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "jne" {
		t.Fatalf("Mnemonic = %q, want jne", instr.Opcode.Mnemonic)
	}
	rel, ok := instr.Op1.(x86.RelativeOffset)
	if !ok || rel.Value != -2 || rel.Width != x86.Imm8 {
		t.Fatalf("Op1 = %#v, want rel8 -2", instr.Op1)
	}
}

func TestDecodeRetAndNop(t *testing.T) {
	instr, err := Decode([]byte{0xC3})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "ret" || instr.Opcode.Arity != 0 {
		t.Fatalf("unexpected ret decode: %#v", instr.Opcode)
	}

	instr, err = Decode([]byte{0x90})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if instr.Opcode.Mnemonic != "nop" {
		t.Fatalf("Mnemonic = %q, want nop", instr.Opcode.Mnemonic)
	}
}

func TestDecodeTruncatedInstructionErrors(t *testing.T) {
	if _, err := Decode([]byte{0x48, 0x89}); err == nil {
		t.Fatalf("Decode() of truncated ModR/M should fail")
	}
	if _, err := Decode(nil); err == nil {
		t.Fatalf("Decode() of empty input should fail")
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	if _, err := Decode([]byte{0x0F, 0x0B, 0x0B}); err == nil {
		t.Fatalf("Decode() of an unmapped two-byte opcode should fail")
	}
}
