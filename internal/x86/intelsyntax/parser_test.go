package intelsyntax

import (
	"testing"

	"github.com/xyproto/xdis/internal/x86"
)

func TestParseRegisterToRegister(t *testing.T) {
	instr, err := Parse("mov rax,rbx")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	reg1, ok := instr.Op1.(x86.Register)
	if !ok || reg1.Name() != "rax" {
		t.Fatalf("Op1 = %#v, want rax", instr.Op1)
	}
	reg2, ok := instr.Op2.(x86.Register)
	if !ok || reg2.Name() != "rbx" {
		t.Fatalf("Op2 = %#v, want rbx", instr.Op2)
	}
	if instr.Opcode.Mnemonic != "mov" || instr.Opcode.Arity != 2 {
		t.Fatalf("unexpected opcode: %#v", instr.Opcode)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []string{
		"mov rax,rbx",
		"cmp WORD PTR [r9+rcx*4+0x12345678],0xbeef",
		"mov rax,QWORD PTR [rbp-0x8]",
		"inc DWORD PTR [0x1000]",
		"lock inc eax",
		"jne -0x2",
		"push r15",
		"lea rax,[rbx+rcx*2+0x10]",
	}
	for _, text := range cases {
		instr, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", text, err)
		}
		if got := Format(instr); got != text {
			t.Fatalf("Format(Parse(%q)) = %q, want %q", text, got, text)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatalf("Parse(\"\") should fail")
	}
	if _, err := Parse("mov whatever,rbx"); err == nil {
		t.Fatalf("Parse with unrecognized operand should fail")
	}
}

func TestParseSegmentOverride(t *testing.T) {
	instr, err := Parse("mov rax,QWORD PTR fs:[0x28]")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	mem, ok := instr.Op2.(x86.IndirectOperand)
	if !ok {
		t.Fatalf("Op2 = %#v, want IndirectOperand", instr.Op2)
	}
	if mem.SegmentOverride.Name() != "fs" {
		t.Fatalf("segment override = %q, want fs", mem.SegmentOverride.Name())
	}
	if got, want := Format(instr), "mov rax,QWORD PTR fs:[0x28]"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}
