package intelsyntax

import (
	"testing"

	"github.com/xyproto/xdis/internal/x86"
)

func TestFormatRegisterToRegister(t *testing.T) {
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2},
		Op1:    x86.GPR64(0),
		Op2:    x86.GPR64(3),
	}
	if got, want := Format(instr), "mov rax,rbx"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatMemoryOperandGolden(t *testing.T) {
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
		Opcode: x86.Opcode{Mnemonic: "cmp", Arity: 2},
		Op1:    mem,
		Op2:    x86.NewImmediate16(-16657), // 0xbeef as int16
	}
	want := "cmp WORD PTR [r9+rcx*4+0x12345678],0xbeef"
	if got := Format(instr); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatNegativeDisplacement(t *testing.T) {
	mem, err := x86.NewIndirectOperandBuilder().
		Base(x86.GPR64(5)).
		Displacement(-8, true).
		PointerSize(x86.QwordPtr).
		Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2},
		Op1:    x86.GPR64(0),
		Op2:    mem,
	}
	if got, want := Format(instr), "mov rax,QWORD PTR [rbp-0x8]"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatBareDisplacement(t *testing.T) {
	mem, err := x86.NewIndirectOperandBuilder().
		Displacement(0x1000, false).
		PointerSize(x86.DwordPtr).
		Finalize()
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "inc", Arity: 1},
		Op1:    mem,
	}
	if got, want := Format(instr), "inc DWORD PTR [0x1000]"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatLockPrefix(t *testing.T) {
	instr := x86.Instruction{
		Prefixes: x86.Prefixes{Lock: true, Segment: x86.Null},
		Opcode:   x86.Opcode{Mnemonic: "inc", Arity: 1},
		Op1:      x86.GPR32(0),
	}
	if got, want := Format(instr), "lock inc eax"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatRelativeOffset(t *testing.T) {
	instr := x86.Instruction{
		Opcode: x86.Opcode{Mnemonic: "jne", Arity: 1},
		Op1:    x86.RelativeOffset{Width: x86.Imm8, Value: -2},
	}
	if got, want := Format(instr), "jne -0x2"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}
