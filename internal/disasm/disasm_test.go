package disasm_test

import (
	"strings"
	"testing"

	"github.com/xyproto/xdis/internal/disasm"
	"github.com/xyproto/xdis/internal/elf"
	"github.com/xyproto/xdis/internal/logsink"
)

// TestRunLabelsFunctionAndDisassembles builds a minimal in-memory ELF with
// one executable section (push rbp; mov rbp, rsp; pop rbp; ret) and one
// FUNC/GLOBAL symbol pointing at its start, then checks the output matches
// spec.md §4.7's line format: a "%016x <name>:" label followed by
// "%8x:\t%02x ...\t<intel-syntax>" lines.
func TestRunLabelsFunctionAndDisassembles(t *testing.T) {
	code := []byte{
		0x55,             // push rbp
		0x48, 0x89, 0xE5, // mov rbp, rsp
		0x5D, // pop rbp
		0xC3, // ret
	}
	const base = 0x401000

	e := &elf.ELF{
		Sections: []elf.Section{
			{
				Header: elf.SectionHeader{Type: elf.SHTProgBits, Flags: elf.SHFExecInstr, Addr: base, Size: uint64(len(code))},
				Name:   ".text",
				Raw:    code,
			},
			{
				Header:  elf.SectionHeader{Type: elf.SHTSymTab},
				Name:    ".symtab",
				Payload: elf.SymbolTable{Symbols: []elf.SymbolEntry{{Name: "main", Value: base, SectionIndex: 0, Binding: elf.STBGlobal, Type: elf.STTFunc}}},
			},
		},
	}

	lines, err := disasm.Run(e, 0, logsink.Discard())
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "0000000000401000 <main>:") {
		t.Errorf("output missing function label, got:\n%s", joined)
	}
	if !strings.Contains(joined, "push rbp") {
		t.Errorf("output missing push rbp, got:\n%s", joined)
	}
	if !strings.Contains(joined, "ret") {
		t.Errorf("output missing ret, got:\n%s", joined)
	}
	// The label is the first line; no leading blank line at section start.
	if lines[0] == "" {
		t.Error("unexpected leading blank line before first label")
	}
}

func TestRunRejectsNonExecutableSection(t *testing.T) {
	e := &elf.ELF{
		Sections: []elf.Section{
			{Header: elf.SectionHeader{Type: elf.SHTProgBits}, Name: ".data", Raw: []byte{0}},
		},
	}
	if _, err := disasm.Run(e, 0, logsink.Discard()); err == nil {
		t.Fatal("Run() err = nil, want InvalidArgument for non-executable section")
	}
}

func TestRunRejectsOutOfRangeSection(t *testing.T) {
	e := &elf.ELF{}
	if _, err := disasm.Run(e, 0, logsink.Discard()); err == nil {
		t.Fatal("Run() err = nil, want InvalidArgument for out-of-range section index")
	}
}

// TestRunContinuationLine exercises spec.md §4.7 step 2's continuation-line
// rule: instructions longer than 7 bytes spill their remaining bytes onto a
// line with no mnemonic. The spec.md §8 scenario 2 instruction is 11 bytes.
func TestRunContinuationLine(t *testing.T) {
	code := []byte{0x66, 0x41, 0x81, 0xBC, 0x89, 0x78, 0x56, 0x34, 0x12, 0xEF, 0xBE}
	e := &elf.ELF{
		Sections: []elf.Section{
			{
				Header: elf.SectionHeader{Type: elf.SHTProgBits, Flags: elf.SHFExecInstr, Addr: 0x1000, Size: uint64(len(code))},
				Name:   ".text",
				Raw:    code,
			},
		},
	}
	lines, err := disasm.Run(e, 0, logsink.Discard())
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2 (one instruction line + one continuation)", len(lines))
	}
	if strings.Contains(lines[1], "cmp") {
		t.Errorf("continuation line %q should carry no mnemonic", lines[1])
	}
}
