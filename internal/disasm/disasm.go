// Package disasm implements the symbol-aware disassembly loop (spec.md
// §4.7): walk an executable section's bytes through internal/x86/decoder,
// render each instruction through internal/x86/intelsyntax, and label
// function entry points found in the ELF's symbol tables.
package disasm

import (
	"fmt"
	"strings"

	"github.com/xyproto/xdis/internal/elf"
	"github.com/xyproto/xdis/internal/logsink"
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86/decoder"
	"github.com/xyproto/xdis/internal/x86/intelsyntax"
)

// bytesPerLine is the maximum number of instruction bytes shown on one
// output line before a continuation line is emitted (spec.md §4.7 step 2).
const bytesPerLine = 7

// Run disassembles the section at sectionIndex and returns the formatted
// output lines (spec.md §4.7). sink receives advisory trace messages; it
// may be logsink.Discard() when the caller doesn't want them.
func Run(e *elf.ELF, sectionIndex int, sink logsink.Sink) ([]string, error) {
	section, ok := e.SectionByIndex(sectionIndex)
	if !ok {
		return nil, objerr.New(objerr.InvalidArgument, "section index %d out of range", sectionIndex)
	}
	if !section.IsExecutable() {
		return nil, objerr.New(objerr.InvalidArgument, "section %q is not executable (no SHF_EXECINSTR)", section.Name)
	}

	symbols := functionSymbolsFor(e, sectionIndex)
	base := section.Header.Addr
	code := section.Raw

	var lines []string
	offset := 0
	for offset < len(code) {
		addr := base + uint64(offset)
		if name, ok := symbols[addr]; ok {
			if offset != 0 {
				lines = append(lines, "")
			}
			lines = append(lines, fmt.Sprintf("%016x <%s>:", addr, name))
		}

		instr, err := decoder.Decode(code[offset:])
		if err != nil {
			sink.Warnf("decode failed at offset %#x (addr %#x): %v", offset, addr, err)
			return nil, err
		}
		sink.Tracef("decoded %s at %#x (%d bytes)", instr.Opcode.Mnemonic, addr, instr.Length)

		raw := code[offset : offset+instr.Length]
		lines = append(lines, formatInstructionLines(addr, raw, intelsyntax.Format(instr))...)
		offset += instr.Length
	}
	return lines, nil
}

// formatInstructionLines renders one decoded instruction's address/bytes/
// text line, followed by continuation lines (no mnemonic) for any bytes
// past the first bytesPerLine (spec.md §4.7 step 2).
func formatInstructionLines(addr uint64, raw []byte, text string) []string {
	first := raw
	if len(first) > bytesPerLine {
		first = first[:bytesPerLine]
	}
	lines := []string{fmt.Sprintf("%8x:\t%s\t%s", addr, hexJoin(first), text)}

	remaining := raw[len(first):]
	consumed := len(first)
	for len(remaining) > 0 {
		chunk := remaining
		if len(chunk) > bytesPerLine {
			chunk = chunk[:bytesPerLine]
		}
		lines = append(lines, fmt.Sprintf("%8x:\t%s", addr+uint64(consumed), hexJoin(chunk)))
		remaining = remaining[len(chunk):]
		consumed += len(chunk)
	}
	return lines
}

func hexJoin(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, " ")
}

// functionSymbolsFor builds the {address -> name} map restricted to FUNC-
// type symbols, bound GLOBAL or marked HIDDEN, that refer to sectionIndex
// (spec.md §4.7 step 1). It scans every symbol table in the file (.symtab
// and .dynsym both contribute on a real binary).
func functionSymbolsFor(e *elf.ELF, sectionIndex int) map[uint64]string {
	out := make(map[uint64]string)
	for _, s := range e.Sections {
		st, ok := s.Payload.(elf.SymbolTable)
		if !ok {
			continue
		}
		for _, sym := range st.Symbols {
			if sym.Type != elf.STTFunc {
				continue
			}
			if sym.Binding != elf.STBGlobal && sym.Visibility != elf.STVHidden {
				continue
			}
			if int(sym.SectionIndex) != sectionIndex {
				continue
			}
			if sym.Name == "" {
				continue
			}
			out[sym.Value] = sym.Name
		}
	}
	return out
}
