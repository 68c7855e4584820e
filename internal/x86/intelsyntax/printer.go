// Package intelsyntax renders internal/x86.Instruction values as Intel-
// syntax assembly text and parses that same text back (spec.md §4.6).
package intelsyntax

import (
	"fmt"
	"strings"

	"github.com/xyproto/xdis/internal/x86"
)

// Format renders instr as "[prefix ]mnemonic[ operand{,operand}]", the
// grammar named in spec.md §4.6. Register names are lowercase Intel
// mnemonics, immediates are lowercase 0x-prefixed hex, and memory operands
// carry an explicit pointer-size annotation and optional segment override.
func Format(instr x86.Instruction) string {
	var b strings.Builder
	writePrefixes(&b, instr.Prefixes)
	b.WriteString(string(instr.Opcode.Mnemonic))

	ops := instr.Operands()
	if len(ops) > 0 {
		b.WriteByte(' ')
		for i, op := range ops {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatOperand(op))
		}
	}
	return b.String()
}

func writePrefixes(b *strings.Builder, p x86.Prefixes) {
	if p.Lock {
		b.WriteString("lock ")
	}
	if p.RepNE {
		b.WriteString("repnz ")
	}
	if p.RepE {
		b.WriteString("repz ")
	}
}

func formatOperand(op x86.Operand) string {
	switch v := op.(type) {
	case x86.Register:
		return v.Name()
	case x86.Immediate:
		return formatImmediate(v)
	case x86.IndirectOperand:
		return formatMemory(v)
	case x86.RelativeOffset:
		return formatRelative(v)
	default:
		return fmt.Sprintf("?%T", op)
	}
}

func formatImmediate(imm x86.Immediate) string {
	return fmt.Sprintf("0x%x", imm.AsUnsigned())
}

func formatRelative(rel x86.RelativeOffset) string {
	if rel.Value < 0 {
		return fmt.Sprintf("-0x%x", -int64(rel.Value))
	}
	return fmt.Sprintf("0x%x", rel.Value)
}

func formatMemory(mem x86.IndirectOperand) string {
	var b strings.Builder
	if ptr := mem.PointerSize.String(); ptr != "" {
		b.WriteString(ptr)
		b.WriteByte(' ')
	}
	if !mem.SegmentOverride.IsNull() {
		b.WriteString(mem.SegmentOverride.Name())
		b.WriteByte(':')
	}
	b.WriteByte('[')

	var inner strings.Builder
	if !mem.Base.IsNull() {
		inner.WriteString(mem.Base.Name())
	}
	if !mem.Index.IsNull() {
		if inner.Len() > 0 {
			inner.WriteByte('+')
		}
		fmt.Fprintf(&inner, "%s*%d", mem.Index.Name(), mem.Scale)
	}
	if mem.HasDisplacement {
		if inner.Len() == 0 {
			fmt.Fprintf(&inner, "0x%x", uint32(mem.Displacement))
		} else if mem.Displacement < 0 {
			fmt.Fprintf(&inner, "-0x%x", -int64(mem.Displacement))
		} else {
			fmt.Fprintf(&inner, "+0x%x", mem.Displacement)
		}
	}
	b.WriteString(inner.String())
	b.WriteByte(']')
	return b.String()
}
