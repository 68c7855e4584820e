package intelsyntax

import (
	"strconv"
	"strings"

	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// Parse tokenizes and recognizes the grammar Format produces (spec.md
// §4.6): an optional prefix keyword, a mnemonic, and a comma-separated
// operand list of registers, memory operands, or hex immediates. It
// accepts the same whitespace-insensitive forms Format emits.
func Parse(s string) (x86.Instruction, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return x86.Instruction{}, objerr.New(objerr.ParseError, "empty instruction text")
	}

	var prefixes x86.Prefixes
	prefixes.Segment = x86.Null
	idx := 0
	for idx < len(fields)-1 {
		switch fields[idx] {
		case "lock":
			prefixes.Lock = true
		case "repnz":
			prefixes.RepNE = true
		case "repz":
			prefixes.RepE = true
		default:
			goto mnemonic
		}
		idx++
	}
mnemonic:
	if idx >= len(fields) {
		return x86.Instruction{}, objerr.New(objerr.ParseError, "missing mnemonic in %q", s)
	}
	rest := strings.Join(fields[idx:], " ")
	mnemonicStr, operandText, hasOperands := strings.Cut(rest, " ")
	if !hasOperands {
		mnemonicStr = rest
		operandText = ""
	}

	instr := x86.Instruction{Prefixes: prefixes, Opcode: x86.Opcode{Mnemonic: x86.Mnemonic(mnemonicStr)}}
	if operandText == "" {
		instr.Opcode.Arity = 0
		return instr, nil
	}

	operandStrs, err := splitOperands(operandText)
	if err != nil {
		return x86.Instruction{}, err
	}
	ops := make([]x86.Operand, 0, len(operandStrs))
	for _, os := range operandStrs {
		op, err := parseOperand(strings.TrimSpace(os))
		if err != nil {
			return x86.Instruction{}, err
		}
		// A branch target is a relative offset, which Format prints signed.
		if imm, ok := op.(x86.Immediate); ok && (mnemonicStr == "call" || strings.HasPrefix(mnemonicStr, "j")) {
			width := x86.Imm32
			if imm.FitsInt8() {
				width = x86.Imm8
			}
			op = x86.RelativeOffset{Width: width, Value: int32(imm.Value)}
		}
		ops = append(ops, op)
	}
	instr.Opcode.Arity = len(ops)
	slots := []*x86.Operand{&instr.Op1, &instr.Op2, &instr.Op3, &instr.Op4}
	if len(ops) > len(slots) {
		return x86.Instruction{}, objerr.New(objerr.ParseError, "too many operands in %q", s)
	}
	for i, op := range ops {
		*slots[i] = op
	}
	return instr, nil
}

// splitOperands splits a comma-separated operand list, respecting commas
// that can never appear inside a single operand (none do, in this
// grammar) — kept as its own function so the memory-operand grammar could
// later grow a comma-bearing form without breaking callers.
func splitOperands(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, objerr.New(objerr.ParseError, "empty operand in %q", s)
		}
	}
	return parts, nil
}

func parseOperand(s string) (x86.Operand, error) {
	if reg, ok := registerByName[s]; ok {
		return reg, nil
	}
	if strings.Contains(s, "[") {
		return parseMemoryOperand(s)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "-0x") {
		return parseImmediate(s)
	}
	return nil, objerr.New(objerr.ParseError, "unrecognized operand %q", s)
}

func parseImmediate(s string) (x86.Immediate, error) {
	neg := strings.HasPrefix(s, "-")
	hexPart := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "0x")
	v, err := strconv.ParseUint(hexPart, 16, 64)
	if err != nil {
		return x86.Immediate{}, objerr.New(objerr.ParseError, "malformed hex immediate %q: %v", s, err)
	}
	signed := int64(v)
	if neg {
		signed = -signed
	}
	switch {
	case signed >= -128 && signed <= 127:
		return x86.NewImmediate8(int8(signed)), nil
	case signed >= -32768 && signed <= 32767:
		return x86.NewImmediate16(int16(signed)), nil
	case signed >= -2147483648 && signed <= 2147483647:
		return x86.NewImmediate32(int32(signed)), nil
	default:
		return x86.NewImmediate64(signed), nil
	}
}

var pointerSizeByWord = map[string]x86.PointerSize{
	"BYTE":    x86.BytePtr,
	"WORD":    x86.WordPtr,
	"DWORD":   x86.DwordPtr,
	"QWORD":   x86.QwordPtr,
	"TBYTE":   x86.TbytePtr,
	"XMMWORD": x86.XmmwordPtr,
	"YMMWORD": x86.YmmwordPtr,
	"ZMMWORD": x86.ZmmwordPtr,
}

// parseMemoryOperand recognizes "PTRSIZE PTR [seg:][base][+index*scale][+-disp]".
func parseMemoryOperand(s string) (x86.IndirectOperand, error) {
	b := x86.NewIndirectOperandBuilder()

	bracketStart := strings.IndexByte(s, '[')
	bracketEnd := strings.LastIndexByte(s, ']')
	if bracketStart < 0 || bracketEnd < bracketStart {
		return x86.IndirectOperand{}, objerr.New(objerr.ParseError, "malformed memory operand %q", s)
	}
	head := strings.TrimSpace(s[:bracketStart])
	if head != "" {
		fields := strings.Fields(head)
		if len(fields) > 0 && strings.HasSuffix(fields[len(fields)-1], ":") {
			segName := strings.TrimSuffix(fields[len(fields)-1], ":")
			seg, ok := registerByName[segName]
			if !ok {
				return x86.IndirectOperand{}, objerr.New(objerr.ParseError, "unknown segment register in %q", s)
			}
			b = b.SegmentOverride(seg)
			fields = fields[:len(fields)-1]
		}
		if len(fields) > 0 {
			ptr, ok := pointerSizeByWord[fields[0]]
			if !ok {
				return x86.IndirectOperand{}, objerr.New(objerr.ParseError, "unknown pointer size in %q", s)
			}
			b = b.PointerSize(ptr)
		}
	}

	inner := s[bracketStart+1 : bracketEnd]
	terms, err := splitSignedTerms(inner)
	if err != nil {
		return x86.IndirectOperand{}, err
	}
	for _, t := range terms {
		if err := applyMemoryTerm(b, t); err != nil {
			return x86.IndirectOperand{}, err
		}
	}
	return b.Finalize()
}

// splitSignedTerms splits "base+index*scale+disp" / "base-disp" style text
// into its +/- delimited terms, keeping each term's leading sign (absent
// on the first term, meaning "+").
func splitSignedTerms(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var terms []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			terms = append(terms, s[start:i])
			start = i
		}
	}
	terms = append(terms, s[start:])
	return terms, nil
}

func applyMemoryTerm(b *x86.IndirectOperandBuilder, term string) error {
	neg := strings.HasPrefix(term, "-")
	term = strings.TrimPrefix(strings.TrimPrefix(term, "+"), "-")

	if star := strings.IndexByte(term, '*'); star >= 0 {
		reg, ok := registerByName[term[:star]]
		if !ok {
			return objerr.New(objerr.ParseError, "unknown index register in %q", term)
		}
		scale, err := strconv.Atoi(term[star+1:])
		if err != nil {
			return objerr.New(objerr.ParseError, "malformed scale in %q: %v", term, err)
		}
		b.Index(reg)
		b.Scale(uint8(scale))
		return nil
	}
	if reg, ok := registerByName[term]; ok {
		b.Base(reg)
		return nil
	}
	hexPart := strings.TrimPrefix(term, "0x")
	v, err := strconv.ParseUint(hexPart, 16, 32)
	if err != nil {
		return objerr.New(objerr.ParseError, "malformed displacement in %q: %v", term, err)
	}
	disp := int32(v)
	if neg {
		disp = -disp
	}
	b.Displacement(disp, disp >= -128 && disp <= 127)
	return nil
}
