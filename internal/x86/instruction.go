package x86

// Operand is implemented by exactly the four operand kinds spec.md §3.3
// names: Register, IndirectOperand, Immediate, RelativeOffset. The marker
// method keeps the union closed without reflection.
type Operand interface {
	isOperand()
}

func (Register) isOperand()        {}
func (IndirectOperand) isOperand() {}
func (Immediate) isOperand()       {}
func (RelativeOffset) isOperand()  {}

// Mnemonic identifies an instruction's operation independent of its
// encoding (e.g. "mov", "cmp", "jne").
type Mnemonic string

// Opcode describes one decoded/encodable instruction shape: a mnemonic
// plus the metadata the decoder/encoder/printer need (spec.md §4.4 step 3:
// "look up the decoded tuple (mnemonic, operand-pattern) from a static
// table"). The decoder's oneByteTable/twoByteTable and the encoder's
// per-mnemonic dispatch in emitBody own the actual byte-sequence mappings;
// this struct is just the resulting shape.
type Opcode struct {
	Mnemonic Mnemonic
	Bytes    []byte // the opcode bytes themselves (e.g. {0x0F, 0xAF})
	Arity    int    // number of operands this opcode takes
}

// Prefixes holds the legacy-prefix state recognized in spec.md §4.4 step 1.
type Prefixes struct {
	Lock                bool
	RepNE               bool     // F2
	RepE                bool     // F3
	Segment             Register // Null if absent
	OperandSizeOverride bool     // 66
	AddressSizeOverride bool     // 67
}

// Instruction is the fully decoded (or not-yet-encoded) representation of
// one x86-64 instruction (spec.md §3.3).
type Instruction struct {
	Prefixes Prefixes
	Opcode   Opcode
	Op1      Operand
	Op2      Operand
	Op3      Operand
	Op4      Operand

	// Length is the number of bytes this instruction occupied in its
	// source byte stream, filled in by the decoder. Zero for
	// not-yet-encoded instructions built by hand.
	Length int
}

// Operands returns the instruction's non-nil operands in order.
func (i Instruction) Operands() []Operand {
	var out []Operand
	for _, op := range []Operand{i.Op1, i.Op2, i.Op3, i.Op4} {
		if op != nil {
			out = append(out, op)
		}
	}
	return out
}
