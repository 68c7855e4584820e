package x86

import "github.com/xyproto/xdis/internal/objerr"

// Validate checks the invariants spec.md §4.4 names for the validator:
// operand count equal to the opcode's arity (operand widths are not
// checked), IndirectOperand.Scale in
// {1,2,4,8} when an index is present, a memory operand carries a
// PointerSize when required, and no operand aliases an illegal register
// combination (RSP as a SIB index).
func Validate(instr Instruction) error {
	operands := instr.Operands()
	if len(operands) != instr.Opcode.Arity {
		return objerr.New(objerr.InvalidInstruction,
			"%s expects %d operand(s), got %d", instr.Opcode.Mnemonic, instr.Opcode.Arity, len(operands))
	}

	if instr.Prefixes.Lock && !lockable[instr.Opcode.Mnemonic] {
		return objerr.New(objerr.InvalidInstruction, "LOCK prefix not valid on %s", instr.Opcode.Mnemonic)
	}

	for _, op := range operands {
		mem, ok := op.(IndirectOperand)
		if !ok {
			continue
		}
		if err := validateMemoryOperand(mem, instr.Opcode.Mnemonic); err != nil {
			return err
		}
	}
	return nil
}

func validateMemoryOperand(mem IndirectOperand, mnemonic Mnemonic) error {
	if mem.Scale != 0 && !mem.Index.IsNull() {
		switch mem.Scale {
		case 1, 2, 4, 8:
		default:
			return objerr.New(objerr.InvalidInstruction, "%s: scale %d is not in {1,2,4,8}", mnemonic, mem.Scale)
		}
	}
	if !mem.Index.IsNull() && mem.Index.Kind == GPR64Kind && mem.Index.Index == 4 {
		return objerr.New(objerr.InvalidInstruction, "%s: rsp cannot be a SIB index", mnemonic)
	}
	if memoryOperandRequiresPointerSize[mnemonic] && mem.PointerSize == NoPointerSize {
		return objerr.New(objerr.InvalidInstruction, "%s: memory operand requires an explicit pointer size", mnemonic)
	}
	return nil
}

// lockable lists mnemonics that accept the LOCK prefix: the read-modify-
// write instructions that actually lock the bus on a real CPU.
var lockable = map[Mnemonic]bool{
	"add": true, "adc": true, "and": true, "btc": true, "btr": true, "bts": true,
	"cmpxchg": true, "dec": true, "inc": true, "neg": true, "not": true,
	"or": true, "sbb": true, "sub": true, "xadd": true, "xchg": true, "xor": true,
}

// memoryOperandRequiresPointerSize lists mnemonics where the size of the
// memory operand cannot be inferred from a register operand (e.g. a bare
// "inc [rax]" is ambiguous without "dword ptr"), so a PointerSize is
// mandatory for textual rendering per spec.md §3.3.
var memoryOperandRequiresPointerSize = map[Mnemonic]bool{
	"inc": true, "dec": true, "not": true, "neg": true,
	"push": true, "pop": true, "mul": true, "imul": true, "div": true, "idiv": true,
	"cmp": true, "test": true, "mov": true,
}
