package decoder

import (
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// opcodeHandler decodes one instruction once the primary opcode byte (or,
// for the two/three-byte maps, the map-selector byte) has already been
// consumed from ds. It reads whatever ModR/M, SIB, displacement, and
// immediate bytes its shape requires (spec.md §4.4 steps 4-7) and returns
// the instruction with Opcode/operands filled in; Prefixes and Length are
// stamped on by Decode itself.
type opcodeHandler func(ds *decodeState) (x86.Instruction, error)

// oneByteTable dispatches on the primary opcode byte for every one-byte
// opcode this module supports (spec.md §4.4 step 3). 0x0F is handled
// specially by Decode, since it selects the two/three-byte maps rather
// than naming an instruction itself.
var oneByteTable [256]opcodeHandler

// twoByteTable dispatches on the second opcode byte once 0x0F has been
// consumed, for opcodes outside the 0x38/0x3A three-byte maps.
var twoByteTable [256]opcodeHandler

func init() {
	registerALUOpcodes()
	registerGroup1Opcodes()
	registerGroup3Opcodes()
	registerGroup5AndFE()
	registerShiftGroup()
	registerMovOpcodes()
	registerStackOpcodes()
	registerControlFlowOpcodes()
	registerMiscOpcodes()
	registerTwoByteOpcodes()
}

// decodeTwoByte handles the 0F xx map: the two-byte opcodes proper plus the
// 0F 38/0F 3A three-byte maps (spec.md §4.4 step 3).
func decodeTwoByte(ds *decodeState) (x86.Instruction, error) {
	b, err := ds.readByte()
	if err != nil {
		return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated two-byte opcode: %v", err)
	}
	if b == 0x38 || b == 0x3A {
		b2, err := ds.readByte()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated three-byte opcode: %v", err)
		}
		return decodeThreeByte(ds, b, b2)
	}
	handler := twoByteTable[b]
	if handler == nil {
		return x86.Instruction{}, objerr.NewAt(objerr.UnknownOpcode, int64(ds.pos-1), "unknown two-byte opcode 0F %#02x", b)
	}
	return handler(ds)
}

// decodeThreeByte recognizes no opcode of the 0F 38/0F 3A maps: every one
// is reported as UnknownOpcode. Those maps (SSSE3/SSE4/AVX) are out
// of scope per spec.md's Non-goals ("full ISA coverage ... beyond what the
// corpus exercises").
func decodeThreeByte(ds *decodeState, mapSelector, opByte byte) (x86.Instruction, error) {
	return x86.Instruction{}, objerr.NewAt(objerr.UnknownOpcode, int64(ds.pos-2),
		"unsupported three-byte opcode 0F %#02x %#02x", mapSelector, opByte)
}

// --- ALU group: add/or/adc/sbb/and/sub/xor/cmp, each with the classic
// six-opcode layout (Eb,Gb / Ev,Gv / Gb,Eb / Gv,Ev / AL,Ib / eAX,Iz). ---

type aluOp struct {
	mnemonic x86.Mnemonic
	base     byte
}

var aluOps = []aluOp{
	{"add", 0x00}, {"or", 0x08}, {"adc", 0x10}, {"sbb", 0x18},
	{"and", 0x20}, {"sub", 0x28}, {"xor", 0x30}, {"cmp", 0x38},
}

func registerALUOpcodes() {
	for _, op := range aluOps {
		mnemonic := op.mnemonic
		oneByteTable[op.base+0x00] = aluRMR(mnemonic, 8)
		oneByteTable[op.base+0x01] = aluRMRFull(mnemonic)
		oneByteTable[op.base+0x02] = aluRRM(mnemonic, 8)
		oneByteTable[op.base+0x03] = aluRRMFull(mnemonic)
		oneByteTable[op.base+0x04] = aluAccImm(mnemonic, 8)
		oneByteTable[op.base+0x05] = aluAccImmFull(mnemonic)
	}
}

// aluRMR decodes the "Eb,Gb" shape: r/m operand first (destination), fixed
// 8-bit width.
func aluRMR(mnemonic x86.Mnemonic, width int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, width), width)
		reg := ds.gpRegister(m.regIndex, width)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: rm, Op2: reg}, nil
	}
}

// aluRMRFull is aluRMR at the effective operand size (16/32/64).
func aluRMRFull(mnemonic x86.Mnemonic) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		reg := ds.gpRegister(m.regIndex, size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: rm, Op2: reg}, nil
	}
}

// aluRRM decodes the "Gb,Eb" shape: register operand first, r/m second.
func aluRRM(mnemonic x86.Mnemonic, width int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		reg := ds.gpRegister(m.regIndex, width)
		rm := withPointerSize(rmOperand(m, ds, width), width)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: reg, Op2: rm}, nil
	}
}

func aluRRMFull(mnemonic x86.Mnemonic) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		reg := ds.gpRegister(m.regIndex, size)
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: reg, Op2: rm}, nil
	}
}

// aluAccImm decodes the "AL,Ib" accumulator-immediate shape.
func aluAccImm(mnemonic x86.Mnemonic, width int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		imm, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		acc := ds.gpRegister(0, width)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: acc, Op2: x86.NewImmediate8(imm)}, nil
	}
}

// aluAccImmFull decodes the "eAX,Iz" shape at the effective operand size.
func aluAccImmFull(mnemonic x86.Mnemonic) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		size := ds.operandSize()
		imm, err := ds.readImmZ(size)
		if err != nil {
			return x86.Instruction{}, err
		}
		acc := ds.gpRegister(0, size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: acc, Op2: imm}, nil
	}
}

// group1Mnemonics is the ModR/M reg-field selector for opcodes 0x80/0x81/
// 0x83 (spec.md §4.4's "opcode pattern" lookup: the mnemonic lives in the
// ModR/M byte, not the opcode byte itself).
var group1Mnemonics = [8]x86.Mnemonic{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}

func registerGroup1Opcodes() {
	// 0x80: Eb, Ib.
	oneByteTable[0x80] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, 8), 8)
		imm, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: group1Mnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.NewImmediate8(imm),
		}, nil
	}
	// 0x81: Ev, Iz.
	oneByteTable[0x81] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		imm, err := ds.readImmZ(size)
		if err != nil {
			return x86.Instruction{}, err
		}
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: group1Mnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: imm,
		}, nil
	}
	// 0x83: Ev, Ib (sign-extended to the effective operand size).
	oneByteTable[0x83] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		imm8, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: group1Mnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: signExtendImm8(imm8, size),
		}, nil
	}
}

// group3Mnemonics selects the F6/F7 group's operation by ModR/M reg field.
// /0 and /1 both mean TEST (the second is a reserved-but-accepted alias on
// real silicon); the rest are unary.
var group3Mnemonics = [8]x86.Mnemonic{"test", "test", "not", "neg", "mul", "imul", "div", "idiv"}

func registerGroup3Opcodes() {
	oneByteTable[0xF6] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, 8), 8)
		mnemonic := group3Mnemonics[m.regIndex&7]
		if mnemonic == "test" {
			imm, err := ds.readI8()
			if err != nil {
				return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
			}
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: rm, Op2: x86.NewImmediate8(imm)}, nil
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 1}, Op1: rm}, nil
	}
	oneByteTable[0xF7] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		mnemonic := group3Mnemonics[m.regIndex&7]
		if mnemonic == "test" {
			imm, err := ds.readImmZ(size)
			if err != nil {
				return x86.Instruction{}, err
			}
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: rm, Op2: imm}, nil
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 1}, Op1: rm}, nil
	}
}

// group5Mnemonics8 is the FE group (Eb only: inc/dec).
var group5Mnemonics8 = [2]x86.Mnemonic{"inc", "dec"}

// groupFFMnemonics is the FF group (Ev): inc/dec/call/callf/jmp/jmpf/push.
// Far call/jmp (/3, /5) are out of scope (spec.md Non-goals exclude
// dynamic-linker-adjacent far-pointer semantics); their ModR/M reg values
// surface as ReservedOpcode.
var groupFFMnemonics = [8]x86.Mnemonic{"inc", "dec", "call", "", "jmp", "", "push", ""}

func registerGroup5AndFE() {
	oneByteTable[0xFE] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		if m.regIndex&7 > 1 {
			return x86.Instruction{}, objerr.NewAt(objerr.ReservedOpcode, int64(ds.pos), "reserved FE /%d", m.regIndex&7)
		}
		rm := withPointerSize(rmOperand(m, ds, 8), 8)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: group5Mnemonics8[m.regIndex&7], Arity: 1}, Op1: rm}, nil
	}
	oneByteTable[0xFF] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		mnemonic := groupFFMnemonics[m.regIndex&7]
		if mnemonic == "" {
			return x86.Instruction{}, objerr.NewAt(objerr.ReservedOpcode, int64(ds.pos), "reserved FF /%d", m.regIndex&7)
		}
		size := ds.operandSize()
		if mnemonic == "call" || mnemonic == "jmp" {
			size = 64
		}
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 1}, Op1: rm}, nil
	}
}

// shiftMnemonics is the C0/C1/D0-D3 group, selected by ModR/M reg field.
// /6 is the undocumented SAL alias, decoded as "shl" like real disassemblers.
var shiftMnemonics = [8]x86.Mnemonic{"rol", "ror", "rcl", "rcr", "shl", "shr", "shl", "sar"}

func registerShiftGroup() {
	oneByteTable[0xC0] = shiftByImm(8, false)
	oneByteTable[0xC1] = shiftByImmFull(false)
	oneByteTable[0xD0] = shiftByOne(8)
	oneByteTable[0xD1] = shiftByOneFull()
	oneByteTable[0xD2] = shiftByCL(8)
	oneByteTable[0xD3] = shiftByCLFull()
}

func shiftByImm(width int, _ bool) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, width), width)
		imm, err := ds.readByte()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated shift imm8: %v", err)
		}
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.NewImmediate8(int8(imm)),
		}, nil
	}
}

func shiftByImmFull(_ bool) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		imm, err := ds.readByte()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated shift imm8: %v", err)
		}
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.NewImmediate8(int8(imm)),
		}, nil
	}
}

func shiftByOne(width int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, width), width)
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.NewImmediate8(1),
		}, nil
	}
}

func shiftByOneFull() opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.NewImmediate8(1),
		}, nil
	}
}

func shiftByCL(width int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, width), width)
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.GPR8(1, false),
		}, nil
	}
}

func shiftByCLFull() opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{
			Opcode: x86.Opcode{Mnemonic: shiftMnemonics[m.regIndex&7], Arity: 2},
			Op1:    rm, Op2: x86.GPR8(1, false),
		}, nil
	}
}

// --- MOV family ---

func registerMovOpcodes() {
	oneByteTable[0x88] = aluRMR("mov", 8)
	oneByteTable[0x89] = aluRMRFull("mov")
	oneByteTable[0x8A] = aluRRM("mov", 8)
	oneByteTable[0x8B] = aluRRMFull("mov")

	// 0x8D: LEA Gv, M. The source must be a memory operand; a register rm
	// here is an encoding error a real CPU would #UD on.
	oneByteTable[0x8D] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		if !m.isMemory {
			return x86.Instruction{}, objerr.NewAt(objerr.InvalidInstruction, int64(ds.pos), "lea requires a memory operand")
		}
		size := ds.operandSize()
		reg := ds.gpRegister(m.regIndex, size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "lea", Arity: 2}, Op1: reg, Op2: m.mem}, nil
	}

	// 0xB0-0xB7: mov r8, Ib.
	for i := byte(0); i < 8; i++ {
		idx := i
		oneByteTable[0xB0+idx] = func(ds *decodeState) (x86.Instruction, error) {
			imm, err := ds.readByte()
			if err != nil {
				return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
			}
			reg := ds.gpRegister(idx|ds.rexBBit(), 8)
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2}, Op1: reg, Op2: x86.NewImmediate8(int8(imm))}, nil
		}
	}
	// 0xB8-0xBF: mov r, Iv/Iz (imm64 under REX.W, else imm32/imm16).
	for i := byte(0); i < 8; i++ {
		idx := i
		oneByteTable[0xB8+idx] = func(ds *decodeState) (x86.Instruction, error) {
			size := ds.operandSize()
			reg := ds.gpRegister(idx|ds.rexBBit(), size)
			var imm x86.Immediate
			var err error
			if size == 64 {
				v, e := ds.readU64LE()
				imm, err = x86.NewImmediate64(int64(v)), e
			} else {
				imm, err = ds.readImmZ(size)
			}
			if err != nil {
				return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated mov immediate: %v", err)
			}
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2}, Op1: reg, Op2: imm}, nil
		}
	}

	// 0xC6/0: mov Eb, Ib.
	oneByteTable[0xC6] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		if m.regIndex&7 != 0 {
			return x86.Instruction{}, objerr.NewAt(objerr.ReservedOpcode, int64(ds.pos), "reserved C6 /%d", m.regIndex&7)
		}
		rm := withPointerSize(rmOperand(m, ds, 8), 8)
		imm, err := ds.readByte()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2}, Op1: rm, Op2: x86.NewImmediate8(int8(imm))}, nil
	}
	// 0xC7/0: mov Ev, Iz.
	oneByteTable[0xC7] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		if m.regIndex&7 != 0 {
			return x86.Instruction{}, objerr.NewAt(objerr.ReservedOpcode, int64(ds.pos), "reserved C7 /%d", m.regIndex&7)
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		imm, err := ds.readImmZ(size)
		if err != nil {
			return x86.Instruction{}, err
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "mov", Arity: 2}, Op1: rm, Op2: imm}, nil
	}

	// 0x63: MOVSXD Gv, Ed (REX.W sign-extends a 32-bit r/m into a 64-bit reg).
	oneByteTable[0x63] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		rm := withPointerSize(rmOperand(m, ds, 32), 32)
		reg := ds.gpRegister(m.regIndex, ds.operandSize())
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "movsxd", Arity: 2}, Op1: reg, Op2: rm}, nil
	}

	// 0x86/0x87: XCHG Eb,Gb / Ev,Gv.
	oneByteTable[0x86] = aluRMR("xchg", 8)
	oneByteTable[0x87] = aluRMRFull("xchg")

	// 0x84/0x85: TEST Eb,Gb / Ev,Gv.
	oneByteTable[0x84] = aluRMR("test", 8)
	oneByteTable[0x85] = aluRMRFull("test")

	// 0xA8/0xA9: TEST AL,Ib / eAX,Iz.
	oneByteTable[0xA8] = aluAccImm("test", 8)
	oneByteTable[0xA9] = aluAccImmFull("test")
}

// rexBBit returns 0x08 when REX.B is set, 0 otherwise — used by the B0-BF/
// 90+r opcode families that encode their register in the opcode's low 3
// bits rather than in a ModR/M byte.
func (ds *decodeState) rexBBit() uint8 {
	if ds.rex.b {
		return 0x08
	}
	return 0
}

// --- Stack opcodes ---

func registerStackOpcodes() {
	for i := byte(0); i < 8; i++ {
		idx := i
		oneByteTable[0x50+idx] = func(ds *decodeState) (x86.Instruction, error) {
			reg := x86.GPR64(idx | ds.rexBBit())
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "push", Arity: 1}, Op1: reg}, nil
		}
		oneByteTable[0x58+idx] = func(ds *decodeState) (x86.Instruction, error) {
			reg := x86.GPR64(idx | ds.rexBBit())
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "pop", Arity: 1}, Op1: reg}, nil
		}
	}
	// 0x68: PUSH Iz (imm32, sign-extended to 64 bits on push).
	oneByteTable[0x68] = func(ds *decodeState) (x86.Instruction, error) {
		v, err := ds.readI32()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm32: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "push", Arity: 1}, Op1: x86.NewImmediate32(v)}, nil
	}
	// 0x6A: PUSH Ib (sign-extended).
	oneByteTable[0x6A] = func(ds *decodeState) (x86.Instruction, error) {
		v, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "push", Arity: 1}, Op1: x86.NewImmediate8(v)}, nil
	}
	// 0x8F/0: POP Ev.
	oneByteTable[0x8F] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		if m.regIndex&7 != 0 {
			return x86.Instruction{}, objerr.NewAt(objerr.ReservedOpcode, int64(ds.pos), "reserved 8F /%d", m.regIndex&7)
		}
		rm := withPointerSize(rmOperand(m, ds, 64), 64)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "pop", Arity: 1}, Op1: rm}, nil
	}
	// 0x69: IMUL Gv,Ev,Iz. 0x6B: IMUL Gv,Ev,Ib.
	oneByteTable[0x69] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		reg := ds.gpRegister(m.regIndex, size)
		imm, err := ds.readImmZ(size)
		if err != nil {
			return x86.Instruction{}, err
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "imul", Arity: 3}, Op1: reg, Op2: rm, Op3: imm}, nil
	}
	oneByteTable[0x6B] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		reg := ds.gpRegister(m.regIndex, size)
		imm8, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm8: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "imul", Arity: 3}, Op1: reg, Op2: rm, Op3: signExtendImm8(imm8, size)}, nil
	}
}

// --- Control flow: Jcc rel8, JMP/CALL rel32, RET, Jcc rel32 (two-byte) ---

var jccMnemonics = [16]x86.Mnemonic{
	"jo", "jno", "jb", "jae", "je", "jne", "jbe", "ja",
	"js", "jns", "jp", "jnp", "jl", "jge", "jle", "jg",
}

func registerControlFlowOpcodes() {
	for i := byte(0); i < 16; i++ {
		idx := i
		oneByteTable[0x70+idx] = func(ds *decodeState) (x86.Instruction, error) {
			rel, err := ds.readI8()
			if err != nil {
				return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated rel8: %v", err)
			}
			return x86.Instruction{
				Opcode: x86.Opcode{Mnemonic: jccMnemonics[idx], Arity: 1},
				Op1:    x86.RelativeOffset{Width: x86.Imm8, Value: int32(rel)},
			}, nil
		}
	}
	oneByteTable[0xEB] = func(ds *decodeState) (x86.Instruction, error) {
		rel, err := ds.readI8()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated rel8: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "jmp", Arity: 1}, Op1: x86.RelativeOffset{Width: x86.Imm8, Value: int32(rel)}}, nil
	}
	oneByteTable[0xE9] = func(ds *decodeState) (x86.Instruction, error) {
		rel, err := ds.readI32()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated rel32: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "jmp", Arity: 1}, Op1: x86.RelativeOffset{Width: x86.Imm32, Value: rel}}, nil
	}
	oneByteTable[0xE8] = func(ds *decodeState) (x86.Instruction, error) {
		rel, err := ds.readI32()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated rel32: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "call", Arity: 1}, Op1: x86.RelativeOffset{Width: x86.Imm32, Value: rel}}, nil
	}
	oneByteTable[0xC3] = fixedNoOperand("ret")
	oneByteTable[0xC2] = func(ds *decodeState) (x86.Instruction, error) {
		imm, err := ds.readU16LE()
		if err != nil {
			return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm16: %v", err)
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "ret", Arity: 1}, Op1: x86.NewImmediate16(int16(imm))}, nil
	}

	for i := byte(0); i < 16; i++ {
		idx := i
		twoByteTable[0x80+idx] = func(ds *decodeState) (x86.Instruction, error) {
			rel, err := ds.readI32()
			if err != nil {
				return x86.Instruction{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated rel32: %v", err)
			}
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: jccMnemonics[idx], Arity: 1}, Op1: x86.RelativeOffset{Width: x86.Imm32, Value: rel}}, nil
		}
	}
}

func fixedNoOperand(mnemonic x86.Mnemonic) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 0}}, nil
	}
}

// --- Misc ---

func registerMiscOpcodes() {
	oneByteTable[0x90] = fixedNoOperand("nop")
	oneByteTable[0xCC] = fixedNoOperand("int3")
	oneByteTable[0xC9] = fixedNoOperand("leave")
	oneByteTable[0xF4] = fixedNoOperand("hlt")
	oneByteTable[0x98] = func(ds *decodeState) (x86.Instruction, error) {
		if ds.rex.w {
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "cdqe", Arity: 0}}, nil
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "cwde", Arity: 0}}, nil
	}
	oneByteTable[0x99] = func(ds *decodeState) (x86.Instruction, error) {
		if ds.rex.w {
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "cqo", Arity: 0}}, nil
		}
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "cdq", Arity: 0}}, nil
	}
	// 0x91-0x97: XCHG eAX, r (opcode 0x90 itself is the NOP form, r=0).
	for i := byte(1); i < 8; i++ {
		idx := i
		oneByteTable[0x90+idx] = func(ds *decodeState) (x86.Instruction, error) {
			size := ds.operandSize()
			reg := ds.gpRegister(idx|ds.rexBBit(), size)
			acc := ds.gpRegister(0, size)
			return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "xchg", Arity: 2}, Op1: acc, Op2: reg}, nil
		}
	}
}

func registerTwoByteOpcodes() {
	// 0F AF: IMUL Gv, Ev.
	twoByteTable[0xAF] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		reg := ds.gpRegister(m.regIndex, size)
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "imul", Arity: 2}, Op1: reg, Op2: rm}, nil
	}
	// 0F B0/B1: CMPXCHG Eb,Gb / Ev,Gv.
	twoByteTable[0xB0] = aluRMR("cmpxchg", 8)
	twoByteTable[0xB1] = aluRMRFull("cmpxchg")
	// 0F B6/B7: MOVZX Gv, Eb/Ew. 0F BE/BF: MOVSX Gv, Eb/Ew.
	twoByteTable[0xB6] = movExtend("movzx", 8)
	twoByteTable[0xB7] = movExtend("movzx", 16)
	twoByteTable[0xBE] = movExtend("movsx", 8)
	twoByteTable[0xBF] = movExtend("movsx", 16)
	// 0F 1F: multi-byte NOP (NOP Ev) — common compiler padding.
	twoByteTable[0x1F] = func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		size := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, size), size)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: "nop", Arity: 1}, Op1: rm}, nil
	}
}

func movExtend(mnemonic x86.Mnemonic, srcWidth int) opcodeHandler {
	return func(ds *decodeState) (x86.Instruction, error) {
		m, err := decodeModRM(ds)
		if err != nil {
			return x86.Instruction{}, err
		}
		destSize := ds.operandSize()
		rm := withPointerSize(rmOperand(m, ds, srcWidth), srcWidth)
		reg := ds.gpRegister(m.regIndex, destSize)
		return x86.Instruction{Opcode: x86.Opcode{Mnemonic: mnemonic, Arity: 2}, Op1: reg, Op2: rm}, nil
	}
}

// readImmZ reads the "Iz" immediate shape: imm16 when the effective
// operand size is 16 bits, imm32 (sign-extended to the Immediate's
// int64 storage) otherwise — including when size is 64, since the x86-64
// Iz forms still only carry a 32-bit immediate, sign-extended at use.
func (ds *decodeState) readImmZ(size int) (x86.Immediate, error) {
	if size == 16 {
		v, err := ds.readU16LE()
		if err != nil {
			return x86.Immediate{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm16: %v", err)
		}
		return x86.NewImmediate16(int16(v)), nil
	}
	v, err := ds.readI32()
	if err != nil {
		return x86.Immediate{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated imm32: %v", err)
	}
	if size == 64 {
		return x86.NewImmediate64(int64(v)), nil
	}
	return x86.NewImmediate32(v), nil
}

// signExtendImm8 widens a sign-extended imm8 to the Immediate width
// matching the effective operand size, per spec.md §4.5's compact-
// immediate rule applied in reverse at decode time.
func signExtendImm8(v int8, size int) x86.Immediate {
	switch size {
	case 16:
		return x86.NewImmediate16(int16(v))
	case 64:
		return x86.NewImmediate64(int64(v))
	default:
		return x86.NewImmediate32(int32(v))
	}
}
