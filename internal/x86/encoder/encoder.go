// Package encoder is the inverse of internal/x86/decoder: it serializes an
// internal/x86.Instruction back to its canonical byte encoding (spec.md
// §4.5). Encode emits one canonical encoding per instruction: byte
// sequences already in that form are reproduced exactly, while alternative
// encodings the decoder also accepts (e.g. 8B for a register-to-register
// mov, or a disp32 whose value fits in a disp8) re-encode to the canonical
// form rather than to the original bytes.
package encoder

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// Encode serializes instr to its canonical byte sequence. It validates
// instr first (the same checks internal/x86.Validate performs at decode
// time) and reports any violation as InvalidEncoding, per spec.md §4.5.
func Encode(instr x86.Instruction) ([]byte, error) {
	if err := x86.Validate(instr); err != nil {
		return nil, objerr.New(objerr.InvalidEncoding, "refusing to encode an invalid instruction: %v", err)
	}

	body := buffer.NewWriter(buffer.LittleEndian)
	body.SetAlignment(1)
	rex, err := emitBody(body, instr)
	if err != nil {
		return nil, err
	}

	out := buffer.NewWriter(buffer.LittleEndian)
	out.SetAlignment(1)
	emitLegacyPrefixes(out, instr.Prefixes)
	if needsRex(instr, rex) {
		full := rex
		full.w = full.w || operandSizeIs64(instr)
		out.WriteByte(full.byteValue())
	}
	out.WriteBytes(body.Bytes())
	return out.Bytes(), nil
}

// emitLegacyPrefixes writes F0/F2/F3 (lock/rep), segment override, 0x66,
// then 0x67, in that fixed order (spec.md §4.5).
func emitLegacyPrefixes(w *buffer.Writer, p x86.Prefixes) {
	if p.Lock {
		w.WriteByte(0xF0)
	}
	if p.RepNE {
		w.WriteByte(0xF2)
	}
	if p.RepE {
		w.WriteByte(0xF3)
	}
	if p.Segment.Kind == x86.Segment {
		w.WriteByte(segmentOverrideByte(p.Segment))
	}
	if p.OperandSizeOverride {
		w.WriteByte(0x66)
	}
	if p.AddressSizeOverride {
		w.WriteByte(0x67)
	}
}

func segmentOverrideByte(seg x86.Register) byte {
	switch seg.Index {
	case 0:
		return 0x26 // es
	case 1:
		return 0x2E // cs
	case 2:
		return 0x36 // ss
	case 3:
		return 0x3E // ds
	case 4:
		return 0x64 // fs
	default:
		return 0x65 // gs
	}
}

// needsRex reports whether instr requires an explicit REX byte: any
// computed W/R/X/B bit, a REX.W-only operand size of 64, or an 8-bit
// operand that can only be named with REX present (spl/bpl/sil/dil).
func needsRex(instr x86.Instruction, rex rexBits) bool {
	if rex.any() || operandSizeIs64(instr) {
		return true
	}
	for _, op := range instr.Operands() {
		if needsRexForLowByte(op) {
			return true
		}
	}
	return false
}

func operandSizeIs64(instr x86.Instruction) bool {
	switch instr.Opcode.Mnemonic {
	case "push", "pop", "call", "jmp":
		// 64-bit by default in long mode; REX.W is never needed.
		return false
	}
	for _, op := range instr.Operands() {
		if registerWidth(op) == 64 {
			return true
		}
	}
	return false
}

// emitBody writes the opcode, ModR/M/SIB/displacement, and immediate bytes
// for instr (everything after the legacy prefixes and REX byte), returning
// the REX W/R/X/B bits the ModR/M encoding required.
func emitBody(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	mnemonic := instr.Opcode.Mnemonic

	if base, ok := aluBase[mnemonic]; ok {
		return emitALU(w, instr, base)
	}
	if sel, ok := group1Selector[mnemonic]; ok {
		return emitGroup1(w, instr, sel)
	}
	if sel, ok := shiftSelector[mnemonic]; ok {
		return emitShift(w, instr, sel)
	}

	switch mnemonic {
	case "mov":
		return emitMov(w, instr)
	case "lea":
		return emitLea(w, instr)
	case "test":
		return emitTest(w, instr)
	case "xchg":
		return emitXchg(w, instr)
	case "not", "neg", "mul", "imul", "div", "idiv":
		return emitUnaryGroup3(w, instr, mnemonic)
	case "inc", "dec":
		return emitIncDec(w, instr, mnemonic)
	case "push":
		return emitPush(w, instr)
	case "pop":
		return emitPop(w, instr)
	case "call":
		return emitCallOrJmp(w, instr, 0xE8, 2)
	case "jmp":
		return emitCallOrJmp(w, instr, 0xE9, 4)
	case "ret":
		return emitRet(w, instr)
	case "cmpxchg":
		return emitCmpxchg(w, instr)
	case "movzx", "movsx":
		return emitMovExtend(w, instr, mnemonic)
	case "movsxd":
		return emitMovsxd(w, instr)
	case "nop":
		return emitNop(w, instr)
	case "int3", "leave", "hlt", "cdq", "cqo", "cwde", "cdqe":
		w.WriteByte(fixedNoOperandByte(mnemonic, instr))
		return rexBits{}, nil
	}
	if rel, ok := jccOpcode[mnemonic]; ok {
		return emitJcc(w, instr, rel)
	}

	return rexBits{}, objerr.New(objerr.InvalidEncoding, "unsupported mnemonic %q", mnemonic)
}

var aluBase = map[x86.Mnemonic]byte{
	"add": 0x00, "or": 0x08, "adc": 0x10, "sbb": 0x18,
	"and": 0x20, "sub": 0x28, "xor": 0x30, "cmp": 0x38,
}

var group1Selector = map[x86.Mnemonic]byte{
	"add": 0, "or": 1, "adc": 2, "sbb": 3, "and": 4, "sub": 5, "xor": 6, "cmp": 7,
}

var shiftSelector = map[x86.Mnemonic]byte{
	"rol": 0, "ror": 1, "rcl": 2, "rcr": 3, "shl": 4, "shr": 5, "sar": 7,
}

var jccOpcode = map[x86.Mnemonic]byte{
	"jo": 0x0, "jno": 0x1, "jb": 0x2, "jae": 0x3, "je": 0x4, "jne": 0x5,
	"jbe": 0x6, "ja": 0x7, "js": 0x8, "jns": 0x9, "jp": 0xA, "jnp": 0xB,
	"jl": 0xC, "jge": 0xD, "jle": 0xE, "jg": 0xF,
}

func fixedNoOperandByte(mnemonic x86.Mnemonic, instr x86.Instruction) byte {
	switch mnemonic {
	case "int3":
		return 0xCC
	case "leave":
		return 0xC9
	case "hlt":
		return 0xF4
	case "cdq", "cqo":
		return 0x99
	case "cwde", "cdqe":
		return 0x98
	default:
		return 0x90
	}
}

// --- ALU group: distinguishes the six classic shapes by operand kinds. ---

func emitALU(w *buffer.Writer, instr x86.Instruction, base byte) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires two operands", instr.Opcode.Mnemonic)
	}
	op1, op2 := ops[0], ops[1]

	if reg2, ok := op2.(x86.Register); ok {
		width := reg2.Width()
		opc := base + 0x01
		if width == 8 {
			opc = base
		}
		w.WriteByte(opc)
		return encodeRM(w, reg2.Index, op1)
	}
	if imm, ok := op2.(x86.Immediate); ok {
		// The accumulator short form (04/05) is used only where it is the
		// shorter encoding; every other immediate form goes through the
		// 80/81/83 group with its imm8 preference.
		reg1, isReg := op1.(x86.Register)
		if !isReg || reg1.Index != 0 || (imm.FitsInt8() && reg1.Width() != 8) {
			return emitGroup1(w, instr, group1Selector[instr.Opcode.Mnemonic])
		}
		width := reg1.Width()
		opc := base + 0x05
		if width == 8 {
			opc = base + 0x04
		}
		w.WriteByte(opc)
		return rexBits{w: width == 64}, writeImmFor(w, imm, width)
	}
	// Gv,Ev / Gb,Eb form: op1 is the register destination, op2 the r/m.
	if reg1, ok := op1.(x86.Register); ok {
		width := reg1.Width()
		opc := base + 0x03
		if width == 8 {
			opc = base + 0x02
		}
		w.WriteByte(opc)
		return encodeRM(w, reg1.Index, op2)
	}
	return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s: unsupported operand shape", instr.Opcode.Mnemonic)
}

func writeImmFor(w *buffer.Writer, imm x86.Immediate, width int) error {
	switch width {
	case 8:
		w.WriteByte(byte(imm.Value))
	case 16:
		w.WriteU16(uint16(imm.Value))
	default:
		w.WriteU32(uint32(imm.Value))
	}
	return nil
}

// emitGroup1 encodes add/or/adc/sbb/and/sub/xor/cmp against an immediate
// (opcodes 0x80/0x81/0x83), preferring the compact imm8 form whenever the
// constant fits (spec.md §4.5).
func emitGroup1(w *buffer.Writer, instr x86.Instruction, selector byte) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires two operands", instr.Opcode.Mnemonic)
	}
	rm, imm := ops[0], ops[1]
	immVal, ok := imm.(x86.Immediate)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s: second operand must be an immediate", instr.Opcode.Mnemonic)
	}
	width := operandWidth(rm)
	if width == 8 {
		w.WriteByte(0x80)
		rex, err := encodeRM(w, selector, rm)
		if err != nil {
			return rexBits{}, err
		}
		w.WriteByte(byte(immVal.Value))
		return rex, nil
	}
	if immVal.FitsInt8() {
		w.WriteByte(0x83)
		rex, err := encodeRM(w, selector, rm)
		if err != nil {
			return rexBits{}, err
		}
		w.WriteByte(byte(int8(immVal.Value)))
		rex.w = width == 64
		return rex, nil
	}
	w.WriteByte(0x81)
	rex, err := encodeRM(w, selector, rm)
	if err != nil {
		return rexBits{}, err
	}
	if err := writeImmFor(w, immVal, width); err != nil {
		return rexBits{}, err
	}
	rex.w = width == 64
	return rex, nil
}

// operandWidth determines the bit width to encode an r/m operand at,
// preferring its register width, falling back to an IndirectOperand's
// PointerSize, and finally defaulting to 32 (the common case absent other
// evidence).
func operandWidth(op x86.Operand) int {
	if w := registerWidth(op); w != 0 {
		return w
	}
	if w := pointerSizeWidth(op); w != 0 {
		return w
	}
	return 32
}

func emitShift(w *buffer.Writer, instr x86.Instruction, selector byte) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires two operands", instr.Opcode.Mnemonic)
	}
	rm, count := ops[0], ops[1]
	width := operandWidth(rm)

	if reg, ok := count.(x86.Register); ok && reg.Kind == x86.GPR8Legacy && reg.Index == 1 {
		opc := byte(0xD3)
		if width == 8 {
			opc = 0xD2
		}
		w.WriteByte(opc)
		rex, err := encodeRM(w, selector, rm)
		if err != nil {
			return rexBits{}, err
		}
		rex.w = width == 64
		return rex, nil
	}
	imm, ok := count.(x86.Immediate)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "shift count must be cl or an immediate")
	}
	if imm.Value == 1 {
		opc := byte(0xD1)
		if width == 8 {
			opc = 0xD0
		}
		w.WriteByte(opc)
		rex, err := encodeRM(w, selector, rm)
		if err != nil {
			return rexBits{}, err
		}
		rex.w = width == 64
		return rex, nil
	}
	opc := byte(0xC1)
	if width == 8 {
		opc = 0xC0
	}
	w.WriteByte(opc)
	rex, err := encodeRM(w, selector, rm)
	if err != nil {
		return rexBits{}, err
	}
	w.WriteByte(byte(imm.Value))
	rex.w = width == 64
	return rex, nil
}

func emitMov(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "mov requires two operands")
	}
	op1, op2 := ops[0], ops[1]

	if reg1, ok := op1.(x86.Register); ok {
		if imm, ok := op2.(x86.Immediate); ok {
			width := reg1.Width()
			if width == 8 {
				w.WriteByte(0xB0 | (reg1.Index & 7))
				w.WriteByte(byte(imm.Value))
				return rexBits{b: reg1.Index >= 8}, nil
			}
			w.WriteByte(0xB8 | (reg1.Index & 7))
			rex := rexBits{b: reg1.Index >= 8, w: width == 64}
			if width == 64 {
				w.WriteU64(uint64(imm.Value))
			} else if width == 16 {
				w.WriteU16(uint16(imm.Value))
			} else {
				w.WriteU32(uint32(imm.Value))
			}
			return rex, nil
		}
		if reg2, ok := op2.(x86.Register); ok {
			// Ev,Gv / Eb,Gb: the form assemblers emit for register moves.
			width := reg2.Width()
			opc := byte(0x89)
			if width == 8 {
				opc = 0x88
			}
			w.WriteByte(opc)
			return encodeRM(w, reg2.Index, reg1)
		}
		// Gv,Ev / Gb,Eb (source is memory).
		width := reg1.Width()
		opc := byte(0x8B)
		if width == 8 {
			opc = 0x8A
		}
		w.WriteByte(opc)
		return encodeRM(w, reg1.Index, op2)
	}

	// Eb,Gb / Ev,Gv (destination is memory) or Eb,Ib / Ev,Iz.
	if reg2, ok := op2.(x86.Register); ok {
		width := reg2.Width()
		opc := byte(0x89)
		if width == 8 {
			opc = 0x88
		}
		w.WriteByte(opc)
		return encodeRM(w, reg2.Index, op1)
	}
	if imm, ok := op2.(x86.Immediate); ok {
		width := operandWidth(op1)
		if width == 8 {
			w.WriteByte(0xC6)
			rex, err := encodeRM(w, 0, op1)
			if err != nil {
				return rexBits{}, err
			}
			w.WriteByte(byte(imm.Value))
			return rex, nil
		}
		w.WriteByte(0xC7)
		rex, err := encodeRM(w, 0, op1)
		if err != nil {
			return rexBits{}, err
		}
		if err := writeImmFor(w, imm, width); err != nil {
			return rexBits{}, err
		}
		rex.w = width == 64
		return rex, nil
	}
	return rexBits{}, objerr.New(objerr.InvalidEncoding, "mov: unsupported operand shape")
}

func emitLea(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "lea requires two operands")
	}
	reg, ok := ops[0].(x86.Register)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "lea: destination must be a register")
	}
	mem, ok := ops[1].(x86.IndirectOperand)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "lea: source must be a memory operand")
	}
	w.WriteByte(0x8D)
	rex, err := encodeRM(w, reg.Index, mem)
	if err != nil {
		return rexBits{}, err
	}
	rex.w = reg.Width() == 64
	return rex, nil
}

func emitTest(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "test requires two operands")
	}
	rm, src := ops[0], ops[1]
	if reg, ok := src.(x86.Register); ok {
		width := reg.Width()
		opc := byte(0x85)
		if width == 8 {
			opc = 0x84
		}
		w.WriteByte(opc)
		return encodeRM(w, reg.Index, rm)
	}
	imm, ok := src.(x86.Immediate)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "test: unsupported operand shape")
	}
	width := operandWidth(rm)
	if reg, ok := rm.(x86.Register); ok && reg.Index == 0 {
		opc := byte(0xA9)
		if width == 8 {
			opc = 0xA8
		}
		w.WriteByte(opc)
		if err := writeImmFor(w, imm, width); err != nil {
			return rexBits{}, err
		}
		return rexBits{w: width == 64}, nil
	}
	opc := byte(0xF7)
	if width == 8 {
		opc = 0xF6
	}
	w.WriteByte(opc)
	rex, err := encodeRM(w, 0, rm)
	if err != nil {
		return rexBits{}, err
	}
	if err := writeImmFor(w, imm, width); err != nil {
		return rexBits{}, err
	}
	rex.w = width == 64
	return rex, nil
}

func emitXchg(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "xchg requires two operands")
	}
	op1, op2 := ops[0], ops[1]
	reg1, ok1 := op1.(x86.Register)
	reg2, ok2 := op2.(x86.Register)
	if ok1 && ok2 && reg1.Index == 0 && reg1.Width() != 8 {
		w.WriteByte(0x90 | (reg2.Index & 7))
		return rexBits{b: reg2.Index >= 8, w: reg2.Width() == 64}, nil
	}
	if ok1 {
		width := reg1.Width()
		opc := byte(0x87)
		if width == 8 {
			opc = 0x86
		}
		w.WriteByte(opc)
		return encodeRM(w, reg1.Index, op2)
	}
	if ok2 {
		width := reg2.Width()
		opc := byte(0x87)
		if width == 8 {
			opc = 0x86
		}
		w.WriteByte(opc)
		return encodeRM(w, reg2.Index, op1)
	}
	return rexBits{}, objerr.New(objerr.InvalidEncoding, "xchg: unsupported operand shape")
}

// group3Selector is the F6/F7 group's ModR/M reg-field selector for the
// unary forms (spec.md §4.4's group tables, inverted for encode).
var group3Selector = map[x86.Mnemonic]byte{
	"not": 2, "neg": 3, "mul": 4, "imul": 5, "div": 6, "idiv": 7,
}

func emitUnaryGroup3(w *buffer.Writer, instr x86.Instruction, mnemonic x86.Mnemonic) (rexBits, error) {
	// A two- or three-operand imul is the 0F AF / 69 / 6B form, not group3.
	if mnemonic == "imul" && len(instr.Operands()) != 1 {
		return emitImul(w, instr)
	}
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires one operand", mnemonic)
	}
	rm := ops[0]
	width := operandWidth(rm)
	selector := group3Selector[mnemonic]
	opc := byte(0xF7)
	if width == 8 {
		opc = 0xF6
	}
	w.WriteByte(opc)
	rex, err := encodeRM(w, selector, rm)
	if err != nil {
		return rexBits{}, err
	}
	rex.w = width == 64
	return rex, nil
}

func emitImul(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	switch len(ops) {
	case 2:
		reg, ok := ops[0].(x86.Register)
		if !ok {
			return rexBits{}, objerr.New(objerr.InvalidEncoding, "imul: destination must be a register")
		}
		w.WriteByte(0x0F)
		w.WriteByte(0xAF)
		rex, err := encodeRM(w, reg.Index, ops[1])
		if err != nil {
			return rexBits{}, err
		}
		rex.w = reg.Width() == 64
		return rex, nil
	case 3:
		reg, ok := ops[0].(x86.Register)
		if !ok {
			return rexBits{}, objerr.New(objerr.InvalidEncoding, "imul: destination must be a register")
		}
		imm, ok := ops[2].(x86.Immediate)
		if !ok {
			return rexBits{}, objerr.New(objerr.InvalidEncoding, "imul: third operand must be an immediate")
		}
		width := reg.Width()
		if imm.FitsInt8() {
			w.WriteByte(0x6B)
			rex, err := encodeRM(w, reg.Index, ops[1])
			if err != nil {
				return rexBits{}, err
			}
			w.WriteByte(byte(int8(imm.Value)))
			rex.w = width == 64
			return rex, nil
		}
		w.WriteByte(0x69)
		rex, err := encodeRM(w, reg.Index, ops[1])
		if err != nil {
			return rexBits{}, err
		}
		if err := writeImmFor(w, imm, width); err != nil {
			return rexBits{}, err
		}
		rex.w = width == 64
		return rex, nil
	default:
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "imul: unsupported arity %d", len(ops))
	}
}

func emitIncDec(w *buffer.Writer, instr x86.Instruction, mnemonic x86.Mnemonic) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires one operand", mnemonic)
	}
	rm := ops[0]
	width := operandWidth(rm)
	selector := byte(0)
	if mnemonic == "dec" {
		selector = 1
	}
	opc := byte(0xFF)
	if width == 8 {
		opc = 0xFE
	}
	w.WriteByte(opc)
	rex, err := encodeRM(w, selector, rm)
	if err != nil {
		return rexBits{}, err
	}
	rex.w = width == 64
	return rex, nil
}

func emitPush(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "push requires one operand")
	}
	switch v := ops[0].(type) {
	case x86.Register:
		w.WriteByte(0x50 | (v.Index & 7))
		return rexBits{b: v.Index >= 8}, nil
	case x86.Immediate:
		if v.FitsInt8() {
			w.WriteByte(0x6A)
			w.WriteByte(byte(int8(v.Value)))
		} else {
			w.WriteByte(0x68)
			w.WriteU32(uint32(v.Value))
		}
		return rexBits{}, nil
	case x86.IndirectOperand:
		w.WriteByte(0xFF)
		return encodeRM(w, 6, v)
	default:
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "push: unsupported operand shape")
	}
}

func emitPop(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "pop requires one operand")
	}
	switch v := ops[0].(type) {
	case x86.Register:
		w.WriteByte(0x58 | (v.Index & 7))
		return rexBits{b: v.Index >= 8}, nil
	case x86.IndirectOperand:
		w.WriteByte(0x8F)
		return encodeRM(w, 0, v)
	default:
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "pop: unsupported operand shape")
	}
}

// emitCallOrJmp handles the near forms of CALL/JMP. A jmp whose
// RelativeOffset has Width Imm8 uses the rel8 form (0xEB); every other
// relative target is written as rel32 after rel32Opcode (0xE8 call, 0xE9
// jmp). Register and memory targets use FF /2 (call) or FF /4 (jmp). The
// int parameter is unused.
func emitCallOrJmp(w *buffer.Writer, instr x86.Instruction, rel32Opcode byte, _ int) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires one operand", instr.Opcode.Mnemonic)
	}
	switch v := ops[0].(type) {
	case x86.RelativeOffset:
		if instr.Opcode.Mnemonic == "jmp" && v.Width == x86.Imm8 {
			w.WriteByte(0xEB)
			w.WriteByte(byte(int8(v.Value)))
			return rexBits{}, nil
		}
		w.WriteByte(rel32Opcode)
		w.WriteU32(uint32(v.Value))
		return rexBits{}, nil
	case x86.IndirectOperand, x86.Register:
		selector := byte(4)
		if instr.Opcode.Mnemonic == "call" {
			selector = 2
		}
		w.WriteByte(0xFF)
		return encodeRM(w, selector, v)
	default:
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s: unsupported operand shape", instr.Opcode.Mnemonic)
	}
}

func emitRet(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) == 0 {
		w.WriteByte(0xC3)
		return rexBits{}, nil
	}
	imm, ok := ops[0].(x86.Immediate)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "ret: operand must be an immediate")
	}
	w.WriteByte(0xC2)
	w.WriteU16(uint16(imm.Value))
	return rexBits{}, nil
}

func emitJcc(w *buffer.Writer, instr x86.Instruction, code byte) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 1 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires one operand", instr.Opcode.Mnemonic)
	}
	rel, ok := ops[0].(x86.RelativeOffset)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s: operand must be a relative offset", instr.Opcode.Mnemonic)
	}
	if rel.Width == x86.Imm8 {
		w.WriteByte(0x70 | code)
		w.WriteByte(byte(int8(rel.Value)))
		return rexBits{}, nil
	}
	w.WriteByte(0x0F)
	w.WriteByte(0x80 | code)
	w.WriteU32(uint32(rel.Value))
	return rexBits{}, nil
}

func emitCmpxchg(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "cmpxchg requires two operands")
	}
	reg, ok := ops[1].(x86.Register)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "cmpxchg: source must be a register")
	}
	width := reg.Width()
	w.WriteByte(0x0F)
	if width == 8 {
		w.WriteByte(0xB0)
	} else {
		w.WriteByte(0xB1)
	}
	rex, err := encodeRM(w, reg.Index, ops[0])
	if err != nil {
		return rexBits{}, err
	}
	rex.w = width == 64
	return rex, nil
}

func emitMovExtend(w *buffer.Writer, instr x86.Instruction, mnemonic x86.Mnemonic) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s requires two operands", mnemonic)
	}
	reg, ok := ops[0].(x86.Register)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "%s: destination must be a register", mnemonic)
	}
	srcWidth := operandWidth(ops[1])
	w.WriteByte(0x0F)
	base := byte(0xB6)
	if mnemonic == "movsx" {
		base = 0xBE
	}
	if srcWidth == 16 {
		base++
	}
	w.WriteByte(base)
	rex, err := encodeRM(w, reg.Index, ops[1])
	if err != nil {
		return rexBits{}, err
	}
	rex.w = reg.Width() == 64
	return rex, nil
}

func emitMovsxd(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "movsxd requires two operands")
	}
	reg, ok := ops[0].(x86.Register)
	if !ok {
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "movsxd: destination must be a register")
	}
	w.WriteByte(0x63)
	rex, err := encodeRM(w, reg.Index, ops[1])
	if err != nil {
		return rexBits{}, err
	}
	rex.w = reg.Width() == 64
	return rex, nil
}

func emitNop(w *buffer.Writer, instr x86.Instruction) (rexBits, error) {
	ops := instr.Operands()
	if len(ops) == 0 {
		w.WriteByte(0x90)
		return rexBits{}, nil
	}
	w.WriteByte(0x0F)
	w.WriteByte(0x1F)
	return encodeRM(w, 0, ops[0])
}
