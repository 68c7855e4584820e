package encoder

import (
	"github.com/xyproto/xdis/internal/bitutil"
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// rexBits accumulates the W/R/X/B bits this encode needs; needsRex decides
// whether a REX byte is actually required (spec.md §4.5 "select REX prefix
// only when necessary").
type rexBits struct {
	w, r, x, b bool
}

func (a rexBits) merge(b rexBits) rexBits {
	return rexBits{w: a.w || b.w, r: a.r || b.r, x: a.x || b.x, b: a.b || b.b}
}

func (r rexBits) any() bool { return r.w || r.r || r.x || r.b }

func (r rexBits) byteValue() byte {
	var b byte = 0x40
	if r.w {
		b |= 0x08
	}
	if r.r {
		b |= 0x04
	}
	if r.x {
		b |= 0x02
	}
	if r.b {
		b |= 0x01
	}
	return b
}

// needsRexForLowByte reports whether a register operand forces REX even
// with all bits zero: the encoding-4..7 byte registers spl/bpl/sil/dil are
// only reachable when a REX prefix is present (spec.md §4.5).
func needsRexForLowByte(op x86.Operand) bool {
	r, ok := op.(x86.Register)
	if !ok {
		return false
	}
	return r.Kind == x86.GPR8RexExtended && r.Index >= 4 && r.Index < 8
}

// encodeRM writes a ModR/M byte (and, for memory operands, the SIB and
// displacement bytes that follow it) encoding regField as the reg slot and
// rm as the rm slot. regField may be a full 0-15 register index (its top
// bit becomes REX.R) or a 0-7 opcode-group selector (never sets REX.R).
func encodeRM(w *buffer.Writer, regField uint8, rm x86.Operand) (rexBits, error) {
	rex := rexBits{r: regField >= 8}
	regLow := regField & 7

	switch v := rm.(type) {
	case x86.Register:
		rex.b = v.Index >= 8
		w.WriteByte(0xC0 | regLow<<3 | (v.Index & 7))
		return rex, nil
	case x86.IndirectOperand:
		memRex, err := encodeMemoryOperand(w, regLow, v)
		if err != nil {
			return rexBits{}, err
		}
		return rex.merge(memRex), nil
	default:
		return rexBits{}, objerr.New(objerr.InvalidEncoding, "operand kind %T cannot appear in an r/m slot", rm)
	}
}

// encodeMemoryOperand writes the ModR/M (with regLow as its reg field),
// optional SIB, and displacement bytes for mem, per the canonicalization
// rules in spec.md §4.5: SIB only when required (index present, no base,
// or base would alias the SIB-escape rm value 4), and the shortest
// displacement encoding that represents the value exactly, with the
// explicit disp8=0 special case for a bare [rbp]/[r13].
func encodeMemoryOperand(w *buffer.Writer, regLow uint8, mem x86.IndirectOperand) (rexBits, error) {
	var rex rexBits

	if mem.Base.Kind == x86.RIP {
		w.WriteByte(0x00 | regLow<<3 | 0x05)
		disp := mem.Displacement
		w.WriteU32(uint32(disp))
		return rex, nil
	}

	needSIB := !mem.Index.IsNull() || mem.Base.IsNull() || (mem.Base.Index&7) == 4
	if needSIB {
		var scaleField byte
		var indexField byte = 4
		if !mem.Index.IsNull() {
			if mem.Scale == 0 || !bitutil.IsPowerOfTwo(mem.Scale) {
				return rexBits{}, objerr.New(objerr.InvalidEncoding, "SIB index present with invalid scale %d", mem.Scale)
			}
			scaleField = log2Scale(mem.Scale)
			indexField = mem.Index.Index & 7
			rex.x = mem.Index.Index >= 8
		}

		var baseField byte
		var mod byte
		var dispBytes []byte
		noBase := mem.Base.IsNull()
		if noBase {
			baseField = 5
			mod = 0
			dispBytes = u32le(uint32(mem.Displacement))
		} else {
			baseField = mem.Base.Index & 7
			rex.b = mem.Base.Index >= 8
			mod, dispBytes = dispForBase(baseField, mem)
		}

		w.WriteByte(mod | regLow<<3 | 0x04)
		w.WriteByte(scaleField<<6 | indexField<<3 | baseField)
		w.WriteBytes(dispBytes)
		return rex, nil
	}

	baseField := mem.Base.Index & 7
	rex.b = mem.Base.Index >= 8
	mod, dispBytes := dispForBase(baseField, mem)
	w.WriteByte(mod | regLow<<3 | baseField)
	w.WriteBytes(dispBytes)
	return rex, nil
}

// dispForBase picks the shortest displacement encoding for a base-relative
// memory operand, forcing an explicit disp8=0 when baseField is 5 (rbp/
// r13), since mod=0 with that rm/base value means "no base, disp32" rather
// than "[rbp]"/"[r13]" (spec.md §4.5, §9).
func dispForBase(baseField byte, mem x86.IndirectOperand) (mod byte, disp []byte) {
	if !mem.HasDisplacement || mem.Displacement == 0 {
		if baseField == 5 {
			return 0x40, []byte{0x00}
		}
		return 0x00, nil
	}
	if mem.Displacement >= -128 && mem.Displacement <= 127 {
		return 0x40, []byte{byte(int8(mem.Displacement))}
	}
	return 0x80, u32le(uint32(mem.Displacement))
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func log2Scale(s uint8) byte {
	switch s {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

// registerWidth returns op's bit width when it is a Register, or 0 for any
// other operand kind (the encoder falls back to the memory operand's
// PointerSize, or to mnemonic-specific defaults, when no register operand
// is present to infer width from).
func registerWidth(op x86.Operand) int {
	if r, ok := op.(x86.Register); ok {
		return r.Width()
	}
	return 0
}

// pointerSizeWidth maps an IndirectOperand's PointerSize back to a bit
// width, or 0 if unset.
func pointerSizeWidth(op x86.Operand) int {
	mem, ok := op.(x86.IndirectOperand)
	if !ok {
		return 0
	}
	switch mem.PointerSize {
	case x86.BytePtr:
		return 8
	case x86.WordPtr:
		return 16
	case x86.QwordPtr:
		return 64
	case x86.DwordPtr:
		return 32
	default:
		return 0
	}
}
