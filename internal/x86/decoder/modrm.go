package decoder

import (
	"github.com/xyproto/xdis/internal/bitutil"
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// modrm is the raw result of decoding a ModR/M byte (plus any trailing SIB
// and displacement bytes): the reg field (already extended by REX.R) and
// either a direct register index (mod==3) or a fully-built memory operand.
type modrm struct {
	regIndex   uint8
	isMemory   bool
	rmRegIndex uint8
	mem        x86.IndirectOperand
}

// decodeModRM reads the ModR/M byte and, when mod != 3, the SIB and
// displacement bytes that follow it (spec.md §4.4 steps 4-6). The bit
// extraction mirrors spec.md §8's ModR/M scenario: mod = bits[7:6],
// reg = bits[5:3], rm = bits[2:0].
func decodeModRM(ds *decodeState) (modrm, error) {
	b, err := ds.readByte()
	if err != nil {
		return modrm{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated ModR/M byte: %v", err)
	}
	mod := bitutil.Field(b, 7, 6)
	regField := bitutil.Field(b, 5, 3)
	rmField := bitutil.Field(b, 2, 0)

	reg := regField
	if ds.rex.r {
		reg |= 0x08
	}

	if mod == 3 {
		rm := rmField
		if ds.rex.b {
			rm |= 0x08
		}
		return modrm{regIndex: reg, isMemory: false, rmRegIndex: rm}, nil
	}

	mem, err := ds.decodeMemoryOperand(mod, rmField)
	if err != nil {
		return modrm{}, err
	}
	return modrm{regIndex: reg, isMemory: true, mem: mem}, nil
}

// decodeMemoryOperand handles the mod in {0,1,2} cases: a SIB byte when
// rm==4, RIP-relative addressing when mod==0 && rm==5, and the plain
// [base(+disp)] forms otherwise.
func (ds *decodeState) decodeMemoryOperand(mod, rmField byte) (x86.IndirectOperand, error) {
	b := x86.NewIndirectOperandBuilder()

	if rmField == 4 {
		sib, err := ds.readByte()
		if err != nil {
			return x86.IndirectOperand{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated SIB byte: %v", err)
		}
		scaleField := bitutil.Field(sib, 7, 6)
		indexField := bitutil.Field(sib, 5, 3)
		baseField := bitutil.Field(sib, 2, 0)

		index := indexField
		if ds.rex.x {
			index |= 0x08
		}
		base := baseField
		if ds.rex.b {
			base |= 0x08
		}

		if index != 4 { // index==0b100 (unextended) means "no index"
			b = b.Index(ds.addrRegister(index)).Scale(1 << scaleField)
		}

		if mod == 0 && baseField == 5 {
			// No base register; a disp32 follows (possibly with an index).
			disp, err := ds.readI32()
			if err != nil {
				return x86.IndirectOperand{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated SIB disp32: %v", err)
			}
			return b.Displacement(disp, false).Finalize()
		}
		b = b.Base(ds.addrRegister(base))
	} else if mod == 0 && rmField == 5 {
		// RIP-relative: disp32 relative to the address of the next
		// instruction.
		disp, err := ds.readI32()
		if err != nil {
			return x86.IndirectOperand{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated RIP-relative disp32: %v", err)
		}
		return b.Base(x86.RIPReg).Displacement(disp, false).Finalize()
	} else {
		rm := rmField
		if ds.rex.b {
			rm |= 0x08
		}
		b = b.Base(ds.addrRegister(rm))
	}

	switch mod {
	case 0:
		// No displacement, unless the comment above already consumed one.
	case 1:
		disp, err := ds.readI8()
		if err != nil {
			return x86.IndirectOperand{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated disp8: %v", err)
		}
		b = b.Displacement(int32(disp), true)
	case 2:
		disp, err := ds.readI32()
		if err != nil {
			return x86.IndirectOperand{}, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "truncated disp32: %v", err)
		}
		b = b.Displacement(disp, false)
	}
	return b.Finalize()
}

// addrRegister builds the GPR used in a memory operand's base/index slot,
// sized by the effective address size (spec.md §4.4's 0x67 handling).
func (ds *decodeState) addrRegister(index uint8) x86.Register {
	if ds.addressIs32() {
		return x86.GPR32(index)
	}
	return x86.GPR64(index)
}

// gpRegister builds a general-purpose register operand of the given bit
// width, honoring the REX-present rule that flips the 8-bit register
// naming from ah/ch/dh/bh to spl/bpl/sil/dil (spec.md §3.3).
func (ds *decodeState) gpRegister(index uint8, size int) x86.Register {
	switch size {
	case 8:
		return x86.GPR8(index, ds.rex.present)
	case 16:
		return x86.GPR16Reg(index)
	case 64:
		return x86.GPR64(index)
	default:
		return x86.GPR32(index)
	}
}

// pointerSizeFor maps an effective operand size to the Intel-syntax
// pointer-size annotation a memory operand needs (spec.md §3.3, §4.6).
func pointerSizeFor(size int) x86.PointerSize {
	switch size {
	case 8:
		return x86.BytePtr
	case 16:
		return x86.WordPtr
	case 64:
		return x86.QwordPtr
	default:
		return x86.DwordPtr
	}
}

// withPointerSize returns op unchanged if it is a register, or a copy with
// PointerSize set if it is a memory operand — memory operands need an
// explicit size annotation since Intel syntax can't infer it from a bare
// register-less operand (spec.md §3.3).
func withPointerSize(op x86.Operand, size int) x86.Operand {
	if mem, ok := op.(x86.IndirectOperand); ok {
		mem.PointerSize = pointerSizeFor(size)
		return mem
	}
	return op
}

// rmOperand converts a decoded modrm's rm slot into an Operand, sized by
// size when it turns out to be a direct register.
func rmOperand(m modrm, ds *decodeState, size int) x86.Operand {
	if m.isMemory {
		return withPointerSize(m.mem, size)
	}
	return ds.gpRegister(m.rmRegIndex, size)
}
