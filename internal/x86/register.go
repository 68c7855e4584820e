// Package x86 holds the language-neutral x86-64 operand and instruction
// model (spec.md §3.3): Register, Immediate, IndirectOperand, Instruction.
// It owns no decode/encode logic — see internal/x86/decoder,
// internal/x86/encoder, internal/x86/intelsyntax for the codecs built on
// top of this model.
package x86

import "fmt"

// RegKind tags which register family a Register belongs to. Modeled as a
// closed sum type per spec.md §9 ("Ordered sum types over inheritance"),
// dispatched with exhaustive switches rather than a type hierarchy.
type RegKind int

const (
	GPR8Legacy RegKind = iota
	GPR8RexExtended
	GPR16
	GPR32Kind
	GPR64Kind
	Segment
	Control
	Debug
	MMX
	XMM
	YMM
	ZMM
	Mask
	RIP
	// NullRegister is the sentinel register for encodings whose textual
	// form omits a register slot (spec.md §9 "Sentinel registers") — a
	// dedicated variant rather than a nil/Optional reference.
	NullRegister
)

// Register is a tagged variant carrying its encoding index (0..N, ignored
// for RIP and NullRegister) and derived bit width.
type Register struct {
	Kind  RegKind
	Index uint8
}

// Null is the single NullRegister value.
var Null = Register{Kind: NullRegister}

// IsNull reports whether r is the sentinel NullRegister.
func (r Register) IsNull() bool { return r.Kind == NullRegister }

// Width returns the register's bit width, or 0 for NullRegister.
func (r Register) Width() int {
	switch r.Kind {
	case GPR8Legacy, GPR8RexExtended:
		return 8
	case GPR16:
		return 16
	case GPR32Kind:
		return 32
	case GPR64Kind, RIP:
		return 64
	case Segment:
		return 16
	case Control, Debug:
		return 64
	case MMX:
		return 64
	case XMM:
		return 128
	case YMM:
		return 256
	case ZMM:
		return 512
	case Mask:
		return 64
	default:
		return 0
	}
}

// gpr64Names is Register64.fromIndex(0..15) per spec.md §8 scenario 4:
// rax, rcx, rdx, rbx, rsp, rbp, rsi, rdi, r8..r15.
var gpr64Names = [16]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var gpr32Names = [16]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}

var gpr16Names = [16]string{
	"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
	"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
}

// gpr8LegacyNames is used when no REX prefix is present: indices 4-7 name
// the high-byte registers ah/ch/dh/bh rather than spl/bpl/sil/dil.
var gpr8LegacyNames = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

// gpr8RexNames is used whenever a REX prefix is present (even REX with all
// bits zero), per the x86-64 encoding rule that REX unlocks spl/bpl/sil/dil
// in place of ah/ch/dh/bh.
var gpr8RexNames = [16]string{
	"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
	"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
}

var segmentNames = [6]string{"es", "cs", "ss", "ds", "fs", "gs"}

// GPR64 constructs a 64-bit general-purpose register by encoding index.
func GPR64(idx uint8) Register { return Register{Kind: GPR64Kind, Index: idx} }

// GPR32 constructs a 32-bit general-purpose register by encoding index.
func GPR32(idx uint8) Register { return Register{Kind: GPR32Kind, Index: idx} }

// GPR16Reg constructs a 16-bit general-purpose register by encoding index.
func GPR16Reg(idx uint8) Register { return Register{Kind: GPR16, Index: idx} }

// GPR8 constructs an 8-bit register. hasRex selects the ah/ch/dh/bh-vs-
// spl/bpl/sil/dil naming rule and therefore the Kind tag.
func GPR8(idx uint8, hasRex bool) Register {
	if hasRex || idx >= 8 {
		return Register{Kind: GPR8RexExtended, Index: idx}
	}
	return Register{Kind: GPR8Legacy, Index: idx}
}

// SegmentReg constructs a segment register (0=es .. 5=gs).
func SegmentReg(idx uint8) Register { return Register{Kind: Segment, Index: idx} }

// XMMReg constructs an XMM register by encoding index (0..31).
func XMMReg(idx uint8) Register { return Register{Kind: XMM, Index: idx} }

// YMMReg constructs a YMM register by encoding index (0..31).
func YMMReg(idx uint8) Register { return Register{Kind: YMM, Index: idx} }

// ZMMReg constructs a ZMM register by encoding index (0..31).
func ZMMReg(idx uint8) Register { return Register{Kind: ZMM, Index: idx} }

// RIPReg is the singleton RIP pseudo-register used in RIP-relative memory
// operands.
var RIPReg = Register{Kind: RIP}

// Name renders the Intel mnemonic for r (rax, eax, ax, al, xmm3, ...).
func (r Register) Name() string {
	switch r.Kind {
	case GPR64Kind:
		return gpr64Names[r.Index&0xF]
	case GPR32Kind:
		return gpr32Names[r.Index&0xF]
	case GPR16:
		return gpr16Names[r.Index&0xF]
	case GPR8Legacy:
		return gpr8LegacyNames[r.Index&0x7]
	case GPR8RexExtended:
		return gpr8RexNames[r.Index&0xF]
	case Segment:
		return segmentNames[r.Index&0x7]
	case Control:
		return fmt.Sprintf("cr%d", r.Index)
	case Debug:
		return fmt.Sprintf("dr%d", r.Index)
	case MMX:
		return fmt.Sprintf("mm%d", r.Index)
	case XMM:
		return fmt.Sprintf("xmm%d", r.Index)
	case YMM:
		return fmt.Sprintf("ymm%d", r.Index)
	case ZMM:
		return fmt.Sprintf("zmm%d", r.Index)
	case Mask:
		return fmt.Sprintf("k%d", r.Index)
	case RIP:
		return "rip"
	case NullRegister:
		return ""
	default:
		return "?"
	}
}
