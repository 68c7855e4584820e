package x86

import "github.com/xyproto/xdis/internal/objerr"

// PointerSize names the size annotation Intel syntax requires on memory
// operands (spec.md §3.3).
type PointerSize int

const (
	NoPointerSize PointerSize = iota
	BytePtr
	WordPtr
	DwordPtr
	QwordPtr
	TbytePtr
	XmmwordPtr
	YmmwordPtr
	ZmmwordPtr
)

func (p PointerSize) String() string {
	switch p {
	case BytePtr:
		return "BYTE PTR"
	case WordPtr:
		return "WORD PTR"
	case DwordPtr:
		return "DWORD PTR"
	case QwordPtr:
		return "QWORD PTR"
	case TbytePtr:
		return "TBYTE PTR"
	case XmmwordPtr:
		return "XMMWORD PTR"
	case YmmwordPtr:
		return "YMMWORD PTR"
	case ZmmwordPtr:
		return "ZMMWORD PTR"
	default:
		return ""
	}
}

// IndirectOperand is a memory operand (spec.md §3.3). Scale of 0 means
// "absent" (no index register); when non-zero it must be a power of two.
type IndirectOperand struct {
	Base            Register // Null if absent
	Index           Register // Null if absent
	Scale           uint8    // 0, 1, 2, 4, or 8
	HasDisplacement bool
	Displacement    int32 // valid range depends on Disp8Bit
	Disp8Bit        bool  // true if the source encoding used a disp8
	SegmentOverride Register
	PointerSize     PointerSize
}

// IndirectOperandBuilder accumulates IndirectOperand fields one at a time
// and validates them in a single Finalize() pass, per spec.md §9's design
// note ("Builder with accumulated invariants"): each field may be set at
// most once, and Scale must be zero or a power of two.
type IndirectOperandBuilder struct {
	op       IndirectOperand
	baseSet  bool
	idxSet   bool
	scaleSet bool
	dispSet  bool
	segSet   bool
	sizeSet  bool
	err      error
}

// NewIndirectOperandBuilder returns an empty builder.
func NewIndirectOperandBuilder() *IndirectOperandBuilder {
	return &IndirectOperandBuilder{op: IndirectOperand{Base: Null, Index: Null, SegmentOverride: Null}}
}

func (b *IndirectOperandBuilder) fail(msg string) {
	if b.err == nil {
		b.err = objerr.New(objerr.InvalidArgument, "%s", msg)
	}
}

// Base sets the base register. May be called at most once.
func (b *IndirectOperandBuilder) Base(r Register) *IndirectOperandBuilder {
	if b.baseSet {
		b.fail("base set twice")
		return b
	}
	b.baseSet = true
	b.op.Base = r
	return b
}

// Index sets the index register. May be called at most once.
func (b *IndirectOperandBuilder) Index(r Register) *IndirectOperandBuilder {
	if b.idxSet {
		b.fail("index set twice")
		return b
	}
	b.idxSet = true
	b.op.Index = r
	return b
}

// Scale sets the scale factor (must be 1, 2, 4, or 8). May be called at
// most once.
func (b *IndirectOperandBuilder) Scale(s uint8) *IndirectOperandBuilder {
	if b.scaleSet {
		b.fail("scale set twice")
		return b
	}
	b.scaleSet = true
	b.op.Scale = s
	return b
}

// Displacement sets a signed displacement. disp8 records whether the
// source encoding was a one-byte displacement; the encoder does not consult
// it and always picks the shortest width that holds the value (spec.md
// §4.5 "shortest displacement encoding").
func (b *IndirectOperandBuilder) Displacement(v int32, disp8 bool) *IndirectOperandBuilder {
	if b.dispSet {
		b.fail("displacement set twice")
		return b
	}
	b.dispSet = true
	b.op.HasDisplacement = true
	b.op.Displacement = v
	b.op.Disp8Bit = disp8
	return b
}

// SegmentOverride sets the segment-override register.
func (b *IndirectOperandBuilder) SegmentOverride(r Register) *IndirectOperandBuilder {
	if b.segSet {
		b.fail("segment override set twice")
		return b
	}
	b.segSet = true
	b.op.SegmentOverride = r
	return b
}

// PointerSize sets the rendered pointer size.
func (b *IndirectOperandBuilder) PointerSize(p PointerSize) *IndirectOperandBuilder {
	if b.sizeSet {
		b.fail("pointer size set twice")
		return b
	}
	b.sizeSet = true
	b.op.PointerSize = p
	return b
}

// Finalize validates the accumulated fields in one pass and returns the
// built IndirectOperand.
func (b *IndirectOperandBuilder) Finalize() (IndirectOperand, error) {
	if b.err != nil {
		return IndirectOperand{}, b.err
	}
	if b.op.Scale != 0 && !isPowerOfTwoScale(b.op.Scale) {
		return IndirectOperand{}, objerr.New(objerr.InvalidArgument, "scale %d is not 0 or a power of two", b.op.Scale)
	}
	if !b.op.Index.IsNull() && b.op.Index.Kind == GPR64Kind && b.op.Index.Index == 4 {
		// RSP (encoding 4) can never be a SIB index, with or without REX.X,
		// since an index field of 0b100 after extension means "no index".
		return IndirectOperand{}, objerr.New(objerr.InvalidArgument, "rsp cannot be used as a SIB index")
	}
	return b.op, nil
}

func isPowerOfTwoScale(s uint8) bool {
	switch s {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// RelativeOffset is a signed branch-target displacement relative to the
// address of the instruction following it (rel8 or rel32 forms of
// Jcc/JMP/CALL).
type RelativeOffset struct {
	Width ImmWidth // Imm8 or Imm32
	Value int32
}
