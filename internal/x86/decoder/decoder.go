// Package decoder turns a raw x86-64 instruction byte stream into the
// internal/x86 Instruction model (spec.md §4.4): legacy prefixes, REX,
// opcode, ModR/M, SIB, displacement, and immediate, in that order.
package decoder

import (
	"github.com/xyproto/xdis/internal/objerr"
	"github.com/xyproto/xdis/internal/x86"
)

// decodeState tracks the in-progress decode of one instruction: the
// backing byte slice, the current read position, and everything the
// prefix/REX scan discovered before the opcode byte itself.
type decodeState struct {
	code   []byte
	pos    int
	legacy legacyPrefixes
	rex    rexPrefix
}

type rexPrefix struct {
	present bool
	w, r, x, b bool
}

type legacyPrefixes struct {
	lock, repne, repe bool
	segment           x86.Register
	opSizeOverride    bool
	addrSizeOverride  bool
}

func (ds *decodeState) remaining() int { return len(ds.code) - ds.pos }

func (ds *decodeState) readByte() (byte, error) {
	if ds.remaining() < 1 {
		return 0, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "instruction truncated: need 1 more byte")
	}
	b := ds.code[ds.pos]
	ds.pos++
	return b, nil
}

func (ds *decodeState) peekByte() (byte, bool) {
	if ds.remaining() < 1 {
		return 0, false
	}
	return ds.code[ds.pos], true
}

func (ds *decodeState) readBytes(n int) ([]byte, error) {
	if ds.remaining() < n {
		return nil, objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "instruction truncated: need %d more byte(s)", n)
	}
	b := ds.code[ds.pos : ds.pos+n]
	ds.pos += n
	return b, nil
}

func (ds *decodeState) readU16LE() (uint16, error) {
	b, err := ds.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (ds *decodeState) readU32LE() (uint32, error) {
	b, err := ds.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (ds *decodeState) readU64LE() (uint64, error) {
	b, err := ds.readBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func (ds *decodeState) readI8() (int8, error) {
	b, err := ds.readByte()
	return int8(b), err
}

func (ds *decodeState) readI32() (int32, error) {
	v, err := ds.readU32LE()
	return int32(v), err
}

// operandSize returns the effective operand size in bits: 64 under REX.W,
// 16 under the 0x66 override, 32 otherwise (spec.md §4.4 step 1).
func (ds *decodeState) operandSize() int {
	if ds.rex.w {
		return 64
	}
	if ds.legacy.opSizeOverride {
		return 16
	}
	return 32
}

// addressIs32 reports whether ModRM/SIB base and index registers should be
// read as 32-bit (0x67 override) rather than the 64-bit default.
func (ds *decodeState) addressIs32() bool {
	return ds.legacy.addrSizeOverride
}

// scanPrefixes consumes legacy prefix bytes followed by an optional single
// REX byte, per spec.md §4.4 step 1: "the REX byte, if present, is always
// the last prefix byte before the opcode."
func (ds *decodeState) scanPrefixes() error {
	ds.legacy.segment = x86.Null
	for {
		b, ok := ds.peekByte()
		if !ok {
			return objerr.NewAt(objerr.OutOfBounds, int64(ds.pos), "instruction truncated: no opcode byte")
		}
		switch b {
		case 0xF0:
			ds.legacy.lock = true
		case 0xF2:
			ds.legacy.repne = true
		case 0xF3:
			ds.legacy.repe = true
		case 0x2E:
			ds.legacy.segment = x86.SegmentReg(1) // cs
		case 0x36:
			ds.legacy.segment = x86.SegmentReg(2) // ss
		case 0x3E:
			ds.legacy.segment = x86.SegmentReg(3) // ds
		case 0x26:
			ds.legacy.segment = x86.SegmentReg(0) // es
		case 0x64:
			ds.legacy.segment = x86.SegmentReg(4) // fs
		case 0x65:
			ds.legacy.segment = x86.SegmentReg(5) // gs
		case 0x66:
			ds.legacy.opSizeOverride = true
		case 0x67:
			ds.legacy.addrSizeOverride = true
		default:
			if b >= 0x40 && b <= 0x4F {
				ds.rex = rexPrefix{
					present: true,
					w:       b&0x08 != 0,
					r:       b&0x04 != 0,
					x:       b&0x02 != 0,
					b:       b&0x01 != 0,
				}
				ds.pos++
			}
			return nil
		}
		ds.pos++
	}
}

func (ds *decodeState) prefixesModel() x86.Prefixes {
	return x86.Prefixes{
		Lock:                ds.legacy.lock,
		RepNE:               ds.legacy.repne,
		RepE:                ds.legacy.repe,
		Segment:             ds.legacy.segment,
		OperandSizeOverride: ds.legacy.opSizeOverride,
		AddressSizeOverride: ds.legacy.addrSizeOverride,
	}
}

// Decode decodes exactly one instruction from the start of code, returning
// it with Length set to the number of bytes consumed. Trailing bytes in
// code beyond the decoded instruction are ignored.
func Decode(code []byte) (x86.Instruction, error) {
	ds := &decodeState{code: code}
	if err := ds.scanPrefixes(); err != nil {
		return x86.Instruction{}, err
	}

	op, err := ds.readByte()
	if err != nil {
		return x86.Instruction{}, err
	}

	var instr x86.Instruction
	if op == 0x0F {
		instr, err = decodeTwoByte(ds)
	} else {
		handler := oneByteTable[op]
		if handler == nil {
			return x86.Instruction{}, objerr.NewAt(objerr.UnknownOpcode, int64(ds.pos-1), "unknown opcode byte %#02x", op)
		}
		instr, err = handler(ds)
	}
	if err != nil {
		return x86.Instruction{}, err
	}

	instr.Prefixes = ds.prefixesModel()
	instr.Length = ds.pos

	if err := x86.Validate(instr); err != nil {
		return x86.Instruction{}, err
	}
	return instr, nil
}
