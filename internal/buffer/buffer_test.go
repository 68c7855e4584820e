package buffer

import (
	"testing"

	"github.com/xyproto/xdis/internal/objerr"
)

func TestReadWriteRoundTripLE(t *testing.T) {
	w := NewWriter(LittleEndian)
	w.WriteU16(0x1234)
	w.WriteU32(0x89ABCDEF)
	w.WriteU64(0x0123456789ABCDEF)

	r := NewReader(w.Bytes(), LittleEndian)
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadU16 = %#x, %v", u16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0x89ABCDEF {
		t.Fatalf("ReadU32 = %#x, %v", u32, err)
	}
	u64, err := r.ReadU64()
	if err != nil || u64 != 0x0123456789ABCDEF {
		t.Fatalf("ReadU64 = %#x, %v", u64, err)
	}
}

func TestReadWriteRoundTripBE(t *testing.T) {
	w := NewWriter(BigEndian)
	w.WriteU16(0x1234)
	w.WriteU32(0x89ABCDEF)

	r := NewReader(w.Bytes(), BigEndian)
	u16, _ := r.ReadU16()
	if u16 != 0x1234 {
		t.Fatalf("ReadU16 = %#x", u16)
	}
	u32, _ := r.ReadU32()
	if u32 != 0x89ABCDEF {
		t.Fatalf("ReadU32 = %#x", u32)
	}
}

func TestLittleEndianByteOrder(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04}, LittleEndian)
	v, _ := r.ReadU32()
	if v != 0x04030201 {
		t.Fatalf("got %#x, want 0x04030201", v)
	}
}

func TestBigEndianByteOrder(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04}, BigEndian)
	v, _ := r.ReadU32()
	if v != 0x01020304 {
		t.Fatalf("got %#x, want 0x01020304", v)
	}
}

func TestReadU32LEDoesNotStickyToggleEndianness(t *testing.T) {
	r := NewReader([]byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, BigEndian)
	v, err := r.ReadU32LE()
	if err != nil || v != 1 {
		t.Fatalf("ReadU32LE = %#x, %v", v, err)
	}
	if r.Endianness() != BigEndian {
		t.Fatalf("endianness changed to %v after ReadU32LE", r.Endianness())
	}
	// Subsequent read still uses the big-endian context.
	v2, _ := r.ReadU32()
	if v2 != 0x01000000 {
		t.Fatalf("got %#x, want 0x01000000 (still big-endian)", v2)
	}
}

func TestAlignment(t *testing.T) {
	r := NewReader([]byte{0xAA, 0, 0, 0, 0xBB}, LittleEndian)
	r.SetAlignment(4)
	b, err := r.ReadByte()
	if err != nil || b != 0xAA {
		t.Fatalf("first byte = %#x, %v", b, err)
	}
	// cursor is now 1; alignment 4 means next read skips to offset 4.
	b2, err := r.ReadByte()
	if err != nil || b2 != 0xBB {
		t.Fatalf("second byte = %#x, %v, want 0xBB at aligned offset", b2, err)
	}
}

func TestAlignmentDisabledWhenOne(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03}, LittleEndian)
	r.SetAlignment(1)
	b1, _ := r.ReadByte()
	b2, _ := r.ReadByte()
	if b1 != 0x01 || b2 != 0x02 {
		t.Fatalf("got %#x %#x, want sequential bytes with no padding", b1, b2)
	}
}

func TestWriterPadsToAlignment(t *testing.T) {
	w := NewWriter(LittleEndian)
	w.SetAlignment(4)
	w.WriteByte(0xAA)
	w.WriteByte(0xBB)
	if w.Bytes()[0] != 0xAA {
		t.Fatalf("first byte wrong")
	}
	// second WriteByte should have padded to offset 4 first
	if len(w.Bytes()) != 5 {
		t.Fatalf("len = %d, want 5 (1 + 3 pad + 1)", len(w.Bytes()))
	}
	if w.Bytes()[4] != 0xBB {
		t.Fatalf("second byte at wrong offset: %v", w.Bytes())
	}
}

func TestOutOfBounds(t *testing.T) {
	r := NewReader([]byte{0x01}, LittleEndian)
	_, err := r.ReadU32()
	if !objerr.Is(err, objerr.OutOfBounds) {
		t.Fatalf("err = %v, want OutOfBounds", err)
	}
}

func TestGoBack(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03}, LittleEndian)
	r.ReadByte()
	r.ReadByte()
	if err := r.GoBack(1); err != nil {
		t.Fatalf("GoBack: %v", err)
	}
	b, _ := r.ReadByte()
	if b != 0x02 {
		t.Fatalf("after GoBack, got %#x, want 0x02", b)
	}
	if err := r.GoBack(100); !objerr.Is(err, objerr.OutOfBounds) {
		t.Fatalf("GoBack past start: err = %v, want OutOfBounds", err)
	}
}

func TestPadTo(t *testing.T) {
	w := NewWriter(LittleEndian)
	w.WriteByte(1)
	w.PadTo(4)
	if len(w.Bytes()) != 4 {
		t.Fatalf("len = %d, want 4", len(w.Bytes()))
	}
	for _, b := range w.Bytes()[1:] {
		if b != 0 {
			t.Fatalf("padding not zero: %v", w.Bytes())
		}
	}
}
