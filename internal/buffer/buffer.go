// Package buffer provides the sequential byte-buffer primitives every
// decoder in this module is built on: a cursor-based Reader over an
// immutable byte slice and a growable Writer, both with selectable
// endianness and alignment (spec.md §3.1, §4.1).
package buffer

import (
	"github.com/xyproto/xdis/internal/objerr"
)

// Endian selects which byte order multi-byte reads/writes use.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// Reader is an immutable byte sequence plus a mutable cursor, matching
// spec.md §3.1's "Read buffer". Endianness and alignment are per-instance
// state, never a global — see spec.md §9's endianness-toggle design note:
// callers needing a one-off little-endian read in a big-endian context use
// ReadU32LE rather than flipping r.endian and flipping it back.
type Reader struct {
	data      []byte
	cursor    int
	endian    Endian
	alignment int
}

// NewReader wraps data for sequential reading with the given endianness.
// Alignment starts at 1 (disabled); call SetAlignment to change it.
func NewReader(data []byte, endian Endian) *Reader {
	return &Reader{data: data, endian: endian, alignment: 1}
}

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.data) }

// Cursor returns the current read position.
func (r *Reader) Cursor() int { return r.cursor }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.cursor }

// Endianness returns the active endianness.
func (r *Reader) Endianness() Endian { return r.endian }

// SetEndianness changes the active endianness for subsequent reads. Bytes
// already consumed are unaffected (there is nothing to retroactively change
// since Reader never re-reads past bytes).
func (r *Reader) SetEndianness(e Endian) { r.endian = e }

// Alignment returns the active alignment, in bytes.
func (r *Reader) Alignment() int { return r.alignment }

// SetAlignment sets the alignment for subsequent structured reads. After
// SetAlignment(n), every read that follows starts at cursor mod n == 0;
// Align() performs the skip. n=1 disables alignment.
func (r *Reader) SetAlignment(n int) {
	if n < 1 {
		n = 1
	}
	r.alignment = n
}

// Align advances the cursor to the next multiple of the active alignment,
// per spec.md §3.1's invariant. It is called automatically before every
// structured read; exported so higher layers (e.g. the ELF symbol-table
// sub-parser switching to alignment 1 per spec.md §4.2 step 4) can force
// it explicitly too.
func (r *Reader) Align() {
	if r.alignment <= 1 {
		return
	}
	rem := r.cursor % r.alignment
	if rem != 0 {
		r.cursor += r.alignment - rem
	}
}

func (r *Reader) ensure(n int) error {
	if r.cursor < 0 || r.cursor+n > len(r.data) {
		return objerr.NewAt(objerr.OutOfBounds, int64(r.cursor), "need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// ReadByte consumes and returns one byte.
func (r *Reader) ReadByte() (byte, error) {
	r.Align()
	if err := r.ensure(1); err != nil {
		return 0, err
	}
	b := r.data[r.cursor]
	r.cursor++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if err := r.ensure(1); err != nil {
		return 0, err
	}
	return r.data[r.cursor], nil
}

// ReadU16 reads a 2-byte unsigned integer in the active endianness.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return assembleU16(b, r.endian), nil
}

// ReadU32 reads a 4-byte unsigned integer in the active endianness.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return assembleU32(b, r.endian), nil
}

// ReadU64 reads an 8-byte unsigned integer in the active endianness.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return assembleU64(b, r.endian), nil
}

// ReadU32LE reads a 4-byte little-endian integer regardless of the active
// endianness, without mutating Reader state — the explicit-variant
// replacement for a save/restore endianness toggle (spec.md §9, §4.1
// "read4LittleEndian").
func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return assembleU32(b, LittleEndian), nil
}

// ReadBytes consumes and returns the next n bytes verbatim.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.read(n)
}

func (r *Reader) read(n int) ([]byte, error) {
	r.Align()
	if err := r.ensure(n); err != nil {
		return nil, err
	}
	b := r.data[r.cursor : r.cursor+n]
	r.cursor += n
	return b, nil
}

// Seek moves the cursor to an absolute position.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return objerr.NewAt(objerr.OutOfBounds, int64(pos), "seek target out of range [0,%d]", len(r.data))
	}
	r.cursor = pos
	return nil
}

// Skip advances the cursor by n bytes (n may be negative).
func (r *Reader) Skip(n int) error {
	return r.Seek(r.cursor + n)
}

// GoBack decrements the cursor by n bytes; reading past the start signals
// OutOfBounds, per spec.md §4.1.
func (r *Reader) GoBack(n int) error {
	return r.Seek(r.cursor - n)
}

func assembleU16(b []byte, e Endian) uint16 {
	if e == LittleEndian {
		return uint16(b[0]) | uint16(b[1])<<8
	}
	return uint16(b[1]) | uint16(b[0])<<8
}

func assembleU32(b []byte, e Endian) uint32 {
	if e == LittleEndian {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func assembleU64(b []byte, e Endian) uint64 {
	if e == LittleEndian {
		var v uint64
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Writer is a growable byte sequence with the same endianness/alignment
// semantics as Reader, matching spec.md §3.1's "Write buffer".
type Writer struct {
	data      []byte
	endian    Endian
	alignment int
}

// NewWriter creates an empty Writer with the given endianness.
func NewWriter(endian Endian) *Writer {
	return &Writer{endian: endian, alignment: 1}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.data) }

// Endianness returns the active endianness.
func (w *Writer) Endianness() Endian { return w.endian }

// SetEndianness changes the active endianness for subsequent writes.
func (w *Writer) SetEndianness(e Endian) { w.endian = e }

// SetAlignment sets the alignment for subsequent structured writes; pad
// bytes are zero-filled, matching the Reader's skip-on-read symmetry.
func (w *Writer) SetAlignment(n int) {
	if n < 1 {
		n = 1
	}
	w.alignment = n
}

// Align pads with zero bytes up to the next alignment boundary.
func (w *Writer) Align() {
	if w.alignment <= 1 {
		return
	}
	rem := len(w.data) % w.alignment
	if rem != 0 {
		w.data = append(w.data, make([]byte, w.alignment-rem)...)
	}
}

// WriteByte appends one byte.
func (w *Writer) WriteByte(b byte) {
	w.Align()
	w.data = append(w.data, b)
}

// WriteBytes appends raw bytes verbatim (no alignment between them).
func (w *Writer) WriteBytes(b []byte) {
	w.Align()
	w.data = append(w.data, b...)
}

// WriteU16 appends a 2-byte unsigned integer in the active endianness.
func (w *Writer) WriteU16(v uint16) {
	w.Align()
	w.data = append(w.data, splitU16(v, w.endian)...)
}

// WriteU32 appends a 4-byte unsigned integer in the active endianness.
func (w *Writer) WriteU32(v uint32) {
	w.Align()
	w.data = append(w.data, splitU32(v, w.endian)...)
}

// WriteU64 appends an 8-byte unsigned integer in the active endianness.
func (w *Writer) WriteU64(v uint64) {
	w.Align()
	w.data = append(w.data, splitU64(v, w.endian)...)
}

// PadTo appends zero bytes until Len() reaches pos. It is a no-op (never
// truncates) if already at or past pos; used by the ELF writer to emit the
// zero padding between section payloads at their original file offsets.
func (w *Writer) PadTo(pos int) {
	for len(w.data) < pos {
		w.data = append(w.data, 0)
	}
}

// Bytes returns the final contiguous byte array.
func (w *Writer) Bytes() []byte {
	return w.data
}

func splitU16(v uint16, e Endian) []byte {
	if e == LittleEndian {
		return []byte{byte(v), byte(v >> 8)}
	}
	return []byte{byte(v >> 8), byte(v)}
}

func splitU32(v uint32, e Endian) []byte {
	if e == LittleEndian {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func splitU64(v uint64, e Endian) []byte {
	b := make([]byte, 8)
	if e == LittleEndian {
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> (8 * i))
		}
	} else {
		for i := 0; i < 8; i++ {
			b[7-i] = byte(v >> (8 * i))
		}
	}
	return b
}
