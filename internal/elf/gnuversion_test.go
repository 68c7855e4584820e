package elf

import (
	"testing"

	"github.com/xyproto/xdis/internal/buffer"
)

func TestGnuVersionSymRoundTrip(t *testing.T) {
	v := GnuVersionSym{Indices: []uint16{0, 1, 2, 0x8002}}
	raw := writeGnuVersionSym(v, buffer.LittleEndian)
	got, err := parseGnuVersionSym(raw, buffer.LittleEndian)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Indices) != 4 || got.Indices[3] != 0x8002 {
		t.Fatalf("mismatch: %+v", got.Indices)
	}
}

func TestGnuVersionSymSizeValidation(t *testing.T) {
	_, err := parseGnuVersionSym([]byte{1, 2, 3}, buffer.LittleEndian)
	if err == nil {
		t.Fatal("expected error for odd-length versym section")
	}
}

// buildVerneedRecord hand-assembles a single Elf64_Verneed with one aux
// entry, the minimal shape a SHT_GNU_verneed section holds.
func buildVerneedRecord(fileOff, auxNameOff uint32) []byte {
	buf := make([]byte, 16+16)
	put16 := func(off int, v uint16) {
		buf[off], buf[off+1] = byte(v), byte(v>>8)
	}
	put32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	put16(0, 1)          // vn_version
	put16(2, 1)           // vn_cnt
	put32(4, fileOff)     // vn_file
	put32(8, 16)          // vn_aux (offset to the aux record, right after this header)
	put32(12, 0)          // vn_next (no more records)
	// vernaux at offset 16
	put32(16, 0xdeadbeef) // vna_hash
	put16(20, 0)          // vna_flags
	put16(22, 1)          // vna_other
	put32(24, auxNameOff) // vna_name
	put32(28, 0)          // vna_next
	return buf
}

func TestGnuVersionNeedParse(t *testing.T) {
	strtab := append([]byte{0}, []byte("libc.so.6\x00GLIBC_2.2.5\x00")...)
	raw := buildVerneedRecord(1, 11)
	got, err := parseGnuVersionNeed(raw, buffer.LittleEndian, strtab)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 verneed entry, got %d", len(got.Entries))
	}
	e := got.Entries[0]
	if e.File != "libc.so.6" {
		t.Fatalf("expected file libc.so.6, got %q", e.File)
	}
	if len(e.Aux) != 1 || e.Aux[0].Name != "GLIBC_2.2.5" {
		t.Fatalf("expected aux GLIBC_2.2.5, got %+v", e.Aux)
	}
}
