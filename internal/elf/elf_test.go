package elf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildMinimalELF64 assembles a tiny well-formed ELF64 relocatable object by
// hand: a NULL section and a .shstrtab section holding just its own name.
// It exists purely so Parse/Write round-trip behavior can be exercised
// without a real system binary on disk.
func buildMinimalELF64(t *testing.T) []byte {
	t.Helper()

	const ehsize = 64
	shstrtabData := append([]byte{0}, []byte(".shstrtab\x00")...)
	dataOffset := ehsize
	shoff := dataOffset + len(shstrtabData)
	// Pad the section header table start up to an 8-byte boundary.
	if rem := shoff % 8; rem != 0 {
		shoff += 8 - rem
	}

	buf := make([]byte, shoff+2*64)

	copy(buf[0:4], []byte{0x7F, 'E', 'L', 'F'})
	buf[4] = byte(Class64)
	buf[5] = byte(DataLSB)
	buf[6] = 1 // EI_VERSION

	le := binary.LittleEndian
	le.PutUint16(buf[16:18], uint16(ETRel))
	le.PutUint16(buf[18:20], uint16(EMX8664))
	le.PutUint32(buf[20:24], 1) // e_version
	// e_entry, e_phoff stay zero (no program headers in a relocatable object)
	le.PutUint64(buf[40:48], uint64(shoff)) // e_shoff
	le.PutUint16(buf[52:54], ehsize)        // e_ehsize
	le.PutUint16(buf[54:56], 0)             // e_phentsize
	le.PutUint16(buf[56:58], 0)             // e_phnum
	le.PutUint16(buf[58:60], 64)            // e_shentsize
	le.PutUint16(buf[60:62], 2)             // e_shnum
	le.PutUint16(buf[62:64], 1)             // e_shstrndx

	copy(buf[dataOffset:], shstrtabData)

	// Section 0: SHT_NULL, already all zero.
	sh1 := buf[shoff+64 : shoff+128]
	le.PutUint32(sh1[0:4], 1) // sh_name: offset of ".shstrtab" within the table
	le.PutUint32(sh1[4:8], uint32(SHTStrTab))
	le.PutUint64(sh1[24:32], uint64(dataOffset))
	le.PutUint64(sh1[32:40], uint64(len(shstrtabData)))
	le.PutUint64(sh1[48:56], 1) // sh_addralign

	return buf
}

func TestParseMinimalELF64(t *testing.T) {
	raw := buildMinimalELF64(t)
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Header.Class != Class64 || e.Header.Machine != EMX8664 || e.Header.Type != ETRel {
		t.Fatalf("header mismatch: %+v", e.Header)
	}
	if len(e.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(e.Sections))
	}
	shstrtab := e.Sections[1]
	if shstrtab.Name != ".shstrtab" {
		t.Fatalf("expected section 1 named .shstrtab, got %q", shstrtab.Name)
	}
	if _, ok := shstrtab.Payload.(StringTable); !ok {
		t.Fatalf("expected StringTable payload, got %T", shstrtab.Payload)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	raw := buildMinimalELF64(t)
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Write(e)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(raw, out) {
		t.Fatalf("round-trip mismatch:\norig: % x\n out: % x", raw, out)
	}
}

// buildELF64WithProgramHeaders mirrors the layout of a real executable
// (e.g. /usr/bin/cat): e_phoff is a low offset landing right after the file
// header, well *before* the section payloads and section header table that
// follow it in the file. This is the shape that exposed the Write bug where
// the program header table was appended unconditionally last instead of
// placed at e_phoff.
func buildELF64WithProgramHeaders(t *testing.T) []byte {
	t.Helper()

	const ehsize = 64
	const phentsize = 56
	const phnum = 1
	phoff := ehsize
	dataOffset := phoff + phnum*phentsize
	shstrtabData := append([]byte{0}, []byte(".shstrtab\x00")...)
	shoff := dataOffset + len(shstrtabData)
	if rem := shoff % 8; rem != 0 {
		shoff += 8 - rem
	}

	buf := make([]byte, shoff+2*64)

	copy(buf[0:4], []byte{0x7F, 'E', 'L', 'F'})
	buf[4] = byte(Class64)
	buf[5] = byte(DataLSB)
	buf[6] = 1 // EI_VERSION

	le := binary.LittleEndian
	le.PutUint16(buf[16:18], uint16(ETExec))
	le.PutUint16(buf[18:20], uint16(EMX8664))
	le.PutUint32(buf[20:24], 1)              // e_version
	le.PutUint64(buf[32:40], uint64(phoff))  // e_phoff
	le.PutUint64(buf[40:48], uint64(shoff))  // e_shoff
	le.PutUint16(buf[52:54], ehsize)         // e_ehsize
	le.PutUint16(buf[54:56], phentsize)      // e_phentsize
	le.PutUint16(buf[56:58], phnum)          // e_phnum
	le.PutUint16(buf[58:60], 64)             // e_shentsize
	le.PutUint16(buf[60:62], 2)              // e_shnum
	le.PutUint16(buf[62:64], 1)              // e_shstrndx

	// Program header 0: PT_LOAD covering the file header + this table.
	ph := buf[phoff : phoff+phentsize]
	le.PutUint32(ph[0:4], uint32(PTLoad))
	le.PutUint32(ph[4:8], 4) // p_flags = PF_R
	le.PutUint64(ph[8:16], 0)
	le.PutUint64(ph[16:24], 0)
	le.PutUint64(ph[24:32], 0)
	le.PutUint64(ph[32:40], uint64(dataOffset))
	le.PutUint64(ph[40:48], uint64(dataOffset))
	le.PutUint64(ph[48:56], 8)

	copy(buf[dataOffset:], shstrtabData)

	sh1 := buf[shoff+64 : shoff+128]
	le.PutUint32(sh1[0:4], 1)
	le.PutUint32(sh1[4:8], uint32(SHTStrTab))
	le.PutUint64(sh1[24:32], uint64(dataOffset))
	le.PutUint64(sh1[32:40], uint64(len(shstrtabData)))
	le.PutUint64(sh1[48:56], 1)

	return buf
}

// TestWriteParseRoundTripWithProgramHeaders is the regression case for the
// Write bug where a non-empty program header table at a low e_phoff (the
// common case for every real executable/shared object) was zero-padded
// over by the first section's PadTo and the actual program header bytes
// were appended past the end of the file instead.
func TestWriteParseRoundTripWithProgramHeaders(t *testing.T) {
	raw := buildELF64WithProgramHeaders(t)
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(e.ProgramHeaders) != 1 {
		t.Fatalf("expected 1 program header, got %d", len(e.ProgramHeaders))
	}
	out, err := Write(e)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(out) != len(raw) {
		t.Fatalf("length mismatch: got %d bytes, want %d (program headers must not be appended past EOF)", len(out), len(raw))
	}
	if !bytes.Equal(raw, out) {
		t.Fatalf("round-trip mismatch:\norig: % x\n out: % x", raw, out)
	}
}

func TestSectionLookup(t *testing.T) {
	raw := buildMinimalELF64(t)
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := e.Section("nonexistent"); ok {
		t.Fatal("expected lookup of nonexistent section to fail")
	}
	s, ok := e.Section(".shstrtab")
	if !ok || s.Header.Type != SHTStrTab {
		t.Fatalf("expected to find .shstrtab section, got %+v ok=%v", s, ok)
	}
}
