// Package elf implements a round-trip ELF64/ELF32 object-file codec: Parse
// decodes a byte slice into a structured ELF value, Write serializes that
// value back to bytes. Every Section keeps its original payload bytes
// alongside any structured interpretation, so Write(Parse(b)) reproduces b
// exactly even for section types this package only partially understands.
package elf

import (
	"sort"

	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// ELF is a fully parsed object file: its header, program headers (segments),
// and sections, each carrying both raw bytes and (where recognized)
// structured payload.
type ELF struct {
	Header         FileHeader
	ProgramHeaders []ProgramHeader
	Sections       []Section
}

// Section looks up a section by name, returning (section, true) on a match.
func (e *ELF) Section(name string) (Section, bool) {
	for _, s := range e.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// SectionByIndex returns the section at the given section-header-table
// index, or false if out of range.
func (e *ELF) SectionByIndex(i int) (Section, bool) {
	if i < 0 || i >= len(e.Sections) {
		return Section{}, false
	}
	return e.Sections[i], true
}

// Parse decodes raw into an ELF value, per the container's own field widths
// and endianness. It validates the magic number, class, and data encoding,
// reads program and section headers, resolves section names via the
// sh_shstrndx string table, and parses each section's payload according to
// its sh_type, falling back to a raw byte-only section for types this
// package does not interpret.
func Parse(raw []byte) (*ELF, error) {
	r := buffer.NewReader(raw, buffer.LittleEndian)
	h, err := parseFileHeader(r)
	if err != nil {
		return nil, err
	}

	phdrs, err := parseProgramHeaders(r, h)
	if err != nil {
		return nil, err
	}

	shdrs, err := parseSectionHeaders(r, h)
	if err != nil {
		return nil, err
	}

	var shstrtab []byte
	if int(h.ShStrNdx) < len(shdrs) {
		shstrtab, err = sectionRawBytes(raw, shdrs[h.ShStrNdx])
		if err != nil {
			return nil, err
		}
	}

	sections := make([]Section, len(shdrs))
	for i, sh := range shdrs {
		name := ""
		if shstrtab != nil {
			if n, nerr := sectionNameAt(shstrtab, sh.NameOffset); nerr == nil {
				name = n
			}
		}
		raw, err := sectionRawBytes(raw, sh)
		if err != nil {
			return nil, err
		}
		sections[i] = Section{Header: sh, Name: name, Raw: raw}
	}

	// Symbol tables need their linked string table's bytes; resolve in a
	// second pass now that every section's Raw is populated.
	for i := range sections {
		sh := sections[i].Header
		endian := endianOf(h.Data)
		switch sh.Type {
		case SHTStrTab:
			sections[i].Payload = parseStringTable(sections[i].Raw)
		case SHTSymTab, SHTDynSym:
			var strtab []byte
			if int(sh.Link) < len(sections) {
				strtab = sections[sh.Link].Raw
			}
			payload, perr := parseSymbolTable(sections[i].Raw, endian, h.is64(), strtab)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTRel:
			payload, perr := parseRelocationTable(sections[i].Raw, endian, h.is64(), false)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTRela:
			payload, perr := parseRelocationTable(sections[i].Raw, endian, h.is64(), true)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTDynamic:
			payload, perr := parseDynamicTable(sections[i].Raw, endian, h.is64())
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTNote:
			payload, perr := parseNoteSection(sections[i].Raw, endian)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTInitArray, SHTFiniArray, SHTPreinitArray:
			payload, perr := parseConstructorsArray(sections[i].Raw, endian, h.is64())
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTGNUHash:
			numSymbols := uint32(0)
			if int(sh.Link) < len(sections) {
				if st, ok := sections[sh.Link].Payload.(SymbolTable); ok {
					numSymbols = uint32(len(st.Symbols))
				}
			}
			payload, perr := parseGnuHashTable(sections[i].Raw, endian, numSymbols)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTGNUVersym:
			payload, perr := parseGnuVersionSym(sections[i].Raw, endian)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTGNUVerdef:
			var strtab []byte
			if int(sh.Link) < len(sections) {
				strtab = sections[sh.Link].Raw
			}
			payload, perr := parseGnuVersionDef(sections[i].Raw, endian, strtab)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		case SHTGNUVerneed:
			var strtab []byte
			if int(sh.Link) < len(sections) {
				strtab = sections[sh.Link].Raw
			}
			payload, perr := parseGnuVersionNeed(sections[i].Raw, endian, strtab)
			if perr != nil {
				return nil, perr
			}
			sections[i].Payload = payload
		}
	}

	return &ELF{Header: h, ProgramHeaders: phdrs, Sections: sections}, nil
}

// sectionRawBytes extracts a section's on-disk payload. SHT_NOBITS
// sections (.bss) occupy no file space and yield an empty slice.
func sectionRawBytes(file []byte, sh SectionHeader) ([]byte, error) {
	if sh.Type == SHTNull || sh.Type == SHTNoBits {
		return nil, nil
	}
	start := int(sh.Offset)
	end := start + int(sh.Size)
	if start < 0 || end < start || end > len(file) {
		return nil, objerr.NewAt(objerr.OutOfBounds, int64(sh.Offset),
			"section payload [%#x, %#x) exceeds file length %d", start, end, len(file))
	}
	return file[start:end], nil
}

// Write serializes e back to bytes: file header, then every other piece of
// the file — section payloads, the section header table, and the program
// header table — placed at its own recorded file offset in offset order
// (gaps zero-filled). e_phoff is frequently a low offset (right after the
// file header) that lands *before* section data in the file, so the
// program header table cannot simply be appended last; it is written
// wherever e.Header.Phoff actually says, exactly like every other piece.
// Section payloads are always taken from Raw, never re-derived from a
// parsed Payload, so the output is byte-exact for any ELF this package
// successfully parsed without being mutated.
func Write(e *ELF) ([]byte, error) {
	w := buffer.NewWriter(endianOf(e.Header.Data))
	w.SetAlignment(1)
	e.Header.write(w)

	type placement struct {
		offset int
		data   []byte
	}
	var placements []placement
	for _, s := range e.Sections {
		if s.Header.Type == SHTNull || s.Header.Type == SHTNoBits || len(s.Raw) == 0 {
			continue
		}
		placements = append(placements, placement{offset: int(s.Header.Offset), data: s.Raw})
	}

	if len(e.Sections) > 0 {
		shTable := buffer.NewWriter(endianOf(e.Header.Data))
		shTable.SetAlignment(1)
		for _, s := range e.Sections {
			s.Header.write(shTable, e.Header.is64())
		}
		placements = append(placements, placement{offset: int(e.Header.Shoff), data: shTable.Bytes()})
	}

	if len(e.ProgramHeaders) > 0 {
		phTable := buffer.NewWriter(endianOf(e.Header.Data))
		phTable.SetAlignment(1)
		for _, ph := range e.ProgramHeaders {
			ph.write(phTable, e.Header.is64())
		}
		placements = append(placements, placement{offset: int(e.Header.Phoff), data: phTable.Bytes()})
	}

	sort.Slice(placements, func(i, j int) bool { return placements[i].offset < placements[j].offset })

	for _, p := range placements {
		if p.offset < w.Len() {
			return nil, objerr.New(objerr.InvalidArgument,
				"data at offset %#x overlaps previously written data ending at %#x", p.offset, w.Len())
		}
		w.PadTo(p.offset)
		w.WriteBytes(p.data)
	}

	return w.Bytes(), nil
}
