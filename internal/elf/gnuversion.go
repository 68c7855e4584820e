package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// GnuVersionSym is a SHT_GNU_versym section's payload: one 16-bit version
// index per symbol-table entry, parallel to the linked symtab.
type GnuVersionSym struct {
	Indices []uint16
}

func (GnuVersionSym) payloadKind() string { return "GnuVersionSym" }

func parseGnuVersionSym(raw []byte, endian buffer.Endian) (GnuVersionSym, error) {
	if len(raw)%2 != 0 {
		return GnuVersionSym{}, objerr.New(objerr.MalformedELF,
			"gnu versym section size %d is not a multiple of 2", len(raw))
	}
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)
	var out []uint16
	for r.Remaining() > 0 {
		v, err := r.ReadU16()
		if err != nil {
			return GnuVersionSym{}, err
		}
		out = append(out, v)
	}
	return GnuVersionSym{Indices: out}, nil
}

func writeGnuVersionSym(v GnuVersionSym, endian buffer.Endian) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	for _, idx := range v.Indices {
		w.WriteU16(idx)
	}
	return w.Bytes()
}

// VersionAux is one auxiliary entry of a Verdef or Verneed record: the name
// (resolved through a string table) plus its hash. A Verneed aux entry
// carries its own vna_hash; a Verdef aux entry (Elf64_Verdaux: name and next
// only) has no hash on disk, so the record's vd_hash is stored on its first
// aux entry and Hash is zero on the rest.
type VersionAux struct {
	Hash uint32
	Name string
	Flags uint16
	Other uint16
}

// VersionDefEntry is one Elf64_Verdef record of a SHT_GNU_verdef section:
// the versions this object itself defines and exports.
type VersionDefEntry struct {
	Version uint16
	Flags   uint16
	Index   uint16
	Aux     []VersionAux
}

// GnuVersionDef is a SHT_GNU_verdef section's payload.
type GnuVersionDef struct {
	Entries []VersionDefEntry
}

func (GnuVersionDef) payloadKind() string { return "GnuVersionDef" }

func parseGnuVersionDef(raw []byte, endian buffer.Endian, strtab []byte) (GnuVersionDef, error) {
	var entries []VersionDefEntry
	pos := 0
	for pos < len(raw) {
		if pos+20 > len(raw) {
			return GnuVersionDef{}, objerr.New(objerr.MalformedELF, "truncated verdef record at offset %d", pos)
		}
		r := buffer.NewReader(raw[pos:], endian)
		r.SetAlignment(1)
		version, _ := r.ReadU16()
		flags, _ := r.ReadU16()
		ndx, _ := r.ReadU16()
		cnt, _ := r.ReadU16()
		vdHash, _ := r.ReadU32() // vd_hash: hash of the primary name, stored on aux[0]
		auxOffset, _ := r.ReadU32()
		next, _ := r.ReadU32()

		entry := VersionDefEntry{Version: version, Flags: flags, Index: ndx}
		auxPos := pos + int(auxOffset)
		for i := 0; i < int(cnt); i++ {
			if auxPos+8 > len(raw) {
				return GnuVersionDef{}, objerr.New(objerr.MalformedELF, "truncated verdaux record at offset %d", auxPos)
			}
			ar := buffer.NewReader(raw[auxPos:], endian)
			ar.SetAlignment(1)
			nameOff, _ := ar.ReadU32()
			auxNext, _ := ar.ReadU32()
			name, _ := sectionNameAt(strtab, nameOff)
			aux := VersionAux{Name: name}
			if i == 0 {
				aux.Hash = vdHash
			}
			entry.Aux = append(entry.Aux, aux)
			if auxNext == 0 {
				break
			}
			auxPos += int(auxNext)
		}
		entries = append(entries, entry)
		if next == 0 {
			break
		}
		pos += int(next)
	}
	return GnuVersionDef{Entries: entries}, nil
}

// VersionNeedEntry is one Elf64_Verneed record of a SHT_GNU_verneed section:
// a needed shared library and the symbol versions imported from it.
type VersionNeedEntry struct {
	File string
	Aux  []VersionAux
}

// GnuVersionNeed is a SHT_GNU_verneed section's payload.
type GnuVersionNeed struct {
	Entries []VersionNeedEntry
}

func (GnuVersionNeed) payloadKind() string { return "GnuVersionNeed" }

func parseGnuVersionNeed(raw []byte, endian buffer.Endian, strtab []byte) (GnuVersionNeed, error) {
	var entries []VersionNeedEntry
	pos := 0
	for pos < len(raw) {
		if pos+16 > len(raw) {
			return GnuVersionNeed{}, objerr.New(objerr.MalformedELF, "truncated verneed record at offset %d", pos)
		}
		r := buffer.NewReader(raw[pos:], endian)
		r.SetAlignment(1)
		_, _ = r.ReadU16() // version, always 1
		cnt, _ := r.ReadU16()
		fileOff, _ := r.ReadU32()
		auxOffset, _ := r.ReadU32()
		next, _ := r.ReadU32()

		file, _ := sectionNameAt(strtab, fileOff)
		entry := VersionNeedEntry{File: file}
		auxPos := pos + int(auxOffset)
		for i := 0; i < int(cnt); i++ {
			if auxPos+16 > len(raw) {
				return GnuVersionNeed{}, objerr.New(objerr.MalformedELF, "truncated vernaux record at offset %d", auxPos)
			}
			ar := buffer.NewReader(raw[auxPos:], endian)
			ar.SetAlignment(1)
			hash, _ := ar.ReadU32()
			flags, _ := ar.ReadU16()
			other, _ := ar.ReadU16()
			nameOff, _ := ar.ReadU32()
			auxNext, _ := ar.ReadU32()
			name, _ := sectionNameAt(strtab, nameOff)
			entry.Aux = append(entry.Aux, VersionAux{Hash: hash, Name: name, Flags: flags, Other: other})
			if auxNext == 0 {
				break
			}
			auxPos += int(auxNext)
		}
		entries = append(entries, entry)
		if next == 0 {
			break
		}
		pos += int(next)
	}
	return GnuVersionNeed{Entries: entries}, nil
}
