package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// SectionHeader is one sh_* entry (spec.md §3.2). Name is resolved later
// via shstrndx, per spec.md §4.2 step 3.
type SectionHeader struct {
	NameOffset uint32
	Type       SectionType
	Flags      uint64
	Addr       uint64
	Offset     uint64
	Size       uint64
	Link       uint32
	Info       uint32
	AddrAlign  uint64
	EntSize    uint64
}

// Payload is implemented by each parsed section-variant type named in
// spec.md §3.2: StringTable, SymbolTable, RelocationTable, GnuHashTable,
// GnuVersionDef/Need/Sym, DynamicTable, NoteSection, ConstructorsArray. A
// section whose type this codec does not interpret has a nil Payload and
// is preserved purely via its Raw bytes (spec.md §4.2 "Unknown section
// types degrade to a raw byte-bearing section").
type Payload interface {
	payloadKind() string
}

// Section is one section's header, resolved name, raw payload bytes (as
// they appear in the file; empty for SHT_NOBITS), and optional structured
// Payload. Write always re-emits Raw verbatim, never a re-serialization of
// Payload, so round-trip is exact even for section types this codec only
// partially understands.
type Section struct {
	Header  SectionHeader
	Name    string
	Raw     []byte
	Payload Payload
}

// IsExecutable reports whether the section carries SHF_EXECINSTR.
func (s Section) IsExecutable() bool {
	return s.Header.Flags&SHFExecInstr != 0
}

func parseSectionHeaders(r *buffer.Reader, h FileHeader) ([]SectionHeader, error) {
	if h.ShNum == 0 {
		return nil, nil
	}
	if err := r.Seek(int(h.Shoff)); err != nil {
		return nil, objerr.New(objerr.MalformedELF, "shoff %#x out of range: %v", h.Shoff, err)
	}
	out := make([]SectionHeader, 0, h.ShNum)
	for i := 0; i < int(h.ShNum); i++ {
		entryStart := int(h.Shoff) + i*int(h.ShEntSize)
		if err := r.Seek(entryStart); err != nil {
			return nil, objerr.New(objerr.MalformedELF, "section header %d out of range: %v", i, err)
		}
		sh, err := parseOneSectionHeader(r, h)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}

func parseOneSectionHeader(r *buffer.Reader, h FileHeader) (SectionHeader, error) {
	var sh SectionHeader
	nameOff, err := r.ReadU32()
	if err != nil {
		return sh, objerr.New(objerr.MalformedELF, "truncated sh_name: %v", err)
	}
	sh.NameOffset = nameOff

	typ, err := r.ReadU32()
	if err != nil {
		return sh, objerr.New(objerr.MalformedELF, "truncated sh_type: %v", err)
	}
	sh.Type = SectionType(typ)

	if h.is64() {
		flags, err := r.ReadU64()
		if err != nil {
			return sh, objerr.New(objerr.MalformedELF, "truncated sh_flags: %v", err)
		}
		sh.Flags = flags
		addr, err := r.ReadU64()
		if err != nil {
			return sh, err
		}
		sh.Addr = addr
		offset, err := r.ReadU64()
		if err != nil {
			return sh, err
		}
		sh.Offset = offset
		size, err := r.ReadU64()
		if err != nil {
			return sh, err
		}
		sh.Size = size
	} else {
		flags, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.Flags = uint64(flags)
		addr, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.Addr = uint64(addr)
		offset, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.Offset = uint64(offset)
		size, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.Size = uint64(size)
	}

	link, err := r.ReadU32()
	if err != nil {
		return sh, objerr.New(objerr.MalformedELF, "truncated sh_link: %v", err)
	}
	sh.Link = link
	info, err := r.ReadU32()
	if err != nil {
		return sh, objerr.New(objerr.MalformedELF, "truncated sh_info: %v", err)
	}
	sh.Info = info

	if h.is64() {
		addrAlign, err := r.ReadU64()
		if err != nil {
			return sh, err
		}
		sh.AddrAlign = addrAlign
		entSize, err := r.ReadU64()
		if err != nil {
			return sh, err
		}
		sh.EntSize = entSize
	} else {
		addrAlign, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.AddrAlign = uint64(addrAlign)
		entSize, err := r.ReadU32()
		if err != nil {
			return sh, err
		}
		sh.EntSize = uint64(entSize)
	}

	return sh, nil
}

func (sh SectionHeader) write(w *buffer.Writer, is64 bool) {
	w.WriteU32(sh.NameOffset)
	w.WriteU32(uint32(sh.Type))
	if is64 {
		w.WriteU64(sh.Flags)
		w.WriteU64(sh.Addr)
		w.WriteU64(sh.Offset)
		w.WriteU64(sh.Size)
	} else {
		w.WriteU32(uint32(sh.Flags))
		w.WriteU32(uint32(sh.Addr))
		w.WriteU32(uint32(sh.Offset))
		w.WriteU32(uint32(sh.Size))
	}
	w.WriteU32(sh.Link)
	w.WriteU32(sh.Info)
	if is64 {
		w.WriteU64(sh.AddrAlign)
		w.WriteU64(sh.EntSize)
	} else {
		w.WriteU32(uint32(sh.AddrAlign))
		w.WriteU32(uint32(sh.EntSize))
	}
}

// sectionNameAt resolves a name-table offset to a NUL-terminated string,
// used both for section names (via shstrtab) and symbol names (via the
// symbol table's linked string table).
func sectionNameAt(strtab []byte, offset uint32) (string, error) {
	if int(offset) > len(strtab) {
		return "", objerr.New(objerr.MalformedELF, "name offset %d beyond string table of length %d", offset, len(strtab))
	}
	end := int(offset)
	for end < len(strtab) && strtab[end] != 0 {
		end++
	}
	if end >= len(strtab) {
		return "", objerr.New(objerr.MalformedELF, "string table entry at %d is not NUL-terminated", offset)
	}
	return string(strtab[offset:end]), nil
}
