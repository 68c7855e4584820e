package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// SymbolEntry is one entry of a SHT_SYMTAB/SHT_DYNSYM section (spec.md
// §3.2). Info packs binding in the high nibble and type in the low
// nibble, per spec.md §3.2.
type SymbolEntry struct {
	NameOffset   uint32
	Value        uint64
	Size         uint64
	SectionIndex uint16
	Binding      SymbolBinding
	Type         SymbolType
	Visibility   SymbolVisibility
	// RawInfo/RawOther preserve the original byte even when Binding/Type/
	// Visibility fall in an OS- or processor-specific reserved range, so an
	// unrecognized combination round-trips losslessly (spec.md §4.2 "Unknown
	// symbol bindings/types/visibilities ... surface as a synthetic value
	// retaining the raw code").
	RawInfo  uint8
	RawOther uint8
	Name     string
}

// SymbolTable is a SHT_SYMTAB/SHT_DYNSYM section's payload.
type SymbolTable struct {
	Symbols []SymbolEntry
}

func (SymbolTable) payloadKind() string { return "SymbolTable" }

// infoToBindingType unpacks a packed st_info byte.
func infoToBindingType(info uint8) (SymbolBinding, SymbolType) {
	return SymbolBinding(info >> 4), SymbolType(info & 0xF)
}

func bindingTypeToInfo(b SymbolBinding, t SymbolType) uint8 {
	return uint8(b)<<4 | uint8(t)&0xF
}

// parseSymbolTable decodes a SHT_SYMTAB/SHT_DYNSYM section's raw bytes.
// Per spec.md §4.2 step 4, the on-disk field order differs between
// classes: {name, info, other, shndx, value, size} on 64-bit and
// {name, value, size, info, other, shndx} on 32-bit. The reader's
// alignment is forced to 1 first, since symbol entries are tightly packed
// and must not pick up spurious padding.
func parseSymbolTable(raw []byte, endian buffer.Endian, is64 bool, strtab []byte) (SymbolTable, error) {
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)

	entrySize := 24
	if !is64 {
		entrySize = 16
	}
	if len(raw)%entrySize != 0 {
		return SymbolTable{}, objerr.New(objerr.MalformedELF,
			"symbol table size %d is not a multiple of entry size %d", len(raw), entrySize)
	}

	var syms []SymbolEntry
	for r.Remaining() > 0 {
		var e SymbolEntry
		var err error
		if is64 {
			e, err = parseSymbol64(r)
		} else {
			e, err = parseSymbol32(r)
		}
		if err != nil {
			return SymbolTable{}, err
		}
		if strtab != nil {
			name, nerr := sectionNameAt(strtab, e.NameOffset)
			if nerr == nil {
				e.Name = name
			}
		}
		syms = append(syms, e)
	}
	return SymbolTable{Symbols: syms}, nil
}

func parseSymbol64(r *buffer.Reader) (SymbolEntry, error) {
	var e SymbolEntry
	name, err := r.ReadU32()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol name offset: %v", err)
	}
	e.NameOffset = name

	info, err := r.ReadByte()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol st_info: %v", err)
	}
	e.RawInfo = info
	e.Binding, e.Type = infoToBindingType(info)

	other, err := r.ReadByte()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol st_other: %v", err)
	}
	e.RawOther = other
	e.Visibility = SymbolVisibility(other & 0x3)

	shndx, err := r.ReadU16()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol st_shndx: %v", err)
	}
	e.SectionIndex = shndx

	value, err := r.ReadU64()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol st_value: %v", err)
	}
	e.Value = value

	size, err := r.ReadU64()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol st_size: %v", err)
	}
	e.Size = size

	return e, nil
}

func parseSymbol32(r *buffer.Reader) (SymbolEntry, error) {
	var e SymbolEntry
	name, err := r.ReadU32()
	if err != nil {
		return e, objerr.New(objerr.MalformedELF, "truncated symbol name offset: %v", err)
	}
	e.NameOffset = name

	value, err := r.ReadU32()
	if err != nil {
		return e, err
	}
	e.Value = uint64(value)

	size, err := r.ReadU32()
	if err != nil {
		return e, err
	}
	e.Size = uint64(size)

	info, err := r.ReadByte()
	if err != nil {
		return e, err
	}
	e.RawInfo = info
	e.Binding, e.Type = infoToBindingType(info)

	other, err := r.ReadByte()
	if err != nil {
		return e, err
	}
	e.RawOther = other
	e.Visibility = SymbolVisibility(other & 0x3)

	shndx, err := r.ReadU16()
	if err != nil {
		return e, err
	}
	e.SectionIndex = shndx

	return e, nil
}

func writeSymbolTable(st SymbolTable, endian buffer.Endian, is64 bool) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	for _, e := range st.Symbols {
		if is64 {
			w.WriteU32(e.NameOffset)
			w.WriteByte(e.RawInfo)
			w.WriteByte(e.RawOther)
			w.WriteU16(e.SectionIndex)
			w.WriteU64(e.Value)
			w.WriteU64(e.Size)
		} else {
			w.WriteU32(e.NameOffset)
			w.WriteU32(uint32(e.Value))
			w.WriteU32(uint32(e.Size))
			w.WriteByte(e.RawInfo)
			w.WriteByte(e.RawOther)
			w.WriteU16(e.SectionIndex)
		}
	}
	return w.Bytes()
}
