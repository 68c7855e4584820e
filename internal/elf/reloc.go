package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// RelocationEntry is one REL/RELA entry (spec.md §3.2). Info packs the
// symbol index in the high 32 bits and the relocation type in the low 32
// bits on a 64-bit file: info = (sym<<32)|type.
type RelocationEntry struct {
	Offset    uint64
	SymIndex  uint32
	Type      RelocationType
	HasAddend bool
	Addend    int64
}

// RelocationTable is a SHT_REL/SHT_RELA section's payload.
type RelocationTable struct {
	Entries []RelocationEntry
	Rela    bool // true if parsed from a RELA (addend-carrying) section
}

func (RelocationTable) payloadKind() string { return "RelocationTable" }

func infoToSymType64(info uint64) (uint32, RelocationType) {
	return uint32(info >> 32), RelocationType(uint32(info))
}

func symTypeToInfo64(sym uint32, typ RelocationType) uint64 {
	return uint64(sym)<<32 | uint64(uint32(typ))
}

func infoToSymType32(info uint32) (uint32, RelocationType) {
	return info >> 8, RelocationType(info & 0xFF)
}

func symTypeToInfo32(sym uint32, typ RelocationType) uint32 {
	return sym<<8 | uint32(typ)&0xFF
}

func parseRelocationTable(raw []byte, endian buffer.Endian, is64, rela bool) (RelocationTable, error) {
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)

	entrySize := relEntrySize(is64, rela)
	if len(raw)%entrySize != 0 {
		return RelocationTable{}, objerr.New(objerr.MalformedELF,
			"relocation table size %d is not a multiple of entry size %d", len(raw), entrySize)
	}

	var entries []RelocationEntry
	for r.Remaining() > 0 {
		var e RelocationEntry
		e.HasAddend = rela
		if is64 {
			off, err := r.ReadU64()
			if err != nil {
				return RelocationTable{}, err
			}
			e.Offset = off
			info, err := r.ReadU64()
			if err != nil {
				return RelocationTable{}, err
			}
			e.SymIndex, e.Type = infoToSymType64(info)
		} else {
			off, err := r.ReadU32()
			if err != nil {
				return RelocationTable{}, err
			}
			e.Offset = uint64(off)
			info, err := r.ReadU32()
			if err != nil {
				return RelocationTable{}, err
			}
			e.SymIndex, e.Type = infoToSymType32(info)
		}
		if rela {
			if is64 {
				addend, err := r.ReadU64()
				if err != nil {
					return RelocationTable{}, err
				}
				e.Addend = int64(addend)
			} else {
				addend, err := r.ReadU32()
				if err != nil {
					return RelocationTable{}, err
				}
				e.Addend = int64(int32(addend))
			}
		}
		entries = append(entries, e)
	}
	return RelocationTable{Entries: entries, Rela: rela}, nil
}

func relEntrySize(is64, rela bool) int {
	switch {
	case is64 && rela:
		return 24
	case is64 && !rela:
		return 16
	case !is64 && rela:
		return 12
	default:
		return 8
	}
}

func writeRelocationTable(rt RelocationTable, endian buffer.Endian, is64 bool) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	for _, e := range rt.Entries {
		if is64 {
			w.WriteU64(e.Offset)
			w.WriteU64(symTypeToInfo64(e.SymIndex, e.Type))
			if rt.Rela {
				w.WriteU64(uint64(e.Addend))
			}
		} else {
			w.WriteU32(uint32(e.Offset))
			w.WriteU32(symTypeToInfo32(e.SymIndex, e.Type))
			if rt.Rela {
				w.WriteU32(uint32(e.Addend))
			}
		}
	}
	return w.Bytes()
}
