package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// DynamicEntry is one {d_tag, d_val/d_ptr} pair of a SHT_DYNAMIC section.
type DynamicEntry struct {
	Tag   DynamicTag
	Value uint64
}

// DynamicTable is a SHT_DYNAMIC section's payload: the ordered list the
// dynamic linker walks to find needed libraries, the string table, the
// symbol table, relocations, and init/fini hooks.
type DynamicTable struct {
	Entries []DynamicEntry
}

func (DynamicTable) payloadKind() string { return "DynamicTable" }

// Needed returns the DT_NEEDED entries' string-table offsets, resolved
// through strtab. Entries with an offset the string table can't resolve are
// skipped rather than failing the whole lookup.
func (dt DynamicTable) Needed(strtab []byte) []string {
	var out []string
	for _, e := range dt.Entries {
		if e.Tag != DTNeeded {
			continue
		}
		if name, err := sectionNameAt(strtab, uint32(e.Value)); err == nil {
			out = append(out, name)
		}
	}
	return out
}

func parseDynamicTable(raw []byte, endian buffer.Endian, is64 bool) (DynamicTable, error) {
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)

	entrySize := 16
	if !is64 {
		entrySize = 8
	}
	if len(raw)%entrySize != 0 {
		return DynamicTable{}, objerr.New(objerr.MalformedELF,
			"dynamic table size %d is not a multiple of entry size %d", len(raw), entrySize)
	}

	var entries []DynamicEntry
	for r.Remaining() > 0 {
		var tag int64
		var val uint64
		if is64 {
			t, err := r.ReadU64()
			if err != nil {
				return DynamicTable{}, objerr.New(objerr.MalformedELF, "truncated d_tag: %v", err)
			}
			tag = int64(t)
			v, err := r.ReadU64()
			if err != nil {
				return DynamicTable{}, objerr.New(objerr.MalformedELF, "truncated d_val: %v", err)
			}
			val = v
		} else {
			t, err := r.ReadU32()
			if err != nil {
				return DynamicTable{}, err
			}
			tag = int64(int32(t))
			v, err := r.ReadU32()
			if err != nil {
				return DynamicTable{}, err
			}
			val = uint64(v)
		}
		entries = append(entries, DynamicEntry{Tag: DynamicTag(tag), Value: val})
		if DynamicTag(tag) == DTNull {
			break
		}
	}
	return DynamicTable{Entries: entries}, nil
}

func writeDynamicTable(dt DynamicTable, endian buffer.Endian, is64 bool) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	for _, e := range dt.Entries {
		if is64 {
			w.WriteU64(uint64(int64(e.Tag)))
			w.WriteU64(e.Value)
		} else {
			w.WriteU32(uint32(int32(e.Tag)))
			w.WriteU32(uint32(e.Value))
		}
	}
	return w.Bytes()
}
