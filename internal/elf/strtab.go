package elf

// StringTable is a SHT_STRTAB section's payload: the raw bytes plus a
// convenience lookup. Writing always uses the section's Raw bytes, so a
// StringTable is purely a read-side view.
type StringTable struct {
	Data []byte
}

func (StringTable) payloadKind() string { return "StringTable" }

// String resolves an offset into this table to a NUL-terminated string.
func (st StringTable) String(offset uint32) (string, error) {
	return sectionNameAt(st.Data, offset)
}

func parseStringTable(raw []byte) StringTable {
	return StringTable{Data: raw}
}
