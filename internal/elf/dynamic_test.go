package elf

import (
	"testing"

	"github.com/xyproto/xdis/internal/buffer"
)

func TestDynamicTableRoundTrip(t *testing.T) {
	dt := DynamicTable{
		Entries: []DynamicEntry{
			{Tag: DTNeeded, Value: 1},
			{Tag: DTSymTab, Value: 0x1000},
			{Tag: DTNull, Value: 0},
		},
	}
	raw := writeDynamicTable(dt, buffer.LittleEndian, true)
	got, err := parseDynamicTable(raw, buffer.LittleEndian, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Entries) != 3 || got.Entries[1].Value != 0x1000 {
		t.Fatalf("mismatch: %+v", got.Entries)
	}
}

func TestDynamicTableNeeded(t *testing.T) {
	strtab := append([]byte{0}, []byte("libc.so.6\x00")...)
	dt := DynamicTable{Entries: []DynamicEntry{{Tag: DTNeeded, Value: 1}}}
	names := dt.Needed(strtab)
	if len(names) != 1 || names[0] != "libc.so.6" {
		t.Fatalf("expected [libc.so.6], got %v", names)
	}
}

func TestDynamicTableStopsAtNull(t *testing.T) {
	dt := DynamicTable{Entries: []DynamicEntry{
		{Tag: DTNull, Value: 0},
	}}
	raw := writeDynamicTable(dt, buffer.LittleEndian, true)
	// Append trailing garbage after DT_NULL; parse should stop at DT_NULL.
	raw = append(raw, make([]byte, 16)...)
	got, err := parseDynamicTable(raw, buffer.LittleEndian, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected parsing to stop at DT_NULL, got %d entries", len(got.Entries))
	}
}
