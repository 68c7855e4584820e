package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// Note is one Elf64_Nhdr record: a name/type/descriptor triple, as found in
// PT_NOTE segments and SHT_NOTE sections (build IDs, ABI tags, core dumps).
type Note struct {
	Name string
	Type uint32
	Desc []byte
}

// NoteSection is a SHT_NOTE section's payload.
type NoteSection struct {
	Notes []Note
}

func (NoteSection) payloadKind() string { return "NoteSection" }

func align4(n int) int {
	return (n + 3) &^ 3
}

func parseNoteSection(raw []byte, endian buffer.Endian) (NoteSection, error) {
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)

	var notes []Note
	for r.Remaining() > 0 {
		nameSz, err := r.ReadU32()
		if err != nil {
			return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note namesz: %v", err)
		}
		descSz, err := r.ReadU32()
		if err != nil {
			return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note descsz: %v", err)
		}
		typ, err := r.ReadU32()
		if err != nil {
			return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note type: %v", err)
		}

		nameBytes, err := r.ReadBytes(int(nameSz))
		if err != nil {
			return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note name: %v", err)
		}
		name := ""
		if len(nameBytes) > 0 && nameBytes[len(nameBytes)-1] == 0 {
			name = string(nameBytes[:len(nameBytes)-1])
		} else {
			name = string(nameBytes)
		}
		if pad := align4(int(nameSz)) - int(nameSz); pad > 0 {
			if _, err := r.ReadBytes(pad); err != nil {
				return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note name padding: %v", err)
			}
		}

		desc, err := r.ReadBytes(int(descSz))
		if err != nil {
			return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note descriptor: %v", err)
		}
		if pad := align4(int(descSz)) - int(descSz); pad > 0 {
			if _, err := r.ReadBytes(pad); err != nil {
				return NoteSection{}, objerr.New(objerr.MalformedELF, "truncated note descriptor padding: %v", err)
			}
		}

		notes = append(notes, Note{Name: name, Type: typ, Desc: desc})
	}
	return NoteSection{Notes: notes}, nil
}

func writeNoteSection(ns NoteSection, endian buffer.Endian) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	for _, n := range ns.Notes {
		nameBytes := append([]byte(n.Name), 0)
		w.WriteU32(uint32(len(nameBytes)))
		w.WriteU32(uint32(len(n.Desc)))
		w.WriteU32(n.Type)
		w.WriteBytes(nameBytes)
		for i := align4(len(nameBytes)) - len(nameBytes); i > 0; i-- {
			w.WriteByte(0)
		}
		w.WriteBytes(n.Desc)
		for i := align4(len(n.Desc)) - len(n.Desc); i > 0; i-- {
			w.WriteByte(0)
		}
	}
	return w.Bytes()
}
