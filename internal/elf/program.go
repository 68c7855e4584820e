package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// ProgramHeader describes one PT_* segment (spec.md §3.2). Fields are
// always widened to 64 bits, matching the on-disk 32-bit layout when
// Class is Class32.
type ProgramHeader struct {
	Type   ProgramType
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// parseProgramHeaders reads h.PhNum entries of size h.PhEntSize starting at
// h.Phoff, per spec.md §4.2 step 5.
func parseProgramHeaders(r *buffer.Reader, h FileHeader) ([]ProgramHeader, error) {
	if h.PhNum == 0 {
		return nil, nil
	}
	if err := r.Seek(int(h.Phoff)); err != nil {
		return nil, objerr.New(objerr.MalformedELF, "phoff %#x out of range: %v", h.Phoff, err)
	}
	out := make([]ProgramHeader, 0, h.PhNum)
	for i := 0; i < int(h.PhNum); i++ {
		entryStart := int(h.Phoff) + i*int(h.PhEntSize)
		if err := r.Seek(entryStart); err != nil {
			return nil, objerr.New(objerr.MalformedELF, "program header %d out of range: %v", i, err)
		}
		ph, err := parseOneProgramHeader(r, h)
		if err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, nil
}

func parseOneProgramHeader(r *buffer.Reader, h FileHeader) (ProgramHeader, error) {
	var ph ProgramHeader
	typ, err := r.ReadU32()
	if err != nil {
		return ph, objerr.New(objerr.MalformedELF, "truncated p_type: %v", err)
	}
	ph.Type = ProgramType(typ)

	if h.is64() {
		flags, err := r.ReadU32()
		if err != nil {
			return ph, objerr.New(objerr.MalformedELF, "truncated p_flags: %v", err)
		}
		ph.Flags = flags
		vals := []*uint64{&ph.Offset, &ph.VAddr, &ph.PAddr, &ph.FileSz, &ph.MemSz, &ph.Align}
		for _, v := range vals {
			u, err := r.ReadU64()
			if err != nil {
				return ph, objerr.New(objerr.MalformedELF, "truncated program header field: %v", err)
			}
			*v = u
		}
		return ph, nil
	}

	// 32-bit layout: p_type, p_offset, p_vaddr, p_paddr, p_filesz, p_memsz, p_flags, p_align
	vals32 := []*uint64{&ph.Offset, &ph.VAddr, &ph.PAddr, &ph.FileSz, &ph.MemSz}
	for _, v := range vals32 {
		u, err := r.ReadU32()
		if err != nil {
			return ph, objerr.New(objerr.MalformedELF, "truncated program header field: %v", err)
		}
		*v = uint64(u)
	}
	flags, err := r.ReadU32()
	if err != nil {
		return ph, objerr.New(objerr.MalformedELF, "truncated p_flags: %v", err)
	}
	ph.Flags = flags
	align, err := r.ReadU32()
	if err != nil {
		return ph, objerr.New(objerr.MalformedELF, "truncated p_align: %v", err)
	}
	ph.Align = uint64(align)
	return ph, nil
}

func (ph ProgramHeader) write(w *buffer.Writer, is64 bool) {
	w.WriteU32(uint32(ph.Type))
	if is64 {
		w.WriteU32(ph.Flags)
		w.WriteU64(ph.Offset)
		w.WriteU64(ph.VAddr)
		w.WriteU64(ph.PAddr)
		w.WriteU64(ph.FileSz)
		w.WriteU64(ph.MemSz)
		w.WriteU64(ph.Align)
		return
	}
	w.WriteU32(uint32(ph.Offset))
	w.WriteU32(uint32(ph.VAddr))
	w.WriteU32(uint32(ph.PAddr))
	w.WriteU32(uint32(ph.FileSz))
	w.WriteU32(uint32(ph.MemSz))
	w.WriteU32(ph.Flags)
	w.WriteU32(uint32(ph.Align))
}
