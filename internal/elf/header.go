package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

var magic = [4]byte{0x7F, 'E', 'L', 'F'}

// FileHeader is the ELF identifier plus e_* fields (spec.md §3.2). Entry,
// Phoff, and Shoff are always stored widened to 64 bits even when Class is
// Class32, matching the 32-bit field widths on disk.
type FileHeader struct {
	Class      Class
	Data       DataEncoding
	Version    uint8
	OSABI      uint8
	ABIVersion uint8
	// Pad preserves the 7 EI_PAD bytes (ident[9:16]) verbatim. Real binaries
	// always zero-fill this region, but it is part of the on-disk identifier
	// and write must reproduce it exactly rather than assume zero.
	Pad       [7]byte
	Type      ObjectType
	Machine   Machine
	EVersion  uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

// is64 reports whether this header describes a 64-bit class file.
func (h FileHeader) is64() bool { return h.Class == Class64 }

func endianOf(d DataEncoding) buffer.Endian {
	if d == DataMSB {
		return buffer.BigEndian
	}
	return buffer.LittleEndian
}

// parseFileHeader reads the 16-byte identifier and the rest of the file
// header, per spec.md §4.2 steps 1-2. The caller's buffer.Reader must be
// positioned at offset 0.
func parseFileHeader(r *buffer.Reader) (FileHeader, error) {
	ident, err := r.ReadBytes(16)
	if err != nil {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated ELF identifier: %v", err)
	}
	if ident[0] != magic[0] || ident[1] != magic[1] || ident[2] != magic[2] || ident[3] != magic[3] {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "bad magic %x %x %x %x", ident[0], ident[1], ident[2], ident[3])
	}
	class := Class(ident[4])
	if class != Class32 && class != Class64 {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "unsupported class %d", class)
	}
	data := DataEncoding(ident[5])
	if data != DataLSB && data != DataMSB {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "unsupported data encoding %d", data)
	}
	r.SetEndianness(endianOf(data))

	h := FileHeader{
		Class:      class,
		Data:       data,
		Version:    ident[6],
		OSABI:      ident[7],
		ABIVersion: ident[8],
	}
	copy(h.Pad[:], ident[9:16])

	typ, err := r.ReadU16()
	if err != nil {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_type: %v", err)
	}
	h.Type = ObjectType(typ)

	mach, err := r.ReadU16()
	if err != nil {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_machine: %v", err)
	}
	h.Machine = Machine(mach)

	ev, err := r.ReadU32()
	if err != nil {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_version: %v", err)
	}
	h.EVersion = ev

	if class == Class64 {
		h.Entry, err = readAddr64(r)
		if err != nil {
			return FileHeader{}, err
		}
		h.Phoff, err = readAddr64(r)
		if err != nil {
			return FileHeader{}, err
		}
		h.Shoff, err = readAddr64(r)
		if err != nil {
			return FileHeader{}, err
		}
	} else {
		entry32, err := r.ReadU32()
		if err != nil {
			return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_entry: %v", err)
		}
		h.Entry = uint64(entry32)
		phoff32, err := r.ReadU32()
		if err != nil {
			return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_phoff: %v", err)
		}
		h.Phoff = uint64(phoff32)
		shoff32, err := r.ReadU32()
		if err != nil {
			return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_shoff: %v", err)
		}
		h.Shoff = uint64(shoff32)
	}

	flags, err := r.ReadU32()
	if err != nil {
		return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated e_flags: %v", err)
	}
	h.Flags = flags

	fields := []*uint16{&h.EhSize, &h.PhEntSize, &h.PhNum, &h.ShEntSize, &h.ShNum, &h.ShStrNdx}
	for _, f := range fields {
		v, err := r.ReadU16()
		if err != nil {
			return FileHeader{}, objerr.New(objerr.MalformedELF, "truncated header field: %v", err)
		}
		*f = v
	}

	return h, nil
}

func readAddr64(r *buffer.Reader) (uint64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, objerr.New(objerr.MalformedELF, "truncated 64-bit field: %v", err)
	}
	return v, nil
}

// write appends the file header to w in the header's own endianness.
func (h FileHeader) write(w *buffer.Writer) {
	w.WriteBytes(magic[:])
	w.WriteByte(byte(h.Class))
	w.WriteByte(byte(h.Data))
	w.WriteByte(h.Version)
	w.WriteByte(h.OSABI)
	w.WriteByte(h.ABIVersion)
	w.WriteBytes(h.Pad[:]) // EI_PAD, preserved verbatim from the parsed file

	w.SetEndianness(endianOf(h.Data))
	w.WriteU16(uint16(h.Type))
	w.WriteU16(uint16(h.Machine))
	w.WriteU32(h.EVersion)

	if h.is64() {
		w.WriteU64(h.Entry)
		w.WriteU64(h.Phoff)
		w.WriteU64(h.Shoff)
	} else {
		w.WriteU32(uint32(h.Entry))
		w.WriteU32(uint32(h.Phoff))
		w.WriteU32(uint32(h.Shoff))
	}

	w.WriteU32(h.Flags)
	w.WriteU16(h.EhSize)
	w.WriteU16(h.PhEntSize)
	w.WriteU16(h.PhNum)
	w.WriteU16(h.ShEntSize)
	w.WriteU16(h.ShNum)
	w.WriteU16(h.ShStrNdx)
}
