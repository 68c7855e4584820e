//go:build unix

package elf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MappedFile is an mmap-backed view of an object file on disk. Bytes()
// returns the mapped region directly; Parse can run against it without a
// copy. Close unmaps the region.
type MappedFile struct {
	data []byte
}

// LoadFile opens path and maps it read-only into the process's address
// space via mmap, avoiding a full read() copy for large binaries.
func LoadFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return &MappedFile{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &MappedFile{data: data}, nil
}

// Bytes returns the mapped file contents.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close unmaps the file.
func (m *MappedFile) Close() error {
	if m.data == nil {
		return nil
	}
	return unix.Munmap(m.data)
}
