//go:build windows

package elf

import (
	"fmt"
	"os"
)

// MappedFile holds an object file's contents. On Windows this package has
// no mmap dependency in its stack, so LoadFile falls back to a plain read;
// the interface matches the unix mmap-backed variant so callers don't need
// a build-tag switch of their own.
type MappedFile struct {
	data []byte
}

// LoadFile reads path's full contents into memory.
func LoadFile(path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &MappedFile{data: data}, nil
}

// Bytes returns the file contents.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close is a no-op on Windows; there is no mapping to release.
func (m *MappedFile) Close() error { return nil }
