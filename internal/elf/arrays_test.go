package elf

import (
	"testing"

	"github.com/xyproto/xdis/internal/buffer"
)

func TestConstructorsArray64(t *testing.T) {
	raw := []byte{
		0x00, 0x10, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x10, 0x10, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	got, err := parseConstructorsArray(raw, buffer.LittleEndian, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Pointers) != 2 || got.Pointers[0] != 0x401000 || got.Pointers[1] != 0x401010 {
		t.Fatalf("mismatch: %+v", got.Pointers)
	}
}

func TestConstructorsArraySizeValidation(t *testing.T) {
	_, err := parseConstructorsArray([]byte{1, 2, 3}, buffer.LittleEndian, true)
	if err == nil {
		t.Fatal("expected error for misaligned constructors array size")
	}
}
