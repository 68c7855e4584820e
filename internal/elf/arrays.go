package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// ConstructorsArray is a SHT_INIT_ARRAY/SHT_FINI_ARRAY/SHT_PREINIT_ARRAY
// section's payload: a plain array of function-pointer-sized addresses.
// Write always re-emits the section's Raw bytes rather than re-encoding
// Pointers, so a pointer width this codec can't infer precisely (a 32-bit
// value on a class that otherwise looks 64-bit, say) never corrupts the
// file; Pointers exists purely to let callers enumerate the constructors
// without re-deriving the entry width themselves.
type ConstructorsArray struct {
	Pointers []uint64
}

func (ConstructorsArray) payloadKind() string { return "ConstructorsArray" }

func parseConstructorsArray(raw []byte, endian buffer.Endian, is64 bool) (ConstructorsArray, error) {
	entrySize := 8
	if !is64 {
		entrySize = 4
	}
	if len(raw)%entrySize != 0 {
		return ConstructorsArray{}, objerr.New(objerr.MalformedELF,
			"constructors array size %d is not a multiple of entry size %d", len(raw), entrySize)
	}
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)
	var ptrs []uint64
	for r.Remaining() > 0 {
		if is64 {
			v, err := r.ReadU64()
			if err != nil {
				return ConstructorsArray{}, err
			}
			ptrs = append(ptrs, v)
		} else {
			v, err := r.ReadU32()
			if err != nil {
				return ConstructorsArray{}, err
			}
			ptrs = append(ptrs, uint64(v))
		}
	}
	return ConstructorsArray{Pointers: ptrs}, nil
}
