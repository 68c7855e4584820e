package elf

import (
	"github.com/xyproto/xdis/internal/buffer"
	"github.com/xyproto/xdis/internal/objerr"
)

// GnuHash computes the GNU-style symbol hash (glibc's dl_new_hash), used by
// SHT_GNU_HASH sections to bucket exported symbols. The seed is 5381; a
// string that consumes no bytes returns the seed unchanged, so
// GnuHash("") == 0x00001505.
func GnuHash(name string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 + uint32(name[i])
	}
	return h
}

// GnuHashTable is a SHT_GNU_HASH section's payload (spec.md §3.2). It holds
// the bucket/chain/bloom-filter layout glibc's dynamic linker walks to
// resolve a symbol name without scanning the whole symbol table linearly.
type GnuHashTable struct {
	SymIndex   uint32 // index of the first symbol covered by this table
	BloomShift uint32
	Bloom      []uint64
	Buckets    []uint32
	Chains     []uint32
}

func (GnuHashTable) payloadKind() string { return "GnuHashTable" }

func parseGnuHashTable(raw []byte, endian buffer.Endian, numSymbols uint32) (GnuHashTable, error) {
	if len(raw)%4 != 0 {
		return GnuHashTable{}, objerr.New(objerr.MalformedELF,
			"GNU hash section size %d is not a multiple of 4", len(raw))
	}
	r := buffer.NewReader(raw, endian)
	r.SetAlignment(1)

	nbuckets, err := r.ReadU32()
	if err != nil {
		return GnuHashTable{}, objerr.New(objerr.MalformedELF, "truncated gnu_hash nbuckets: %v", err)
	}
	symIndex, err := r.ReadU32()
	if err != nil {
		return GnuHashTable{}, err
	}
	maskWords, err := r.ReadU32()
	if err != nil {
		return GnuHashTable{}, err
	}
	shift, err := r.ReadU32()
	if err != nil {
		return GnuHashTable{}, err
	}

	bloom := make([]uint64, maskWords)
	for i := range bloom {
		w, err := r.ReadU64()
		if err != nil {
			return GnuHashTable{}, objerr.New(objerr.MalformedELF, "truncated gnu_hash bloom word %d: %v", i, err)
		}
		bloom[i] = w
	}

	buckets := make([]uint32, nbuckets)
	for i := range buckets {
		b, err := r.ReadU32()
		if err != nil {
			return GnuHashTable{}, objerr.New(objerr.MalformedELF, "truncated gnu_hash bucket %d: %v", i, err)
		}
		buckets[i] = b
	}

	var chains []uint32
	if numSymbols > symIndex {
		chains = make([]uint32, numSymbols-symIndex)
		for i := range chains {
			c, err := r.ReadU32()
			if err != nil {
				return GnuHashTable{}, objerr.New(objerr.MalformedELF, "truncated gnu_hash chain %d: %v", i, err)
			}
			chains[i] = c
		}
	}

	return GnuHashTable{
		SymIndex:   symIndex,
		BloomShift: shift,
		Bloom:      bloom,
		Buckets:    buckets,
		Chains:     chains,
	}, nil
}

func writeGnuHashTable(t GnuHashTable, endian buffer.Endian) []byte {
	w := buffer.NewWriter(endian)
	w.SetAlignment(1)
	w.WriteU32(uint32(len(t.Buckets)))
	w.WriteU32(t.SymIndex)
	w.WriteU32(uint32(len(t.Bloom)))
	w.WriteU32(t.BloomShift)
	for _, word := range t.Bloom {
		w.WriteU64(word)
	}
	for _, b := range t.Buckets {
		w.WriteU32(b)
	}
	for _, c := range t.Chains {
		w.WriteU32(c)
	}
	return w.Bytes()
}

// Lookup walks the bucket/chain structure to find name among the symbols
// covered by this table, returning its symbol-table index and true on a
// match. It does not consult the bloom filter; that is purely a fast-path
// negative test a caller may run first.
func (t GnuHashTable) Lookup(name string, symtab []SymbolEntry) (uint32, bool) {
	if len(t.Buckets) == 0 {
		return 0, false
	}
	h := GnuHash(name)
	idx := t.Buckets[h%uint32(len(t.Buckets))]
	if idx < t.SymIndex {
		return 0, false
	}
	for {
		chainPos := idx - t.SymIndex
		if int(chainPos) >= len(t.Chains) {
			return 0, false
		}
		chainVal := t.Chains[chainPos]
		if chainVal|1 == (h | 1) {
			if int(idx) < len(symtab) && symtab[idx].Name == name {
				return idx, true
			}
		}
		if chainVal&1 != 0 {
			return 0, false
		}
		idx++
	}
}

// BloomMayContain applies the bloom-filter negative test: false means name
// is definitely absent; true means it might be present and the caller must
// fall through to Lookup.
func (t GnuHashTable) BloomMayContain(name string) bool {
	if len(t.Bloom) == 0 {
		return true
	}
	h := GnuHash(name)
	wordBits := uint32(64)
	word := t.Bloom[(h/wordBits)%uint32(len(t.Bloom))]
	bit1 := uint64(1) << (h % wordBits)
	bit2 := uint64(1) << ((h >> t.BloomShift) % wordBits)
	return word&bit1 != 0 && word&bit2 != 0
}
