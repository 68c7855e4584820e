// Package elf is a round-trip ELF64 (and ELF32) container codec: file
// header, program headers, section headers, and the section families
// needed to drive disassembly (spec.md §3.2, §4.2, §4.3).
package elf

// Class is the ELF file class (32-bit or 64-bit).
type Class uint8

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

// DataEncoding is the byte order the file was written in.
type DataEncoding uint8

const (
	DataNone DataEncoding = 0
	DataLSB  DataEncoding = 1 // little-endian
	DataMSB  DataEncoding = 2 // big-endian
)

// ObjectType is the e_type field (ET_*).
type ObjectType uint16

const (
	ETNone ObjectType = 0
	ETRel  ObjectType = 1
	ETExec ObjectType = 2
	ETDyn  ObjectType = 3
	ETCore ObjectType = 4
)

// Machine is the e_machine field (EM_*). Only the ISAs relevant to this
// module's x86-64 focus are named; others round-trip as their raw value.
type Machine uint16

const (
	EMNone  Machine = 0
	EM386   Machine = 3
	EMX8664 Machine = 62
)

// SectionType is the sh_type field (SHT_*).
type SectionType uint32

const (
	SHTNull          SectionType = 0
	SHTProgBits      SectionType = 1
	SHTSymTab        SectionType = 2
	SHTStrTab        SectionType = 3
	SHTRela          SectionType = 4
	SHTHash          SectionType = 5
	SHTDynamic       SectionType = 6
	SHTNote          SectionType = 7
	SHTNoBits        SectionType = 8
	SHTRel           SectionType = 9
	SHTShlib         SectionType = 10
	SHTDynSym        SectionType = 11
	SHTInitArray     SectionType = 14
	SHTFiniArray     SectionType = 15
	SHTPreinitArray  SectionType = 16
	SHTGroup         SectionType = 17
	SHTSymTabShndx   SectionType = 18
	SHTGNUHash       SectionType = 0x6ffffff6
	SHTGNUVerdef     SectionType = 0x6ffffffd
	SHTGNUVerneed    SectionType = 0x6ffffffe
	SHTGNUVersym     SectionType = 0x6fffffff
)

// Section header flags (SHF_*), OR-combined in SectionHeader.Flags.
const (
	SHFWrite     uint64 = 0x1
	SHFAlloc     uint64 = 0x2
	SHFExecInstr uint64 = 0x4
	SHFMerge     uint64 = 0x10
	SHFStrings   uint64 = 0x20
	SHFInfoLink  uint64 = 0x40
	SHFTLS       uint64 = 0x400
)

// ProgramType is the p_type field (PT_*).
type ProgramType uint32

const (
	PTNull     ProgramType = 0
	PTLoad     ProgramType = 1
	PTDynamic  ProgramType = 2
	PTInterp   ProgramType = 3
	PTNote     ProgramType = 4
	PTShlib    ProgramType = 5
	PTPhdr     ProgramType = 6
	PTTLS      ProgramType = 7
	PTGNUEHFrame ProgramType = 0x6474e550
	PTGNURelro   ProgramType = 0x6474e552
	PTGNUStack   ProgramType = 0x6474e551
)

// Program header flags (PF_*).
const (
	PFExec  uint32 = 0x1
	PFWrite uint32 = 0x2
	PFRead  uint32 = 0x4
)

// SymbolBinding is the high nibble of a symbol's st_info (STB_*).
type SymbolBinding uint8

const (
	STBLocal  SymbolBinding = 0
	STBGlobal SymbolBinding = 1
	STBWeak   SymbolBinding = 2
)

// SymbolType is the low nibble of a symbol's st_info (STT_*).
type SymbolType uint8

const (
	STTNoType  SymbolType = 0
	STTObject  SymbolType = 1
	STTFunc    SymbolType = 2
	STTSection SymbolType = 3
	STTFile    SymbolType = 4
	STTCommon  SymbolType = 5
	STTTLS     SymbolType = 6
)

// SymbolVisibility is the low 2 bits of a symbol's st_other (STV_*).
type SymbolVisibility uint8

const (
	STVDefault   SymbolVisibility = 0
	STVInternal  SymbolVisibility = 1
	STVHidden    SymbolVisibility = 2
	STVProtected SymbolVisibility = 3
)

// RelocationType is the low 32 bits of a 64-bit relocation's r_info field,
// x86-64 specific (R_X86_64_*).
type RelocationType uint32

const (
	RX8664None     RelocationType = 0
	RX8664_64      RelocationType = 1
	RX8664PC32     RelocationType = 2
	RX8664PLT32    RelocationType = 4
	RX8664Copy     RelocationType = 5
	RX8664GlobDat  RelocationType = 6
	RX8664JumpSlot RelocationType = 7
	RX8664Relative RelocationType = 8
)

// DynamicTag is the d_tag field (DT_*).
type DynamicTag int64

const (
	DTNull     DynamicTag = 0
	DTNeeded   DynamicTag = 1
	DTPLTRelSz DynamicTag = 2
	DTPLTGOT   DynamicTag = 3
	DTHash     DynamicTag = 4
	DTStrTab   DynamicTag = 5
	DTSymTab   DynamicTag = 6
	DTRela     DynamicTag = 7
	DTRelaSz   DynamicTag = 8
	DTRelaEnt  DynamicTag = 9
	DTStrSz    DynamicTag = 10
	DTSymEnt   DynamicTag = 11
	DTInit     DynamicTag = 12
	DTFini     DynamicTag = 13
	DTSoname   DynamicTag = 14
	DTPLTRel   DynamicTag = 20
	DTDebug    DynamicTag = 21
	DTTextRel  DynamicTag = 22
	DTJmpRel   DynamicTag = 23
	DTGNUHash  DynamicTag = 0x6ffffef5
)
