// Package objfile implements the eZ80 ADL toolchain's relocatable object
// file format: a 24-bit little-endian binary layout with code/data/BSS
// sections, a symbol table, a relocation table, an externals table and a
// shared string table (spec.md §4.7, §6).
package objfile

import "fmt"

// Section identifies which section a symbol or relocation belongs to.
type Section uint8

const (
	SectionAbs  Section = 0
	SectionCode Section = 1
	SectionData Section = 2
	SectionBss  Section = 3
)

func (s Section) String() string {
	switch s {
	case SectionAbs:
		return "abs"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	case SectionBss:
		return "bss"
	default:
		return fmt.Sprintf("section(%d)", uint8(s))
	}
}

// SymbolFlags records a symbol's visibility.
type SymbolFlags uint8

const (
	SymLocal  SymbolFlags = 0
	SymExport SymbolFlags = 1
	SymExtern SymbolFlags = 2
)

func (f SymbolFlags) String() string {
	switch f {
	case SymLocal:
		return "local"
	case SymExport:
		return "export"
	case SymExtern:
		return "extern"
	default:
		return fmt.Sprintf("flags(%d)", uint8(f))
	}
}

// RelocType identifies the kind of patch a relocation record requests.
// Addr24 is the only relocation type the format defines.
type RelocType uint8

const RelocAddr24 RelocType = 1

// Magic is the 4-byte file signature, "EZ8O".
var Magic = [4]byte{0x45, 0x5A, 0x38, 0x4F}

const CurrentVersion = 3

const (
	HeaderSize   = 27
	SymbolSize   = 10
	RelocSize    = 8
	ExternalSize = 6
)
