package objfile

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/int24"
)

// Header is the 27-byte object file header.
type Header struct {
	Version         uint8
	Flags           uint8
	CodeSize        uint32
	DataSize        uint32
	BssSize         uint32
	NumSymbols      uint32
	NumRelocations  uint32
	NumExterns      uint32
	StringTableSize uint32
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = h.Version
	buf[5] = h.Flags
	int24.PutLE24(buf[6:9], h.CodeSize)
	int24.PutLE24(buf[9:12], h.DataSize)
	int24.PutLE24(buf[12:15], h.BssSize)
	int24.PutLE24(buf[15:18], h.NumSymbols)
	int24.PutLE24(buf[18:21], h.NumRelocations)
	int24.PutLE24(buf[21:24], h.NumExterns)
	int24.PutLE24(buf[24:27], h.StringTableSize)
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("object header truncated: got %d bytes, want %d", len(buf), HeaderSize)
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return Header{}, fmt.Errorf("invalid object file magic %02X%02X%02X%02X", buf[0], buf[1], buf[2], buf[3])
	}
	h := Header{
		Version:         buf[4],
		Flags:           buf[5],
		CodeSize:        int24.LE24(buf[6:9]),
		DataSize:        int24.LE24(buf[9:12]),
		BssSize:         int24.LE24(buf[12:15]),
		NumSymbols:      int24.LE24(buf[15:18]),
		NumRelocations:  int24.LE24(buf[18:21]),
		NumExterns:      int24.LE24(buf[21:24]),
		StringTableSize: int24.LE24(buf[24:27]),
	}
	if h.Version != CurrentVersion {
		return Header{}, fmt.Errorf("unsupported object file version %d (want %d)", h.Version, CurrentVersion)
	}
	return h, nil
}

// SymbolRecord is a 10-byte on-disk symbol table entry. Only exported
// symbols are ever written to this table (spec.md §4.7).
type SymbolRecord struct {
	NameOffset uint32
	Section    Section
	Flags      SymbolFlags
	Value      uint32
}

func (s SymbolRecord) encode() []byte {
	buf := make([]byte, SymbolSize)
	int24.PutLE24(buf[0:3], s.NameOffset)
	buf[3] = uint8(s.Section)
	buf[4] = uint8(s.Flags)
	int24.PutLE24(buf[5:8], s.Value)
	// buf[8:10] reserved, left zero.
	return buf
}

func decodeSymbol(buf []byte) SymbolRecord {
	return SymbolRecord{
		NameOffset: int24.LE24(buf[0:3]),
		Section:    Section(buf[3]),
		Flags:      SymbolFlags(buf[4]),
		Value:      int24.LE24(buf[5:8]),
	}
}

// RelocationRecord is an 8-byte on-disk relocation table entry.
type RelocationRecord struct {
	Offset     uint32
	Section    Section
	Type       RelocType
	TargetSect Section // SectionAbs(0) means "external, see ExtIndex"
	ExtIndex   uint16
}

func (r RelocationRecord) encode() []byte {
	buf := make([]byte, RelocSize)
	int24.PutLE24(buf[0:3], r.Offset)
	buf[3] = uint8(r.Section)
	buf[4] = uint8(r.Type)
	buf[5] = uint8(r.TargetSect)
	buf[6] = byte(r.ExtIndex)
	buf[7] = byte(r.ExtIndex >> 8)
	return buf
}

func decodeRelocation(buf []byte) RelocationRecord {
	return RelocationRecord{
		Offset:     int24.LE24(buf[0:3]),
		Section:    Section(buf[3]),
		Type:       RelocType(buf[4]),
		TargetSect: Section(buf[5]),
		ExtIndex:   uint16(buf[6]) | uint16(buf[7])<<8,
	}
}

// ExternalRecord is a 6-byte on-disk external-reference table entry.
type ExternalRecord struct {
	NameOffset  uint32
	SymbolIndex uint32
}

func (e ExternalRecord) encode() []byte {
	buf := make([]byte, ExternalSize)
	int24.PutLE24(buf[0:3], e.NameOffset)
	int24.PutLE24(buf[3:6], e.SymbolIndex)
	return buf
}

func decodeExternal(buf []byte) ExternalRecord {
	return ExternalRecord{
		NameOffset:  int24.LE24(buf[0:3]),
		SymbolIndex: int24.LE24(buf[3:6]),
	}
}
