package objfile

import (
	"fmt"
	"io"
)

// Object is a fully parsed in-memory object file.
type Object struct {
	Header Header

	Code []byte
	Data []byte

	Symbols     []SymbolRecord
	Relocations []RelocationRecord
	Externs     []ExternalRecord
	Strings     []byte
}

// ReadHeader decodes just the 27-byte header from buf, the operation the
// linker's archive scanner performs repeatedly without loading whole
// objects (spec.md §4.8).
func ReadHeader(buf []byte) (Header, error) {
	return decodeHeader(buf)
}

// ParseObject decodes a complete object file already held in memory
// (e.g. a library member sliced out by the archive scanner).
func ParseObject(buf []byte) (*Object, error) {
	h, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	want := h.Size()
	if int64(len(buf)) < want {
		return nil, fmt.Errorf("object file truncated: have %d bytes, header declares %d", len(buf), want)
	}

	off := int64(HeaderSize)
	code := buf[off : off+int64(h.CodeSize)]
	off += int64(h.CodeSize)
	data := buf[off : off+int64(h.DataSize)]
	off += int64(h.DataSize)

	symbols := make([]SymbolRecord, h.NumSymbols)
	for i := range symbols {
		symbols[i] = decodeSymbol(buf[off : off+SymbolSize])
		off += SymbolSize
	}

	relocations := make([]RelocationRecord, h.NumRelocations)
	for i := range relocations {
		relocations[i] = decodeRelocation(buf[off : off+RelocSize])
		off += RelocSize
	}

	externs := make([]ExternalRecord, h.NumExterns)
	for i := range externs {
		externs[i] = decodeExternal(buf[off : off+ExternalSize])
		off += ExternalSize
	}

	strtab := buf[off : off+int64(h.StringTableSize)]

	return &Object{
		Header:      h,
		Code:        code,
		Data:        data,
		Symbols:     symbols,
		Relocations: relocations,
		Externs:     externs,
		Strings:     strtab,
	}, nil
}

// ReadObject reads and parses one complete object file from r.
func ReadObject(r io.Reader) (*Object, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object file: %w", err)
	}
	return ParseObject(buf)
}

// String looks up a NUL-terminated name in the object's string table.
func (o *Object) String(offset uint32) (string, error) {
	return StringAt(o.Strings, offset)
}
