package objfile

import (
	"bytes"
	"io"
)

// Writer assembles a complete object file stream: header, code, data,
// symbols (exported only), relocations, externs, string table (spec.md
// §4.7). It is the object-file-format half of internal/asm's two-pass
// pipeline; the assembler fills one in once pass 2 completes.
type Writer struct {
	Code    []byte
	Data    []byte
	BssSize uint32

	Symbols     []SymbolRecord
	Relocations []RelocationRecord
	Externs     []ExternalRecord
	Strings     *StringTable
}

func NewWriter() *Writer {
	return &Writer{Strings: NewStringTable()}
}

// WriteTo serializes the object to w. The header is logically written
// twice: a zeroed placeholder is emitted first and the buffer is rewound
// to fill in the final sizes once every section is known, matching
// spec.md §4.7 exactly. Because io.Writer is not generally seekable, the
// "rewind" happens against an in-memory buffer that is then copied to w
// in a single pass.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	var buf bytes.Buffer

	placeholder := Header{}.encode()
	buf.Write(placeholder)

	buf.Write(w.Code)
	buf.Write(w.Data)

	for _, s := range w.Symbols {
		buf.Write(s.encode())
	}
	for _, r := range w.Relocations {
		buf.Write(r.encode())
	}
	for _, e := range w.Externs {
		buf.Write(e.encode())
	}
	buf.Write(w.Strings.Bytes())

	final := Header{
		Version:         CurrentVersion,
		CodeSize:        uint32(len(w.Code)),
		DataSize:        uint32(len(w.Data)),
		BssSize:         w.BssSize,
		NumSymbols:      uint32(len(w.Symbols)),
		NumRelocations:  uint32(len(w.Relocations)),
		NumExterns:      uint32(len(w.Externs)),
		StringTableSize: w.Strings.Size(),
	}.encode()
	copy(buf.Bytes()[0:HeaderSize], final)

	n, err := dst.Write(buf.Bytes())
	return int64(n), err
}

// Size returns the total on-disk size the object will occupy, without
// serializing it. Used by the linker's archive scanner to walk a library
// without loading each member.
func (h Header) Size() int64 {
	return int64(HeaderSize) +
		int64(h.CodeSize) + int64(h.DataSize) +
		int64(h.NumSymbols)*SymbolSize +
		int64(h.NumRelocations)*RelocSize +
		int64(h.NumExterns)*ExternalSize +
		int64(h.StringTableSize)
}
