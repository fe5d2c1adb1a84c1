package objfile

import "fmt"

// StringTable accumulates NUL-terminated names and hands out their byte
// offsets, exactly as described by spec.md §4.7 ("string table offsets are
// assigned as names are appended to a scratch buffer").
type StringTable struct {
	buf     []byte
	offsets map[string]uint32
}

func NewStringTable() *StringTable {
	return &StringTable{offsets: make(map[string]uint32)}
}

// Append adds name to the table (deduplicating identical names) and
// returns its byte offset.
func (t *StringTable) Append(name string) uint32 {
	if off, ok := t.offsets[name]; ok {
		return off
	}
	off := uint32(len(t.buf))
	t.buf = append(t.buf, []byte(name)...)
	t.buf = append(t.buf, 0)
	t.offsets[name] = off
	return off
}

func (t *StringTable) Bytes() []byte { return t.buf }
func (t *StringTable) Size() uint32  { return uint32(len(t.buf)) }

// StringAt returns the NUL-terminated string starting at offset within raw.
func StringAt(raw []byte, offset uint32) (string, error) {
	if int(offset) > len(raw) {
		return "", fmt.Errorf("string table offset %d out of range (size %d)", offset, len(raw))
	}
	end := int(offset)
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	if end >= len(raw) {
		return "", fmt.Errorf("string table entry at offset %d is not NUL-terminated", offset)
	}
	return string(raw[offset:end]), nil
}
