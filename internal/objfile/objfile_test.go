package objfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringTable_DeduplicatesAndReturnsStableOffsets(t *testing.T) {
	st := NewStringTable()
	off1 := st.Append("msg")
	off2 := st.Append("other")
	off3 := st.Append("msg")

	assert.Equal(t, off1, off3)
	assert.NotEqual(t, off1, off2)

	got, err := StringAt(st.Bytes(), off1)
	require.NoError(t, err)
	assert.Equal(t, "msg", got)

	got, err = StringAt(st.Bytes(), off2)
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestWriterReader_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.Code = []byte{0x3E, 0x2A}
	w.Data = []byte{0x48, 0x69, 0x00}
	w.BssSize = 4

	nameOff := w.Strings.Append("msg")
	w.Symbols = append(w.Symbols, SymbolRecord{
		NameOffset: nameOff,
		Section:    SectionData,
		Flags:      SymExport,
		Value:      0,
	})

	extOff := w.Strings.Append("_printf")
	w.Externs = append(w.Externs, ExternalRecord{NameOffset: extOff, SymbolIndex: 0})

	w.Relocations = append(w.Relocations, RelocationRecord{
		Offset:     0,
		Section:    SectionCode,
		Type:       RelocAddr24,
		TargetSect: SectionAbs,
		ExtIndex:   0,
	})

	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	obj, err := ReadObject(&buf)
	require.NoError(t, err)

	assert.Equal(t, uint8(CurrentVersion), obj.Header.Version)
	assert.Equal(t, w.Code, obj.Code)
	assert.Equal(t, w.Data, obj.Data)
	assert.Equal(t, uint32(4), obj.Header.BssSize)
	require.Len(t, obj.Symbols, 1)
	name, err := obj.String(obj.Symbols[0].NameOffset)
	require.NoError(t, err)
	assert.Equal(t, "msg", name)
	assert.Equal(t, SectionData, obj.Symbols[0].Section)
	assert.Equal(t, SymExport, obj.Symbols[0].Flags)

	require.Len(t, obj.Externs, 1)
	extName, err := obj.String(obj.Externs[0].NameOffset)
	require.NoError(t, err)
	assert.Equal(t, "_printf", extName)

	require.Len(t, obj.Relocations, 1)
	assert.Equal(t, RelocAddr24, obj.Relocations[0].Type)
	assert.Equal(t, SectionAbs, obj.Relocations[0].TargetSect)
}

func TestReadHeader_RejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, []byte{0, 0, 0, 0})
	_, err := ReadHeader(buf)
	require.Error(t, err)
}

func TestReadHeader_RejectsUnsupportedVersion(t *testing.T) {
	buf := Header{Version: CurrentVersion + 1}.encode()
	_, err := ReadHeader(buf)
	require.Error(t, err)
}

func TestDump_WritesAllSections(t *testing.T) {
	w := NewWriter()
	w.Code = []byte{0x00}
	off := w.Strings.Append("foo")
	w.Symbols = append(w.Symbols, SymbolRecord{NameOffset: off, Section: SectionCode, Flags: SymExport})

	var objBuf bytes.Buffer
	_, err := w.WriteTo(&objBuf)
	require.NoError(t, err)
	obj, err := ReadObject(&objBuf)
	require.NoError(t, err)

	var out bytes.Buffer
	err = Dump(&out, "test.o", obj, DumpOptions{Color: false})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "foo")
	assert.Contains(t, out.String(), "Symbols (1)")
}
