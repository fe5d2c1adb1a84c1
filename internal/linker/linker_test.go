package linker

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSym struct {
	name    string
	section objfile.Section
	value   uint32
}

type testReloc struct {
	offset     uint32
	section    objfile.Section
	targetSect objfile.Section
	extIndex   uint16
}

// mustBuildObject returns both the parsed object (for assertions) and its
// raw serialized bytes (for assembling test archives, since an archive is
// just a concatenation of already-serialized object files).
func mustBuildObject(t *testing.T, code, data []byte, bssSize uint32, exports []testSym, externs []string, relocs []testReloc) (*objfile.Object, []byte) {
	t.Helper()
	w := objfile.NewWriter()
	w.Code = code
	w.Data = data
	w.BssSize = bssSize

	for _, s := range exports {
		off := w.Strings.Append(s.name)
		w.Symbols = append(w.Symbols, objfile.SymbolRecord{
			NameOffset: off, Section: s.section, Flags: objfile.SymExport, Value: s.value,
		})
	}
	for _, name := range externs {
		off := w.Strings.Append(name)
		w.Externs = append(w.Externs, objfile.ExternalRecord{NameOffset: off})
	}
	for _, r := range relocs {
		w.Relocations = append(w.Relocations, objfile.RelocationRecord{
			Offset: r.offset, Section: r.section, Type: objfile.RelocAddr24,
			TargetSect: r.targetSect, ExtIndex: r.extIndex,
		})
	}

	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	obj, err := objfile.ParseObject(buf.Bytes())
	require.NoError(t, err)
	return obj, buf.Bytes()
}

func mustBuildArchive(members ...[]byte) []byte {
	var all []byte
	for _, m := range members {
		all = append(all, m...)
	}
	return all
}

func TestLinkerLayoutExample(t *testing.T) {
	a, _ := mustBuildObject(t, make([]byte, 0x10), nil, 0, nil, nil, nil)
	b, _ := mustBuildObject(t, make([]byte, 0x20), nil, 0, nil, nil, nil)

	ld := NewLinker(0x40000)
	require.NoError(t, ld.AddObject("a.o", a))
	require.NoError(t, ld.AddObject("b.o", b))

	_, err := ld.Link()
	require.NoError(t, err)

	layouts := ld.Layouts()
	assert.EqualValues(t, 0x40000, layouts[0].CodeBase)
	assert.EqualValues(t, 0x40010, layouts[1].CodeBase)

	code, _, _ := ld.Totals()
	assert.EqualValues(t, 0x30, code)

	low := ld.Globals()["__low_code"]
	length := ld.Globals()["__len_code"]
	require.NotNil(t, low)
	require.NotNil(t, length)
	assert.EqualValues(t, 0x40000, low.Addr)
	assert.EqualValues(t, 0x30, length.Addr)
}

func TestLinkerSelectiveLibraryLoading(t *testing.T) {
	_, libARaw := mustBuildObject(t, []byte{0xAA}, nil, 0,
		[]testSym{{name: "_printf", section: objfile.SectionCode, value: 0}}, nil, nil)
	_, libBRaw := mustBuildObject(t, []byte{0xBB}, nil, 0,
		[]testSym{{name: "_unused", section: objfile.SectionCode, value: 0}}, nil, nil)
	archive := mustBuildArchive(libARaw, libBRaw)

	main, _ := mustBuildObject(t, []byte{0x00}, nil, 0, nil, []string{"_printf"}, nil)

	ld := NewLinker(0)
	require.NoError(t, ld.AddObject("main.o", main))
	require.NoError(t, ld.AddLibrary("libc.a", archive))

	_, err := ld.Link()
	require.NoError(t, err)

	var names []string
	for _, lo := range ld.Objects() {
		names = append(names, lo.Name)
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "main.o")
	assert.Contains(t, joined, "member 0")
	assert.NotContains(t, joined, "member 1")
}

func TestLinkerIdempotence(t *testing.T) {
	_, libRaw := mustBuildObject(t, []byte{0xAA}, nil, 0,
		[]testSym{{name: "helper", section: objfile.SectionCode, value: 0}}, nil, nil)
	archive := mustBuildArchive(libRaw)
	main, _ := mustBuildObject(t, []byte{0x00}, nil, 0, nil, []string{"helper"}, nil)

	loader := NewLoader()
	require.NoError(t, loader.AddObject("main.o", main))
	require.NoError(t, loader.AddLibrary("lib.a", archive))

	require.NoError(t, loader.Resolve())
	firstCount := len(loader.Objects)

	require.NoError(t, loader.Resolve())
	assert.Len(t, loader.Objects, firstCount)
}

func TestLinkerDuplicateSymbolIsError(t *testing.T) {
	a, _ := mustBuildObject(t, []byte{0x00}, nil, 0,
		[]testSym{{name: "same", section: objfile.SectionCode, value: 0}}, nil, nil)
	b, _ := mustBuildObject(t, []byte{0x00}, nil, 0,
		[]testSym{{name: "same", section: objfile.SectionCode, value: 0}}, nil, nil)

	ld := NewLinker(0)
	require.NoError(t, ld.AddObject("a.o", a))
	require.NoError(t, ld.AddObject("b.o", b))

	_, err := ld.Link()
	assert.Error(t, err)
}

func TestLinkerUndefinedSymbolIsError(t *testing.T) {
	main, _ := mustBuildObject(t, []byte{0x00, 0x00, 0x00}, nil, 0, nil, []string{"missing"},
		[]testReloc{{offset: 0, section: objfile.SectionCode, targetSect: objfile.SectionAbs, extIndex: 0}})

	ld := NewLinker(0)
	require.NoError(t, ld.AddObject("main.o", main))

	_, err := ld.Link()
	assert.Error(t, err)
}

func TestLinkerIntraObjectRelocation(t *testing.T) {
	main, _ := mustBuildObject(t, []byte{0x00, 0x00, 0x00}, nil, 0, nil, nil,
		[]testReloc{{offset: 0, section: objfile.SectionCode, targetSect: objfile.SectionCode}})

	ld := NewLinker(0x1000)
	require.NoError(t, ld.AddObject("main.o", main))

	out, err := ld.Link()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x10, 0x00}, out)
}

func TestLinkerExternRelocation(t *testing.T) {
	_, libRaw := mustBuildObject(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00}, nil, 0,
		[]testSym{{name: "helper", section: objfile.SectionCode, value: 5}}, nil, nil)
	archive := mustBuildArchive(libRaw)

	main, _ := mustBuildObject(t, []byte{0x00, 0x00, 0x00}, nil, 0, nil, []string{"helper"},
		[]testReloc{{offset: 0, section: objfile.SectionCode, targetSect: objfile.SectionAbs, extIndex: 0}})

	ld := NewLinker(0x2000)
	require.NoError(t, ld.AddObject("main.o", main))
	require.NoError(t, ld.AddLibrary("lib.a", archive))

	out, err := ld.Link()
	require.NoError(t, err)
	// main's code is 3 bytes; lib's code base follows it.
	libCodeBase := 0x2000 + len(main.Code)
	want := uint32(libCodeBase) + 5
	assert.Equal(t, byte(want), out[0])
	assert.Equal(t, byte(want>>8), out[1])
	assert.Equal(t, byte(want>>16), out[2])
}

func TestLinkerDeterministicOutput(t *testing.T) {
	buildAndLink := func() ([]byte, error) {
		main, _ := mustBuildObject(t, []byte{0x3E, 0x2A}, nil, 0, nil, nil, nil)
		ld := NewLinker(0)
		if err := ld.AddObject("main.o", main); err != nil {
			return nil, err
		}
		return ld.Link()
	}

	out1, err := buildAndLink()
	require.NoError(t, err)
	out2, err := buildAndLink()
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}
