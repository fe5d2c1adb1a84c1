package asm

import (
	"testing"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelloOpcode(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nld a, 42\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0x3E, 0x2A}, w.Code)
	assert.Empty(t, w.Symbols)
}

func Test24BitImmediate(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nld hl, 0x123456\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0x21, 0x56, 0x34, 0x12}, w.Code)
}

func TestDataWithExportedSymbol(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nxdef msg\nmsg: db \"Hi\", 0\nend\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0x48, 0x69, 0x00}, w.Code)
	require.Len(t, w.Symbols, 1)

	name, err := objfile.StringAt(w.Strings.Bytes(), w.Symbols[0].NameOffset)
	require.NoError(t, err)
	assert.Equal(t, "msg", name)
	assert.Equal(t, objfile.SectionCode, w.Symbols[0].Section)
	assert.EqualValues(t, 0, w.Symbols[0].Value)
}

func TestForwardReferenceJR(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\njr later\nnop\nlater: nop\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0x18, 0x01, 0x00, 0x00}, w.Code)
}

func TestLDMatrixRow_HL(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nld bc, (hl)\nld (hl), bc\nld ix, (hl)\nld (hl), ix\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0xED, 0x07, 0xED, 0x0F, 0xED, 0x37, 0xED, 0x3F}, w.Code)
}

func TestLDMatrixRow_IXIndexed(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nld de, (ix+4)\nld (ix-4), de\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0xDD, 0x17, 0x04, 0xDD, 0x1F, 0xFC}, w.Code)
}

func TestIndexPrefixConflictRejected(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	_, err := a.AssembleSource("assume adl=1\nld ixh, iyl\n")
	assert.Error(t, err)
	assert.Greater(t, a.ErrorCount(), 0)
}

func TestPCStableAcrossPasses(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\norg 0x8000\nstart:\nld a, 1\njr start\ndb 1,2,3\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Len(t, w.Code, 7)
}

func TestLocalLabelScoping(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("" +
		"assume adl=1\n" +
		"funcA:\n" +
		"@loop: djnz @loop\n" +
		"funcB:\n" +
		"@loop: djnz @loop\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	// Each djnz targets its own immediately-preceding label, so both
	// displacements must be the same small backward offset, not a forward
	// jump into the other function's scope.
	require.Len(t, w.Code, 4)
	assert.Equal(t, w.Code[1], w.Code[3])
}

func TestDivisionByZeroReportsErrorAndContinues(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	_, err := a.AssembleSource("assume adl=1\nratio equ 1/0\nld a, 1\n")
	assert.Error(t, err)
	assert.Equal(t, 1, a.ErrorCount())
}

func TestRelocationCancellation(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nsym1: nop\nsym2: nop\ndl sym1 - sym2\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Empty(t, w.Relocations)
}

func TestDeterministicOutput(t *testing.T) {
	src := "assume adl=1\nld a, 1\nld hl, 0x112233\n"
	a1 := NewAssembler("test.asm", nil)
	w1, err := a1.AssembleSource(src)
	require.NoError(t, err)
	a2 := NewAssembler("test.asm", nil)
	w2, err := a2.AssembleSource(src)
	require.NoError(t, err)
	assert.Equal(t, w1.Code, w2.Code)
}

// A forward reference to a local label must resolve in pass 2 the same way
// it did in pass 1: the scope counter has to restart at the same value both
// passes, or the pass-2 lookup lands in a scope the label hasn't been
// defined into yet.
func TestForwardReferenceToLocalLabel(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nstart:\njr @skip\nnop\n@skip:\nnop\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Equal(t, []byte{0x18, 0x01, 0x00, 0x00}, w.Code)
}

// equ/'=' must not advance the local-label scope counter: it isn't a label
// definition, so a local label defined before it must still be reachable by
// name after it.
func TestEquDoesNotAdvanceLocalScope(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\nfunc:\n@loop: nop\nconst equ 5\ndjnz @loop\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	assert.Len(t, w.Code, 3)
}

// A relocation's recorded offset must track the section buffer's actual
// length, not the PC, since `org` can set the PC to a value unrelated to
// how many bytes have been written into the section so far.
func TestRelocationOffsetUsesBufferPositionNotOrgPC(t *testing.T) {
	a := NewAssembler("test.asm", nil)
	w, err := a.AssembleSource("assume adl=1\norg 0x8000\ndl sym\nsym: nop\n")
	require.NoError(t, err, "diagnostics: %v", a.Diagnostics)
	require.Len(t, w.Relocations, 1)
	assert.EqualValues(t, 0, w.Relocations[0].Offset)
	assert.Equal(t, objfile.SectionCode, w.Relocations[0].Section)
}
