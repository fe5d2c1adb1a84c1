package asm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// FileOpener reads the contents of an included/incbin'd file. Supplying it
// keeps file-opening an external collaborator injected by the driver
// (cmd/as), rather than something internal/asm reaches for directly.
type FileOpener func(path string) ([]byte, error)

// Diagnostic is one reported error or warning, tagged with the source
// location it occurred at.
type Diagnostic struct {
	File    string
	Line    int
	Warning bool
	Err     error
}

// sectionState tracks one section's program counter and, for Code/Data,
// its accumulated byte buffer. BSS never buffers bytes (spec.md §4.7): it
// only advances PC.
type sectionState struct {
	pc  int24.Int24
	buf *bytes.Buffer
}

// Assembler is the owning context threaded through every pass-1/pass-2
// operation (spec.md §9's "assembler context" design note): symbol table,
// current section, per-section PC/scratch buffers, and diagnostics.
type Assembler struct {
	Symbols *SymbolTable
	Open    FileOpener

	Pass    int
	section objfile.Section
	sects   map[objfile.Section]*sectionState

	file string
	line int

	adlAsserted bool

	Diagnostics []Diagnostic
	errorCount  int
	warnCount   int

	Relocations []objfile.RelocationRecord
}

// NewAssembler creates an Assembler ready to run pass 1 against file.
func NewAssembler(file string, open FileOpener) *Assembler {
	a := &Assembler{
		Symbols: NewSymbolTable(),
		Open:    open,
		file:    file,
		section: objfile.SectionCode,
		sects: map[objfile.Section]*sectionState{
			objfile.SectionCode: {buf: &bytes.Buffer{}},
			objfile.SectionData: {buf: &bytes.Buffer{}},
			objfile.SectionBss:  {},
		},
	}
	return a
}

// ErrorCount/WarningCount report the diagnostic counts of the last
// assembly run. cmd/as takes its exit code from the buildlog.Logger it
// feeds a.Diagnostics into, not from these (spec.md §6).
func (a *Assembler) ErrorCount() int   { return a.errorCount }
func (a *Assembler) WarningCount() int { return a.warnCount }

func (a *Assembler) reportf(warning bool, format string, args ...any) {
	d := Diagnostic{File: a.file, Line: a.line, Warning: warning, Err: fmt.Errorf(format, args...)}
	a.Diagnostics = append(a.Diagnostics, d)
	if warning {
		a.warnCount++
	} else {
		a.errorCount++
	}
}

func (a *Assembler) errorAt(err error) {
	d := Diagnostic{File: a.file, Line: a.line, Err: err}
	a.Diagnostics = append(a.Diagnostics, d)
	a.errorCount++
}

func (a *Assembler) warnAt(err error) {
	d := Diagnostic{File: a.file, Line: a.line, Warning: true, Err: err}
	a.Diagnostics = append(a.Diagnostics, d)
	a.warnCount++
}

// PC returns the current section's program counter.
func (a *Assembler) PC() int24.Int24 {
	return a.sects[a.section].pc
}

// Section returns the section currently being assembled into.
func (a *Assembler) Section() objfile.Section { return a.section }

// bufOffset returns the number of bytes already written to the current
// section's buffer. Unlike PC, this is unaffected by `org` (spec.md §4.5),
// so it is the correct byte offset for a relocation record: the linker
// patches the serialized section buffer, not an address space the PC may
// have jumped around in.
func (a *Assembler) bufOffset() int {
	st := a.sects[a.section]
	if st.buf == nil {
		return 0
	}
	return st.buf.Len()
}

// SwitchSection saves the outgoing section's cursor implicitly (each
// section keeps its own state permanently) and makes sect the active one.
func (a *Assembler) SwitchSection(sect objfile.Section) {
	a.section = sect
}

// SetOrigin assigns the current section's PC directly (the `org` directive).
func (a *Assembler) SetOrigin(pc int24.Int24) {
	a.sects[a.section].pc = pc
}

// advance moves the current section's PC forward by n bytes, without
// touching any buffer. Used for BSS and for the PC side-effect that always
// accompanies a buffered emit.
func (a *Assembler) advance(n int) {
	st := a.sects[a.section]
	st.pc = st.pc.Add(int24.New(n))
}

// emit appends raw bytes to the current section's buffer (pass 2 only) and
// advances PC (both passes). Pass 1 only needs the PC side effect since no
// object is written until pass 2.
func (a *Assembler) emit(bs ...byte) {
	st := a.sects[a.section]
	if a.Pass == 2 && st.buf != nil {
		st.buf.Write(bs)
	}
	st.pc = st.pc.Add(int24.New(len(bs)))
}

// recordRelocation appends a relocation record for the 24-bit field about
// to be written at the section's current offset, resolving target_sect/
// ext_index from the symbol's nature (spec.md §4.6, §4.10).
func (a *Assembler) recordRelocation(symName string) (targetSect objfile.Section, extIndex int, isExtern bool, err error) {
	sym, ok := a.Symbols.Find(symName)
	if !ok {
		return 0, 0, false, fmt.Errorf("%w: %q", ErrUndefinedSymbol, symName)
	}
	if sym.Flags == objfile.SymExtern {
		idx, _ := a.Symbols.ExternIndex(symName)
		return objfile.SectionAbs, idx, true, nil
	}
	if !sym.Defined {
		return 0, 0, false, fmt.Errorf("%w: %q", ErrUndefinedSymbol, symName)
	}
	return sym.Section, 0, false, nil
}

// emit24 writes a 24-bit little-endian field. If v carries a symbol, a
// relocation record is appended (pass 2 only) and the written bytes are the
// section-relative symbol value (0 for an external).
func (a *Assembler) emit24(v Value) {
	var raw uint32
	if v.HasSym {
		if a.Pass == 2 {
			targetSect, extIndex, isExtern, err := a.recordRelocation(v.Sym)
			if err != nil {
				a.errorAt(err)
			} else {
				a.Relocations = append(a.Relocations, objfile.RelocationRecord{
					Offset:     uint32(a.bufOffset()),
					Section:    a.section,
					Type:       objfile.RelocAddr24,
					TargetSect: targetSect,
					ExtIndex:   uint16(extIndex),
				})
				if !isExtern {
					if sym, ok := a.Symbols.Find(v.Sym); ok {
						raw = sym.Value.Unsigned24()
					}
				}
			}
		}
	} else {
		raw = v.N.Unsigned24()
	}
	a.emit(byte(raw), byte(raw>>8), byte(raw>>16))
}

func (a *Assembler) emit16(v Value) error {
	if v.HasSym {
		return fmt.Errorf("%w: relocatable operand not allowed in a 16-bit field (use dl)", ErrBadOperand)
	}
	w := v.N.Word()
	a.emit(byte(w), byte(w>>8))
	return nil
}

func (a *Assembler) emit8(v Value) error {
	if v.HasSym {
		return fmt.Errorf("%w: relocatable operand not allowed in an 8-bit field (use dl)", ErrBadOperand)
	}
	a.emit(v.N.Byte())
	return nil
}

// evaluator builds an Evaluator bound to this context's symbol table, pass
// number and live PC.
func (a *Assembler) evaluator() *Evaluator {
	return &Evaluator{Symbols: a.Symbols, PC: a.PC, Pass: a.Pass}
}

// AssembleSource runs both passes over src's lines and returns a populated
// objfile.Writer on success. Diagnostics accumulated along the way are
// available via a.Diagnostics regardless of the returned error.
func (a *Assembler) AssembleSource(src string) (*objfile.Writer, error) {
	lines := strings.Split(src, "\n")

	a.Pass = 1
	a.assembleLines(a.file, lines)

	a.sects[objfile.SectionCode].pc = 0
	a.sects[objfile.SectionData].pc = 0
	a.sects[objfile.SectionBss].pc = 0
	a.sects[objfile.SectionCode].buf.Reset()
	a.sects[objfile.SectionData].buf.Reset()
	a.section = objfile.SectionCode
	a.Symbols.ResetScope()
	// Pass 2 re-reports every problem with final symbol values, so pass 1's
	// diagnostics are dropped to report each one once.
	a.Diagnostics = nil
	a.errorCount = 0
	a.warnCount = 0

	a.Pass = 2
	a.assembleLines(a.file, lines)

	if a.errorCount > 0 {
		return nil, fmt.Errorf("assembly failed with %d error(s)", a.errorCount)
	}

	return a.buildObject(), nil
}

func (a *Assembler) buildObject() *objfile.Writer {
	w := objfile.NewWriter()
	w.Code = a.sects[objfile.SectionCode].buf.Bytes()
	w.Data = a.sects[objfile.SectionData].buf.Bytes()
	w.BssSize = uint32(a.sects[objfile.SectionBss].pc.Unsigned24())
	w.Relocations = a.Relocations

	for _, sym := range a.Symbols.All() {
		if sym.Flags != objfile.SymExport {
			continue
		}
		off := w.Strings.Append(sym.Name)
		w.Symbols = append(w.Symbols, objfile.SymbolRecord{
			NameOffset: off,
			Section:    sym.Section,
			Flags:      sym.Flags,
			Value:      sym.Value.Unsigned24(),
		})
	}

	for i, name := range a.Symbols.Externs() {
		off := w.Strings.Append(name)
		w.Externs = append(w.Externs, objfile.ExternalRecord{NameOffset: off, SymbolIndex: uint32(i)})
	}

	return w
}

// assembleLines processes one file's lines in order, restoring the
// caller's (file, line) context on return so that `include` can recurse
// into it and pick back up exactly where it left off (spec.md §4.5).
func (a *Assembler) assembleLines(file string, lines []string) {
	savedFile, savedLine := a.file, a.line
	a.file = file
	for i, raw := range lines {
		a.line = i + 1
		a.assembleLine(raw)
	}
	a.file, a.line = savedFile, savedLine
}

func (a *Assembler) assembleLine(raw string) {
	lex := NewLexer(raw)

	tok := lex.Peek()
	var label string
	if tok.Kind == TokLabel {
		lex.Next()
		label = tok.Text
		tok = lex.Peek()
	} else if tok.Kind == TokIdent {
		// `name equ expr` / `name = expr` without a colon: look one token
		// past the identifier on a throwaway lexer over the same line.
		probe := NewLexer(raw)
		probe.Next()
		if next := probe.Peek(); next.Kind == TokEquals || (next.Kind == TokIdent && strings.EqualFold(next.Text, "equ")) {
			lex.Next()
			label = tok.Text
			tok = lex.Peek()
		}
	}

	isEqu := tok.Kind == TokEquals || (tok.Kind == TokIdent && strings.EqualFold(tok.Text, "equ"))

	if label != "" && !isEqu {
		a.defineLabel(label)
	}

	if tok.Kind == TokEOL || tok.Kind == TokEOF {
		return
	}

	if isEqu {
		lex.Next()
		a.handleEqu(label, lex)
		return
	}

	if tok.Kind != TokIdent {
		a.errorAt(fmt.Errorf("%w: expected a directive or mnemonic, found %s", ErrBadOperand, tok))
		return
	}

	name := tok.Text
	lower := strings.ToLower(name)

	if handler, ok := directiveTable[strings.TrimPrefix(lower, ".")]; ok {
		lex.Next()
		if err := handler(a, lex); err != nil {
			a.errorAt(err)
		}
		return
	}

	if err := a.encodeInstruction(lower, lex); err != nil {
		a.errorAt(err)
	}
}

func (a *Assembler) defineLabel(name string) {
	full := name
	if IsLocalLabel(name) {
		full = a.Symbols.MangleLocal(name)
	} else {
		defer a.Symbols.EnterScope()
	}
	if err := a.Symbols.Define(full, a.PC(), a.section); err != nil {
		a.errorAt(err)
	}
}

// handleEqu implements the `equ`/`=` symbol-definition family (spec.md
// §4.5): label is defined in the absolute section to a constant value. A
// relocatable right-hand side is only caught in pass 2, mirroring how
// forward references are tolerated during pass 1.
func (a *Assembler) handleEqu(label string, lex *Lexer) {
	if label == "" {
		a.errorAt(fmt.Errorf("%w: equ/'=' requires a label", ErrBadExpression))
		return
	}
	v, err := a.evaluator().Eval(lex)
	if err != nil {
		a.errorAt(err)
		return
	}
	if a.Pass == 2 && v.HasSym {
		a.errorAt(fmt.Errorf("%w: equ/'=' value must be a constant", ErrBadExpression))
		return
	}
	full := label
	if IsLocalLabel(label) {
		full = a.Symbols.MangleLocal(label)
	}
	if err := a.Symbols.Define(full, v.N, objfile.SectionAbs); err != nil {
		a.errorAt(err)
	}
}
