package asm

import (
	"fmt"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// ErrBadDirective is the sentinel wrapped by directive-level diagnostics.
var ErrBadDirective = fmt.Errorf("invalid directive")

type directiveHandler func(a *Assembler, lex *Lexer) error

// directiveTable maps every recognized directive spelling (including
// aliases) to its handler (spec.md §4.5).
var directiveTable = map[string]directiveHandler{
	"org": dirOrg,

	"db": dirByte, "defb": dirByte, "byte": dirByte, ".db": dirByte,
	"dw": dirWord, "defw": dirWord, "word": dirWord, ".dw": dirWord,
	"dl": dirLong, "defl": dirLong, "long": dirLong, "dd": dirLong, ".dl": dirLong,
	"ds": dirSpace, "defs": dirSpace, "rmb": dirSpace, "blkb": dirSpace,

	"ascii": dirAscii,
	"asciz": dirAsciz, "asciiz": dirAsciz,

	"section": dirSection, "segment": dirSection,

	"xdef": dirExport, "public": dirExport, "global": dirExport,
	"xref": dirExtern, "extern": dirExtern, "external": dirExtern,

	"assume": dirAssume,
	"align":  dirAlign,

	"include": dirInclude,
	"incbin":  dirIncbin,

	"end": dirEnd,
}

func dirOrg(a *Assembler, lex *Lexer) error {
	v, err := a.evaluator().Eval(lex)
	if err != nil {
		return err
	}
	if v.HasSym {
		return fmt.Errorf("%w: org requires a constant expression", ErrBadDirective)
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	a.SetOrigin(v.N)
	return nil
}

func dirByte(a *Assembler, lex *Lexer) error {
	return emitDataList(a, lex, func(v Value) error {
		if v.HasSym {
			return fmt.Errorf("%w: db/defb/byte rejects relocatable operands (use dl)", ErrBadDirective)
		}
		return a.emit8(v)
	}, func(s string) {
		for i := 0; i < len(s); i++ {
			a.emit(s[i])
		}
	})
}

func dirWord(a *Assembler, lex *Lexer) error {
	return emitDataList(a, lex, func(v Value) error {
		if v.HasSym {
			return fmt.Errorf("%w: dw/defw/word rejects relocatable operands (use dl)", ErrBadDirective)
		}
		return a.emit16(v)
	}, nil)
}

func dirLong(a *Assembler, lex *Lexer) error {
	return emitDataList(a, lex, func(v Value) error {
		a.emit24(v)
		return nil
	}, nil)
}

// emitDataList parses a comma-separated list of string/char/numeric
// expressions, shared by db/dw/dl. stringFn is nil for directives that
// don't accept string literals directly (dw, dl).
func emitDataList(a *Assembler, lex *Lexer, emit func(Value) error, stringFn func(string)) error {
	for {
		if lex.Peek().Kind == TokString && stringFn != nil {
			tok := lex.Next()
			stringFn(tok.Text)
		} else {
			v, err := a.evaluator().Eval(lex)
			if err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		if lex.Peek().Kind != TokComma {
			break
		}
		lex.Next()
	}
	return requireEOL(lex)
}

func dirSpace(a *Assembler, lex *Lexer) error {
	v, err := a.evaluator().Eval(lex)
	if err != nil {
		return err
	}
	if v.HasSym {
		return fmt.Errorf("%w: ds/defs/rmb/blkb count must be a constant", ErrBadDirective)
	}
	count := int(v.N.Unsigned24())

	fill := int24.New(0)
	if lex.Peek().Kind == TokComma {
		lex.Next()
		fv, err := a.evaluator().Eval(lex)
		if err != nil {
			return err
		}
		fill = fv.N
	}
	if err := requireEOL(lex); err != nil {
		return err
	}

	if a.section == objfile.SectionBss {
		a.advance(count)
		return nil
	}
	for i := 0; i < count; i++ {
		a.emit(fill.Byte())
	}
	return nil
}

func dirAscii(a *Assembler, lex *Lexer) error {
	return emitStringList(a, lex, false)
}

func dirAsciz(a *Assembler, lex *Lexer) error {
	return emitStringList(a, lex, true)
}

func emitStringList(a *Assembler, lex *Lexer, nulTerminate bool) error {
	for {
		tok := lex.Next()
		if tok.Kind != TokString {
			return fmt.Errorf("%w: expected a string literal, found %s", ErrBadDirective, tok)
		}
		for i := 0; i < len(tok.Text); i++ {
			a.emit(tok.Text[i])
		}
		if nulTerminate {
			a.emit(0)
		}
		if lex.Peek().Kind != TokComma {
			break
		}
		lex.Next()
	}
	return requireEOL(lex)
}

func dirSection(a *Assembler, lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokIdent {
		return fmt.Errorf("%w: expected a section name, found %s", ErrBadDirective, tok)
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	switch strings.ToLower(tok.Text) {
	case "code", "text", ".text":
		a.SwitchSection(objfile.SectionCode)
	case "data", ".data":
		a.SwitchSection(objfile.SectionData)
	case "bss", ".bss":
		a.SwitchSection(objfile.SectionBss)
	default:
		a.warnAt(fmt.Errorf("unknown section %q, defaulting to code", tok.Text))
		a.SwitchSection(objfile.SectionCode)
	}
	return nil
}

func dirExport(a *Assembler, lex *Lexer) error {
	return visibilityList(a, lex, func(name string) {
		a.Symbols.SetExport(name)
	})
}

func dirExtern(a *Assembler, lex *Lexer) error {
	return visibilityList(a, lex, func(name string) {
		a.Symbols.SetExtern(name)
	})
}

func visibilityList(a *Assembler, lex *Lexer, apply func(name string)) error {
	for {
		tok := lex.Next()
		if tok.Kind != TokIdent {
			return fmt.Errorf("%w: expected a symbol name, found %s", ErrBadDirective, tok)
		}
		if IsLocalLabel(tok.Text) {
			return fmt.Errorf("%w: local label %q cannot be made visible", ErrBadDirective, tok.Text)
		}
		apply(tok.Text)
		if lex.Peek().Kind != TokComma {
			break
		}
		lex.Next()
	}
	return requireEOL(lex)
}

func dirAssume(a *Assembler, lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokIdent || !strings.EqualFold(tok.Text, "adl") {
		return fmt.Errorf("%w: only 'assume adl=<n>' is supported", ErrBadDirective)
	}
	if err := (func() error {
		eq := lex.Next()
		if eq.Kind != TokEquals {
			return fmt.Errorf("%w: expected '=' after adl", ErrBadDirective)
		}
		return nil
	})(); err != nil {
		return err
	}
	v, err := a.evaluator().Eval(lex)
	if err != nil {
		return err
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	if v.HasSym || v.N != 1 {
		return fmt.Errorf("%w: only ADL=1 (24-bit mode) is supported", ErrBadDirective)
	}
	a.adlAsserted = true
	return nil
}

func dirAlign(a *Assembler, lex *Lexer) error {
	v, err := a.evaluator().Eval(lex)
	if err != nil {
		return err
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	n := v.N.Int()
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("%w: align requires a power of two, got %d", ErrBadDirective, n)
	}
	pc := a.PC().Int()
	pad := (n - (pc % n)) % n
	if a.section == objfile.SectionBss {
		a.advance(pad)
		return nil
	}
	for i := 0; i < pad; i++ {
		a.emit(0)
	}
	return nil
}

func dirInclude(a *Assembler, lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokString {
		return fmt.Errorf("%w: include requires a quoted file name", ErrBadDirective)
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	if a.Open == nil {
		return fmt.Errorf("%w: include is unsupported without a file opener", ErrBadDirective)
	}
	content, err := a.Open(tok.Text)
	if err != nil {
		return fmt.Errorf("%w: opening %q: %v", ErrBadDirective, tok.Text, err)
	}
	a.assembleLines(tok.Text, strings.Split(string(content), "\n"))
	return nil
}

func dirIncbin(a *Assembler, lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokString {
		return fmt.Errorf("%w: incbin requires a quoted file name", ErrBadDirective)
	}
	if err := requireEOL(lex); err != nil {
		return err
	}
	if a.Open == nil {
		return fmt.Errorf("%w: incbin is unsupported without a file opener", ErrBadDirective)
	}
	content, err := a.Open(tok.Text)
	if err != nil {
		return fmt.Errorf("%w: opening %q: %v", ErrBadDirective, tok.Text, err)
	}
	a.emit(content...)
	return nil
}

func dirEnd(a *Assembler, lex *Lexer) error {
	return requireEOL(lex)
}
