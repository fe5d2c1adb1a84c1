package asm

import (
	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// Value is an expression result (spec.md §4.2): a 24-bit number, optionally
// carrying at most one relocatable symbol. Arithmetic keeps at most one
// symbol attached; mixing two relocatable operands under '+'/'-' is only
// legal when they cancel (both in the same non-absolute section), and is
// never legal under '*'/'/'.
type Value struct {
	N       int24.Int24
	Sym     string
	Section objfile.Section
	HasSym  bool
}

func constValue(n int24.Int24) Value { return Value{N: n} }

func symValue(name string, n int24.Int24, section objfile.Section) Value {
	return Value{N: n, Sym: name, Section: section, HasSym: true}
}
