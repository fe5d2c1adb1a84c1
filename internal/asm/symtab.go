package asm

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/Manu343726/ez80toolchain/internal/toolerr"
)

// ErrUndefinedSymbol is the sentinel wrapped by every "undefined symbol"
// diagnostic (spec.md §5).
var ErrUndefinedSymbol = fmt.Errorf("undefined symbol")

// ErrRedefinedSymbol is the sentinel wrapped by every symbol-redefinition
// diagnostic.
var ErrRedefinedSymbol = fmt.Errorf("symbol redefined with a different value")

// Symbol is one entry of the assembly-time symbol table (spec.md §4.3).
type Symbol struct {
	Name    string
	Value   int24.Int24
	Section objfile.Section
	Flags   objfile.SymbolFlags
	Defined bool
}

// SymbolTable is a case-sensitive symbol table, grounded on the teacher's
// name-keyed resolver maps (pkg/hw/cpu/mc/symbolresolver.go) but extended
// with the scope counter local-label mangling needs (spec.md §4.3).
type SymbolTable struct {
	byName map[string]*Symbol
	order  []*Symbol

	externs     []string
	externIndex map[string]int

	scope int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName:      make(map[string]*Symbol),
		externIndex: make(map[string]int),
	}
}

// Find looks up a symbol by its (possibly already-mangled) name.
func (t *SymbolTable) Find(name string) (*Symbol, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// Ensure returns the existing symbol or creates an undefined Local one.
func (t *SymbolTable) Ensure(name string) *Symbol {
	if s, ok := t.byName[name]; ok {
		return s
	}
	s := &Symbol{Name: name}
	t.byName[name] = s
	t.order = append(t.order, s)
	return s
}

// All returns symbols in first-seen order, for deterministic object-file
// symbol table emission.
func (t *SymbolTable) All() []*Symbol {
	return t.order
}

// Define records value/section for name, enforcing spec.md §4.3's
// redefinition rule: a symbol may be (re)defined to the same (value,
// section) pair any number of times (pass 1 then pass 2 naturally redefine
// every label), but two *different* values for the same name is an error.
func (t *SymbolTable) Define(name string, value int24.Int24, section objfile.Section) error {
	s := t.Ensure(name)
	if s.Defined && (s.Value != value || s.Section != section) {
		return toolerr.Wrap(ErrRedefinedSymbol, "%q (was %s:0x%06X, now %s:0x%06X)",
			name, s.Section, s.Value.Unsigned24(), section, value.Unsigned24())
	}
	s.Value = value
	s.Section = section
	s.Defined = true
	return nil
}

// SetExport marks name as exported (xdef), without requiring it to already
// be defined: forward xdef of a label defined later in the file is legal.
func (t *SymbolTable) SetExport(name string) {
	s := t.Ensure(name)
	if s.Flags != objfile.SymExtern {
		s.Flags = objfile.SymExport
	}
}

// SetExtern marks name as an external reference (xref) and assigns it a
// stable index into the externs table, in first-xref order.
func (t *SymbolTable) SetExtern(name string) {
	s := t.Ensure(name)
	s.Flags = objfile.SymExtern
	if _, ok := t.externIndex[name]; !ok {
		t.externIndex[name] = len(t.externs)
		t.externs = append(t.externs, name)
	}
}

// Externs returns external symbol names in first-xref order.
func (t *SymbolTable) Externs() []string { return t.externs }

// ExternIndex returns name's index into the externs table.
func (t *SymbolTable) ExternIndex(name string) (int, bool) {
	i, ok := t.externIndex[name]
	return i, ok
}

// Scope returns the current local-label scope counter.
func (t *SymbolTable) Scope() int { return t.scope }

// EnterScope advances the scope counter. Called once a non-local label has
// just been defined, so that subsequent "@"-prefixed local labels mangle
// into a fresh scope (spec.md §4.3).
func (t *SymbolTable) EnterScope() { t.scope++ }

// ResetScope returns the scope counter to 0. Called at the start of pass 2
// so that the scope sequence a local label mangles against is identical in
// both passes — otherwise a forward reference to a "@"-label resolves
// against a scope that hasn't been entered yet in the new pass.
func (t *SymbolTable) ResetScope() { t.scope = 0 }

// MangleLocal produces the "name:scope" form a local label resolves to.
func (t *SymbolTable) MangleLocal(name string) string {
	return fmt.Sprintf("%s:%d", name, t.scope)
}

// IsLocalLabel reports whether name denotes a scoped local label, i.e.
// starts with "@".
func IsLocalLabel(name string) bool {
	return len(name) > 0 && name[0] == '@'
}
