package objfile

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

// DumpOptions controls the human-readable rendering produced by Dump.
type DumpOptions struct {
	// Color enables ANSI colorization of section/symbol/relocation rows,
	// mirroring the teacher's one-color-per-class convention
	// (pkg/utils/syntax_highlight.go) applied to object-file fields
	// instead of C tokens.
	Color bool
}

// Dump writes a detailed, debugging-oriented textual rendering of obj to w.
// This is the core of the ez8dump tool (spec.md §2's "Object format +
// utilities" row). The linker's -m map file does not use it; that file is
// written by internal/linker's WriteMapFile.
func Dump(w io.Writer, name string, obj *Object, opts DumpOptions) error {
	sectionColor := newColor(opts.Color, color.FgCyan)
	symColor := newColor(opts.Color, color.FgGreen)
	relocColor := newColor(opts.Color, color.FgYellow)
	externColor := newColor(opts.Color, color.FgMagenta)

	sectionColor.Fprintf(w, "=== %s ===\n", name)
	fmt.Fprintf(w, "Version:  %d\n", obj.Header.Version)
	fmt.Fprintf(w, "Code:     %d bytes\n", obj.Header.CodeSize)
	fmt.Fprintf(w, "Data:     %d bytes\n", obj.Header.DataSize)
	fmt.Fprintf(w, "Bss:      %d bytes\n", obj.Header.BssSize)
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "=== Symbols (%d) ===\n", len(obj.Symbols))
	rows := make([]string, 0, len(obj.Symbols))
	for _, s := range obj.Symbols {
		name, err := obj.String(s.NameOffset)
		if err != nil {
			return err
		}
		rows = append(rows, name)
	}
	order := sortedIndices(rows)
	for _, i := range order {
		s := obj.Symbols[i]
		symColor.Fprintf(w, "  %-24s %-6s %-7s value=0x%06X\n", rows[i], s.Section, s.Flags, s.Value)
	}
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "=== Relocations (%d) ===\n", len(obj.Relocations))
	for _, r := range obj.Relocations {
		target := r.TargetSect.String()
		if r.TargetSect == SectionAbs {
			target = fmt.Sprintf("ext#%d", r.ExtIndex)
		}
		relocColor.Fprintf(w, "  %-6s +0x%06X -> %s\n", r.Section, r.Offset, target)
	}
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "=== Externs (%d) ===\n", len(obj.Externs))
	for _, e := range obj.Externs {
		name, err := obj.String(e.NameOffset)
		if err != nil {
			return err
		}
		externColor.Fprintf(w, "  %s\n", name)
	}

	return nil
}

func newColor(enabled bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if !enabled {
		c.DisableColor()
	}
	return c
}

func sortedIndices(names []string) []int {
	idx := make([]int, len(names))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return names[idx[a]] < names[idx[b]] })
	return idx
}
