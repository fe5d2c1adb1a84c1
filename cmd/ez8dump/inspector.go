package main

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// runInspector launches the interactive three-pane browser: sections on
// the left, symbols in the middle, relocations/externs on the right. It
// is a pure consumer of an already-parsed *objfile.Object; nothing here
// re-parses or mutates the object.
func runInspector(path string, obj *objfile.Object) error {
	app := tview.NewApplication()

	sections := tview.NewTextView().SetDynamicColors(true)
	sections.SetBorder(true).SetTitle(fmt.Sprintf(" sections: %s ", path))
	fmt.Fprintf(sections, "version  %d\n", obj.Header.Version)
	fmt.Fprintf(sections, "code     %d bytes\n", obj.Header.CodeSize)
	fmt.Fprintf(sections, "data     %d bytes\n", obj.Header.DataSize)
	fmt.Fprintf(sections, "bss      %d bytes\n", obj.Header.BssSize)
	fmt.Fprintf(sections, "strings  %d bytes\n", obj.Header.StringTableSize)

	symbols := tview.NewList().ShowSecondaryText(true)
	symbols.SetBorder(true).SetTitle(fmt.Sprintf(" symbols (%d) ", len(obj.Symbols)))
	for _, s := range obj.Symbols {
		name, err := obj.String(s.NameOffset)
		if err != nil {
			name = "<bad offset>"
		}
		secondary := fmt.Sprintf("%s %s value=0x%06X", s.Section, s.Flags, s.Value)
		symbols.AddItem(name, secondary, 0, nil)
	}

	relocs := tview.NewList().ShowSecondaryText(true)
	relocs.SetBorder(true).SetTitle(fmt.Sprintf(" relocations (%d) / externs (%d) ", len(obj.Relocations), len(obj.Externs)))
	for _, r := range obj.Relocations {
		target := r.TargetSect.String()
		if r.TargetSect == objfile.SectionAbs {
			target = fmt.Sprintf("ext#%d", r.ExtIndex)
		}
		relocs.AddItem(fmt.Sprintf("%s+0x%06X", r.Section, r.Offset), fmt.Sprintf("-> %s", target), 0, nil)
	}
	for _, e := range obj.Externs {
		name, err := obj.String(e.NameOffset)
		if err != nil {
			name = "<bad offset>"
		}
		relocs.AddItem(name, "extern", 0, nil)
	}

	layout := tview.NewFlex().
		AddItem(sections, 0, 1, false).
		AddItem(symbols, 0, 2, true).
		AddItem(relocs, 0, 2, false)

	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			app.Stop()
			return nil
		}
		if event.Key() == tcell.KeyEscape {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(layout, true).SetFocus(symbols).Run()
}
