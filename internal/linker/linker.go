package linker

import (
	"fmt"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// ObjectLayout records the absolute base address assigned to each of an
// object's sections (spec.md §4.9).
type ObjectLayout struct {
	CodeBase uint32
	DataBase uint32
	BssBase  uint32
}

// ResolvedSymbol is one entry of the linker's global symbol table: an
// exported name together with its final absolute address and the object
// (or "linker") it originated from.
type ResolvedSymbol struct {
	Name   string
	Addr   uint32
	Origin string
}

// Linker drives the four phases of spec.md §4.8-§4.10: selective loading,
// layout, symbol resolution, and relocation. Grounded on the teacher
// pack's wut4 `Linker.link()` four-phase shape, generalized from a
// whole-program link to eZ80's archive-aware selective loader and from
// 16-bit word relocations to 24-bit byte relocations.
type Linker struct {
	BaseAddr uint32

	loader  *Loader
	layouts []ObjectLayout
	globals map[string]*ResolvedSymbol

	totalCode, totalData, totalBss uint32
}

// NewLinker creates a Linker that will place the first object's code at
// baseAddr.
func NewLinker(baseAddr uint32) *Linker {
	return &Linker{
		BaseAddr: baseAddr,
		loader:   NewLoader(),
		globals:  make(map[string]*ResolvedSymbol),
	}
}

// AddObject registers a command-line-named object; it is always linked in.
func (ld *Linker) AddObject(name string, obj *objfile.Object) error {
	return ld.loader.AddObject(name, obj)
}

// AddLibrary registers a library archive as a pool for selective loading.
func (ld *Linker) AddLibrary(path string, buf []byte) error {
	return ld.loader.AddLibrary(path, buf)
}

// Objects exposes the final loaded-object list (after Link), for callers
// that want to write a map file.
func (ld *Linker) Objects() []*LoadedObject { return ld.loader.Objects }

// Layouts exposes the per-object section bases assigned during Link,
// parallel to Objects().
func (ld *Linker) Layouts() []ObjectLayout { return ld.layouts }

// Globals exposes the resolved global symbol table after Link.
func (ld *Linker) Globals() map[string]*ResolvedSymbol { return ld.globals }

// Totals exposes the merged section sizes assigned during layout.
func (ld *Linker) Totals() (code, data, bss uint32) {
	return ld.totalCode, ld.totalData, ld.totalBss
}

// Link runs selective loading, layout, symbol resolution and relocation in
// order, returning the concatenated code+data output bytes.
func (ld *Linker) Link() ([]byte, error) {
	if err := ld.loader.Resolve(); err != nil {
		return nil, err
	}
	ld.layout()
	if err := ld.resolveSymbols(); err != nil {
		return nil, err
	}
	code, data, err := ld.relocate()
	if err != nil {
		return nil, err
	}
	return append(code, data...), nil
}

// layout assigns code_base/data_base/bss_base to every loaded object in
// discovery order (spec.md §4.9): all code sections first, then all data,
// then all bss, each contiguous and in object order.
func (ld *Linker) layout() {
	objs := ld.loader.Objects
	ld.layouts = make([]ObjectLayout, len(objs))

	codeOff := ld.BaseAddr
	for i, lo := range objs {
		ld.layouts[i].CodeBase = codeOff
		codeOff += lo.Obj.Header.CodeSize
	}
	ld.totalCode = codeOff - ld.BaseAddr

	dataOff := ld.BaseAddr + ld.totalCode
	for i, lo := range objs {
		ld.layouts[i].DataBase = dataOff
		dataOff += lo.Obj.Header.DataSize
	}
	ld.totalData = dataOff - ld.BaseAddr - ld.totalCode

	bssOff := ld.BaseAddr + ld.totalCode + ld.totalData
	for i, lo := range objs {
		ld.layouts[i].BssBase = bssOff
		bssOff += lo.Obj.Header.BssSize
	}
	ld.totalBss = bssOff - ld.BaseAddr - ld.totalCode - ld.totalData
}

// resolveSymbols builds the global symbol table: the six linker-defined
// symbols, then every object's exported symbols translated to absolute
// addresses. Two exports (case-insensitively) sharing a name is a hard
// error (spec.md §4.9, §6).
func (ld *Linker) resolveSymbols() error {
	ld.defineLinkerSymbol("__low_code", ld.BaseAddr)
	ld.defineLinkerSymbol("__len_code", ld.totalCode)
	ld.defineLinkerSymbol("__low_data", ld.BaseAddr+ld.totalCode)
	ld.defineLinkerSymbol("__len_data", ld.totalData)
	ld.defineLinkerSymbol("__low_bss", ld.BaseAddr+ld.totalCode+ld.totalData)
	ld.defineLinkerSymbol("__len_bss", ld.totalBss)

	for i, lo := range ld.loader.Objects {
		for _, sym := range lo.Obj.Symbols {
			if sym.Flags != objfile.SymExport {
				continue
			}
			name, err := lo.Obj.String(sym.NameOffset)
			if err != nil {
				return fmt.Errorf("%s: %w", lo.Name, err)
			}

			var base uint32
			switch sym.Section {
			case objfile.SectionCode:
				base = ld.layouts[i].CodeBase
			case objfile.SectionData:
				base = ld.layouts[i].DataBase
			case objfile.SectionBss:
				base = ld.layouts[i].BssBase
			case objfile.SectionAbs:
				base = 0
			}

			key := strings.ToLower(name)
			if existing, ok := ld.globals[key]; ok {
				return fmt.Errorf("symbol %q defined in multiple object files (%s and %s)", name, existing.Origin, lo.Name)
			}
			ld.globals[key] = &ResolvedSymbol{Name: name, Addr: sym.Value + base, Origin: lo.Name}
		}
	}
	return nil
}

func (ld *Linker) defineLinkerSymbol(name string, addr uint32) {
	ld.globals[strings.ToLower(name)] = &ResolvedSymbol{Name: name, Addr: addr, Origin: "linker"}
}

// relocate copies every object's code/data bytes into merged buffers at
// their assigned bases, then patches every Addr24 relocation site
// (spec.md §4.10).
func (ld *Linker) relocate() ([]byte, []byte, error) {
	objs := ld.loader.Objects
	mergedCode := make([]byte, ld.totalCode)
	mergedData := make([]byte, ld.totalData)

	for i, lo := range objs {
		copy(mergedCode[ld.layouts[i].CodeBase-ld.BaseAddr:], lo.Obj.Code)
		copy(mergedData[ld.layouts[i].DataBase-ld.BaseAddr-ld.totalCode:], lo.Obj.Data)
	}

	for i, lo := range objs {
		for _, r := range lo.Obj.Relocations {
			if r.Type != objfile.RelocAddr24 {
				return nil, nil, fmt.Errorf("%s: unsupported relocation type %d", lo.Name, r.Type)
			}

			targetAddr, err := ld.resolveRelocationTarget(i, lo, r)
			if err != nil {
				return nil, nil, err
			}

			var buf []byte
			var sectionBase uint32
			switch r.Section {
			case objfile.SectionCode:
				buf = mergedCode
				sectionBase = ld.layouts[i].CodeBase - ld.BaseAddr
			case objfile.SectionData:
				buf = mergedData
				sectionBase = ld.layouts[i].DataBase - ld.BaseAddr - ld.totalCode
			default:
				return nil, nil, fmt.Errorf("%s: relocation patch site in invalid section %v", lo.Name, r.Section)
			}

			patchOffset := int(sectionBase) + int(r.Offset)
			if patchOffset < 0 || patchOffset+3 > len(buf) {
				continue // defensive bound check: out-of-range patch sites are silently skipped
			}
			existing := int24.LE24(buf[patchOffset : patchOffset+3])
			int24.PutLE24(buf[patchOffset:patchOffset+3], existing+targetAddr)
		}
	}

	return mergedCode, mergedData, nil
}

// resolveRelocationTarget finds the absolute address a relocation record
// patches in: either a section base (intra-object reference) or a global
// symbol's address reached through the object's own externs table
// (spec.md §4.10).
func (ld *Linker) resolveRelocationTarget(objIndex int, lo *LoadedObject, r objfile.RelocationRecord) (uint32, error) {
	if r.TargetSect == objfile.SectionAbs {
		if int(r.ExtIndex) >= len(lo.Obj.Externs) {
			return 0, fmt.Errorf("%s: relocation ext_index %d out of range", lo.Name, r.ExtIndex)
		}
		ext := lo.Obj.Externs[r.ExtIndex]
		name, err := lo.Obj.String(ext.NameOffset)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", lo.Name, err)
		}
		sym, ok := ld.globals[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("undefined symbol %q (referenced in %s)", name, lo.Name)
		}
		return sym.Addr, nil
	}

	switch r.TargetSect {
	case objfile.SectionCode:
		return ld.layouts[objIndex].CodeBase, nil
	case objfile.SectionData:
		return ld.layouts[objIndex].DataBase, nil
	case objfile.SectionBss:
		return ld.layouts[objIndex].BssBase, nil
	default:
		return 0, fmt.Errorf("%s: relocation references invalid target section %v", lo.Name, r.TargetSect)
	}
}
