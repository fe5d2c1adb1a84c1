package linker

import (
	"fmt"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// LoadedObject pairs a parsed object with the name it should be reported
// under in diagnostics and the map file (a path for command-line objects,
// "libname(member N)" for archive members).
type LoadedObject struct {
	Name string
	Obj  *objfile.Object
}

type archiveLib struct {
	path    string
	buf     []byte
	members []Member
	loaded  []bool
}

// Loader runs the selective-loading fixed point of spec.md §4.8: starting
// from the objects named on the command line, it keeps pulling in library
// members that satisfy still-undefined externals until a full pass loads
// nothing.
type Loader struct {
	Objects []*LoadedObject

	libraries []*archiveLib
	exported  map[string]bool // lower-cased names exported by any loaded object
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{exported: make(map[string]bool)}
}

// AddObject registers one of the command-line-named objects. These are
// always loaded (they are never subject to selective loading).
func (l *Loader) AddObject(name string, obj *objfile.Object) error {
	lo := &LoadedObject{Name: name, Obj: obj}
	l.Objects = append(l.Objects, lo)
	l.noteExports(obj)
	return nil
}

// AddLibrary scans buf as a concatenation of object files (spec.md §4.8)
// and registers it as a pool selective loading may draw members from.
func (l *Loader) AddLibrary(path string, buf []byte) error {
	members, err := ScanArchive(buf)
	if err != nil {
		return fmt.Errorf("library %s: %w", path, err)
	}
	l.libraries = append(l.libraries, &archiveLib{
		path:    path,
		buf:     buf,
		members: members,
		loaded:  make([]bool, len(members)),
	})
	return nil
}

func (l *Loader) noteExports(obj *objfile.Object) {
	for _, sym := range obj.Symbols {
		if sym.Flags != objfile.SymExport {
			continue
		}
		name, err := obj.String(sym.NameOffset)
		if err != nil {
			continue
		}
		l.exported[strings.ToLower(name)] = true
	}
}

func (l *Loader) undefinedNames() (map[string]bool, error) {
	undefined := make(map[string]bool)
	for _, lo := range l.Objects {
		for _, ext := range lo.Obj.Externs {
			name, err := lo.Obj.String(ext.NameOffset)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lo.Name, err)
			}
			key := strings.ToLower(name)
			if !l.exported[key] {
				undefined[key] = true
			}
		}
	}
	return undefined, nil
}

// memberExports reports whether member exports any name in undefined,
// without permanently registering the member as loaded.
func memberExports(obj *objfile.Object, undefined map[string]bool) (bool, error) {
	for _, sym := range obj.Symbols {
		if sym.Flags != objfile.SymExport {
			continue
		}
		name, err := obj.String(sym.NameOffset)
		if err != nil {
			return false, err
		}
		if undefined[strings.ToLower(name)] {
			return true, nil
		}
	}
	return false, nil
}

// Resolve runs the fixed-point loop described in spec.md §4.8, appending
// newly-loaded library members to l.Objects in discovery order. Calling
// Resolve again after the set has already closed loads nothing further
// (spec.md §8 property 8, linker idempotence).
func (l *Loader) Resolve() error {
	for {
		undefined, err := l.undefinedNames()
		if err != nil {
			return err
		}
		if len(undefined) == 0 {
			return nil
		}

		loadedAny := false
		for _, lib := range l.libraries {
			for idx, m := range lib.members {
				if lib.loaded[idx] {
					continue
				}
				obj, err := objfile.ParseObject(lib.buf[m.Offset : m.Offset+m.Size])
				if err != nil {
					return fmt.Errorf("%s(member %d): %w", lib.path, idx, err)
				}
				matches, err := memberExports(obj, undefined)
				if err != nil {
					return fmt.Errorf("%s(member %d): %w", lib.path, idx, err)
				}
				if !matches {
					continue
				}
				lib.loaded[idx] = true
				name := fmt.Sprintf("%s(member %d)", lib.path, idx)
				l.Objects = append(l.Objects, &LoadedObject{Name: name, Obj: obj})
				l.noteExports(obj)
				loadedAny = true
			}
		}
		if !loadedAny {
			return nil
		}
	}
}
