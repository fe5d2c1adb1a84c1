// Package linker implements the eZ80 linker: archive scanning, selective
// loading, section layout, symbol resolution, and relocation patching
// (spec.md §4.8-§4.10).
package linker

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// Member is one object file's slice inside a library archive, located by
// the scanner without parsing its symbol/relocation tables.
type Member struct {
	Offset int
	Size   int
}

// ScanArchive walks a library file's headers, computing each member's byte
// range from its header's declared section/table sizes without loading the
// member's contents (spec.md §4.8: "the scanner walks headers ... advance").
// An invalid magic mid-stream is a fatal error.
func ScanArchive(buf []byte) ([]Member, error) {
	var members []Member
	off := 0
	for off < len(buf) {
		h, err := objfile.ReadHeader(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("archive member at offset %d: %w", off, err)
		}
		size := int(h.Size())
		if off+size > len(buf) {
			return nil, fmt.Errorf("archive member at offset %d: declared size %d exceeds remaining archive bytes", off, size)
		}
		members = append(members, Member{Offset: off, Size: size})
		off += size
	}
	return members, nil
}
