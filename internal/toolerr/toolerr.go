// Package toolerr provides the wrapped-sentinel-error helper shared by the
// assembler and linker, so every diagnostic can be tested against a stable
// sentinel with errors.Is while still carrying a human-readable detail.
package toolerr

import "fmt"

// Wrap formats detail (printf-style) and wraps it around the given sentinel
// error, so callers can test the result with errors.Is(err, sentinel).
func Wrap(sentinel error, detail string, args ...any) error {
	return fmt.Errorf("%w: "+detail, append([]any{sentinel}, args...)...)
}
