package webfs

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hairyhenderson/go-webfs/internal/glob"
)

var (
	// ErrSchemeMismatch is returned when an address doesn't use the
	// registry's scheme.
	ErrSchemeMismatch = errors.New("scheme mismatch")

	// ErrExist is returned when creating a mount that is already covered by
	// an open one.
	ErrExist = fs.ErrExist

	// ErrNotFound is returned when no mount covers an address, or when a
	// listing has no element with the requested name.
	ErrNotFound = fs.ErrNotExist

	// ErrCorruptListing is returned (wrapped in a *ListingError) for
	// malformed listing records.
	ErrCorruptListing = errors.New("corrupt listing")

	// ErrUnsupported is returned for operations that make no sense for an
	// address, such as resolving a name against a regular file.
	ErrUnsupported = errors.ErrUnsupported

	// ErrReadOnly is returned by every mutating operation.
	ErrReadOnly = fmt.Errorf("read-only filesystem: %w", errors.ErrUnsupported)

	// ErrOutOfRange is returned by Path.NameAt for an invalid index.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidPath is returned for blank or malformed addresses.
	ErrInvalidPath = fs.ErrInvalid

	// ErrPatternSyntax is returned for bad PathMatcher patterns.
	ErrPatternSyntax = glob.ErrSyntax
)

// ListingError describes a listing that could not be read to the end.
type ListingError struct {
	Err     error
	Address string
	Line    int
}

func (e *ListingError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("listing %s: %v", e.Address, e.Err)
	}

	return fmt.Sprintf("listing %s: line %d: %v", e.Address, e.Line, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorruptListing, fmt.Sprintf(format, args...))
}

func readOnly(op string, p *Path) error {
	name := ""
	if p != nil {
		name = p.String()
	}

	return &fs.PathError{Op: op, Path: name, Err: ErrReadOnly}
}
