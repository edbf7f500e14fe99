package webfs

import (
	"fmt"
	"io/fs"
	"iter"
	"strings"
	"time"

	"github.com/hairyhenderson/go-webfs/internal"
)

// Path is one node of a mounted remote tree. An addressed Path knows where it
// resolves; its name-only companion (see FileName) carries just the terminal
// name, sharing parent and attributes.
//
// Paths are created by a FileSystem and are never closed.
type Path struct {
	fsys   *FileSystem
	parent *Path
	attrs  *Attributes
	bare   *Path

	name    string
	address string
	depth   int

	addressed bool
}

func newPath(fsys *FileSystem, parent *Path, name, address string, attrs *Attributes) *Path {
	p := &Path{
		fsys:      fsys,
		parent:    parent,
		attrs:     attrs,
		name:      name,
		address:   address,
		addressed: true,
		depth:     1,
	}

	if parent != nil {
		p.depth += parent.depth
	}

	p.bare = &Path{
		fsys:   fsys,
		parent: parent,
		attrs:  attrs,
		name:   name,
		depth:  1,
	}
	p.bare.bare = p.bare

	return p
}

// FileSystem returns the mount the path belongs to.
func (p *Path) FileSystem() *FileSystem { return p.fsys }

// Root returns the root of the path's mount.
func (p *Path) Root() *Path { return p.fsys.Root() }

// Parent returns the parent path, or nil for the root and for paths that were
// looked up directly by address.
func (p *Path) Parent() *Path { return p.parent }

// Depth is the number of names from the root to p, counting both. A root, or
// any name-only path, has depth 1.
func (p *Path) Depth() int { return p.depth }

// Name returns the terminal name.
func (p *Path) Name() string { return p.name }

// FileName returns the name-only companion of p.
func (p *Path) FileName() *Path { return p.bare }

// HasAddress reports whether p carries an address. Name-only paths don't.
func (p *Path) HasAddress() bool { return p.addressed }

// Address returns the address of p, or "" for name-only paths.
func (p *Path) Address() string { return p.address }

// IsAbsolute is always true: every addressed path is absolute.
func (p *Path) IsAbsolute() bool { return true }

// IsDir reports whether p's current attributes mark it a directory.
func (p *Path) IsDir() bool { return p.attrs.IsDir() }

// Attributes returns the live attribute box. It changes when p is listed
// again.
func (p *Path) Attributes() *Attributes { return p.attrs }

// refresh overwrites p's attributes in place. A path still holding its
// mount's placeholder gets a box of its own instead, leaving the placeholder
// untouched.
func (p *Path) refresh(isFile bool, size int64, modTime time.Time) {
	if p.attrs == p.fsys.none {
		p.attrs = newAttributes(isFile, size, modTime)
		p.bare.attrs = p.attrs

		return
	}

	p.attrs.flash(isFile, size, modTime)
}

// Info returns a snapshot of p's attributes as an fs.FileInfo.
func (p *Path) Info() fs.FileInfo { return fileInfo(p.name, p.attrs) }

// String returns the address, or the name for name-only paths.
func (p *Path) String() string {
	if !p.addressed {
		return p.name
	}

	return p.address
}

// NameAt returns the name-only path i steps below the root, where 0 is the
// root itself and Depth()-1 is p.
func (p *Path) NameAt(i int) (*Path, error) {
	if i < 0 || i >= p.depth {
		return nil, fmt.Errorf("name %d of %q (depth %d): %w", i, p, p.depth, ErrOutOfRange)
	}

	entry := p
	for skips := p.depth - 1 - i; skips > 0; skips-- {
		entry = entry.parent
	}

	return entry.bare, nil
}

// All iterates from the root down to p. The sequence can be ranged over more
// than once.
func (p *Path) All() iter.Seq[*Path] {
	return func(yield func(*Path) bool) {
		for _, entry := range p.Ancestors() {
			if !yield(entry) {
				return
			}
		}
	}
}

// Ancestors returns the chain of paths from the root down to p, inclusive.
func (p *Path) Ancestors() []*Path {
	chain := []*Path{}
	for entry := p; entry != nil; entry = entry.parent {
		chain = append(chain, entry)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain
}

// Resolve returns the descendant of directory p named by elem. Each
// separated segment of elem becomes one level below p. Attributes are unknown
// until the parent is listed, so every level is treated as a directory.
func (p *Path) Resolve(elem string) (*Path, error) {
	if err := p.checkDir("resolve"); err != nil {
		return nil, err
	}

	child := p

	for _, name := range strings.Split(elem, "/") {
		if name == "" || name == "." {
			continue
		}

		child = newPath(p.fsys, child, name, internal.SubPath(child.address, name, false), p.fsys.none)
	}

	return child, nil
}

// ResolvePath resolves other against directory p. An other that already has
// a scheme is returned unchanged; otherwise its name (or relative address) is
// appended to p's address. The result shares other's attributes.
func (p *Path) ResolvePath(other *Path) (*Path, error) {
	if err := p.checkDir("resolve"); err != nil {
		return nil, err
	}

	if other.addressed && hasScheme(other.address) {
		return other, nil
	}

	elem := other.String()

	return newPath(p.fsys, p, other.name, internal.SubPath(p.address, elem, other.attrs.IsRegular()), other.attrs), nil
}

// ResolveSibling resolves elem against p's parent. For a path with no
// parent, a detached name-only path is returned.
func (p *Path) ResolveSibling(elem string) (*Path, error) {
	if p.parent == nil {
		return newPath(p.fsys, nil, elem, "", p.fsys.none).bare, nil
	}

	return p.parent.Resolve(elem)
}

// Relativize returns a path with other's name, parent and attributes whose
// address is other's address relative to directory p. Addresses outside p
// are kept whole.
func (p *Path) Relativize(other *Path) (*Path, error) {
	if err := p.checkDir("relativize"); err != nil {
		return nil, err
	}

	rel := newPath(other.fsys, other.parent, other.name, internal.Relativize(p.address, other.String()), other.attrs)
	rel.depth = other.depth

	return rel, nil
}

// Normalize returns p; addresses are never denormalised.
func (p *Path) Normalize() *Path { return p }

// Absolute returns p, which is always absolute.
func (p *Path) Absolute() *Path { return p }

// Subpath is not supported.
func (p *Path) Subpath(_, _ int) (*Path, error) {
	return nil, &fs.PathError{Op: "subpath", Path: p.String(), Err: ErrUnsupported}
}

// StartsWith is not supported.
func (p *Path) StartsWith(*Path) (bool, error) {
	return false, &fs.PathError{Op: "startswith", Path: p.String(), Err: ErrUnsupported}
}

// EndsWith is not supported.
func (p *Path) EndsWith(*Path) (bool, error) {
	return false, &fs.PathError{Op: "endswith", Path: p.String(), Err: ErrUnsupported}
}

func (p *Path) checkDir(op string) error {
	if !p.addressed || !p.attrs.IsDir() {
		return &fs.PathError{Op: op, Path: p.String(), Err: ErrUnsupported}
	}

	return nil
}

// Key is a string that is equal for equal paths of one mount, usable as a map
// key.
func (p *Path) Key() string {
	if !p.addressed {
		return p.name
	}

	return strings.TrimSuffix(p.address, "/")
}

// Compare orders paths by address. Two addresses are equal when relativizing
// one against the other leaves nothing, which makes a directory address
// equal to the same address with a trailing separator. Name-only paths sort
// before addressed ones and compare by name.
func (p *Path) Compare(other *Path) int {
	switch {
	case !p.addressed && !other.addressed:
		return strings.Compare(p.name, other.name)
	case !p.addressed:
		return -1
	case !other.addressed:
		return 1
	}

	return strings.Compare(p.Key(), other.Key())
}

// Equal reports whether p and other belong to the same mount and compare
// equal.
func (p *Path) Equal(other *Path) bool {
	if other == nil || p.fsys != other.fsys {
		return false
	}

	return p == other || p.Compare(other) == 0
}

func (p *Path) equalAddress(address string) bool {
	if !p.addressed {
		return false
	}

	return internal.Relativize(p.address, address) == "" || internal.Relativize(address, p.address) == ""
}

func hasScheme(address string) bool {
	scheme, _, ok := strings.Cut(address, ":")
	if !ok || scheme == "" || strings.Contains(scheme, "/") {
		return false
	}

	return true
}
