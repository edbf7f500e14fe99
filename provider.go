package webfs

import (
	"context"
	"io/fs"
	"net/url"
	"strings"
)

// FSProvider provides a filesystem for a set of defined schemes
type FSProvider interface {
	// Schemes returns the valid URL schemes for this filesystem
	Schemes() []string

	// New returns a filesystem from the given URL
	New(u *url.URL) (fs.FS, error)
}

var _ FSProvider = (*Registry)(nil)

// Schemes - implements FSProvider
func (r *Registry) Schemes() []string {
	return []string{Scheme}
}

// New returns an fs.FS for the directory at u (for example
// "webfs:https://example.com/pub/docs/"), opening a mount rooted at u when no
// open mount covers it. A context can be given by using WithContextFS.
func (r *Registry) New(u *url.URL) (fs.FS, error) {
	key, err := r.key(u.String())
	if err != nil {
		return nil, err
	}

	f, err := r.getOrCreate(key)
	if err != nil {
		return nil, err
	}

	rel, err := f.rel(Scheme + ":" + key)
	if err != nil {
		return nil, err
	}

	fsys := NewFS(context.Background(), f)

	dir := strings.Trim(rel, "/")
	if dir == "" {
		return fsys, nil
	}

	return fs.Sub(fsys, dir)
}
