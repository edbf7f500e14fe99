package webfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/hairyhenderson/go-webfs/internal"
	"github.com/hairyhenderson/go-webfs/internal/glob"
	"github.com/hairyhenderson/go-webfs/webclient"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// FileSystem is one mounted remote tree. It is created by a Registry and
// stays registered until closed.
type FileSystem struct {
	reg    *Registry
	root   *Path
	none   *Attributes
	client *webclient.Client
	log    logrus.FieldLogger

	key    string
	closed atomic.Bool
}

func newFileSystem(r *Registry, key string) (*FileSystem, error) {
	base, err := baseURL(key)
	if err != nil {
		return nil, &fs.PathError{Op: "mount", Path: Scheme + ":" + key, Err: err}
	}

	cfg := r.clientConfig(base.String())
	cfg.BaseURL = base.String()

	client, err := webclient.New(cfg)
	if err != nil {
		return nil, &fs.PathError{Op: "mount", Path: Scheme + ":" + key, Err: err}
	}

	f := &FileSystem{
		reg:    r,
		key:    key,
		client: client.WithHTTPClient(r.httpClient).WithHeader(r.header),
		none:   newAttributes(false, -1, r.now()),
		log:    r.log.WithField("mount", key),
	}

	f.root = newPath(f, nil, internal.TrailingName(base.Path),
		internal.SubPath(Scheme+":"+key, "", false), f.none)

	return f, nil
}

// baseURL turns a mount key into the transport's base URL. Keys may be given
// in hierarchical form, with a leading separator ("/https://host/pub").
func baseURL(key string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, fmt.Errorf("%w: base must be an http or https URL", ErrInvalidPath)
	case u.Host == "":
		return nil, fmt.Errorf("%w: base has no host", ErrInvalidPath)
	}

	// relative names must resolve inside the base path
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}

	return u, nil
}

// Key returns the registry key: the scheme-specific part of the root address.
func (f *FileSystem) Key() string { return f.key }

// Root returns the root directory of the mount.
func (f *FileSystem) Root() *Path { return f.root }

// RootDirectories returns the mount's only root.
func (f *FileSystem) RootDirectories() []*Path { return []*Path{f.root} }

// URL returns the base URL requests are made against.
func (f *FileSystem) URL() string { return f.client.URL() }

// Separator returns the name separator, "/".
func (f *FileSystem) Separator() string { return "/" }

// IsReadOnly is always true.
func (f *FileSystem) IsReadOnly() bool { return true }

// IsOpen reports whether the mount has not yet been closed.
func (f *FileSystem) IsOpen() bool { return !f.closed.Load() }

// Close removes the mount from its registry. Paths from a closed mount can
// still be inspected, but no more requests are made through it.
func (f *FileSystem) Close() error {
	if !f.IsOpen() {
		return nil
	}

	return f.reg.Remove(Scheme + ":" + f.key)
}

// Path returns the path for the directory at base joined with elems. The root
// address gives the root itself. Any other address is listed and its own
// record returned, so the result carries fresh attributes. When the address
// can't be listed (or the listing is empty) a detached path holding the
// placeholder attributes is returned instead; a corrupt listing is an error.
func (f *FileSystem) Path(ctx context.Context, base string, elems ...string) (*Path, error) {
	if strings.TrimSpace(base) == "" {
		return nil, &fs.PathError{Op: "path", Path: base, Err: ErrInvalidPath}
	}

	address := base
	if !strings.HasPrefix(address, Scheme+":") {
		address = Scheme + ":" + address
	}

	address = internal.SubPath(address, "", false)
	for _, elem := range elems {
		address = internal.SubPath(address, elem, false)
	}

	if f.root.equalAddress(address) {
		return f.root, nil
	}

	ctx, span := f.startSpan(ctx, "webfs.Path", Address(address))
	defer span.End()

	rel, err := f.rel(address)
	if err != nil {
		return nil, recordError(span, err)
	}

	l, err := f.listing(ctx, nil, address, rel)
	if err == nil {
		defer l.Close()

		var p *Path

		p, err = l.Next()
		if err == nil {
			return p, nil
		}

		if errors.Is(err, ErrCorruptListing) {
			return nil, recordError(span, err)
		}
	}

	f.log.WithError(err).WithField("address", address).Debug("webfs: no listing, using placeholder attributes")

	return newPath(f, nil, internal.TrailingName(rel), address, f.none), nil
}

// List lists the children of directory dir. The listing's own record
// refreshes dir's attributes in place and is not returned.
func (f *FileSystem) List(ctx context.Context, dir *Path) (*Listing, error) {
	if err := dir.checkDir("list"); err != nil {
		return nil, err
	}

	rel, err := f.rel(dir.address)
	if err != nil {
		return nil, err
	}

	l, err := f.listing(ctx, dir, dir.address, rel)
	if err != nil {
		return nil, err
	}

	l.skipSelf = true

	return l, nil
}

// ListAddress lists an arbitrary directory address under the mount. No path
// is refreshed; the listing's own record is returned as a detached path of
// depth 1, and it is the parent of the records that follow it.
func (f *FileSystem) ListAddress(ctx context.Context, address string) (*Listing, error) {
	rel, err := f.rel(address)
	if err != nil {
		return nil, err
	}

	return f.listing(ctx, nil, address, rel)
}

func (f *FileSystem) listing(ctx context.Context, owner *Path, address, rel string) (*Listing, error) {
	if !f.IsOpen() {
		return nil, &fs.PathError{Op: "list", Path: address, Err: fs.ErrClosed}
	}

	ctx, span := f.startSpan(ctx, "webfs.List", Address(address))

	body, err := f.client.Fetch(ctx, rel)
	if err != nil {
		f.reg.metrics.listings.WithLabelValues(outcomeError).Inc()
		recordError(span, err)
		span.End()

		return nil, &fs.PathError{Op: "list", Path: address, Err: err}
	}

	l := newListing(f, owner, address, rel, body)
	l.done = func(err error, records int) {
		f.listed(span, address, err, records)
	}

	return l, nil
}

func (f *FileSystem) listed(span trace.Span, address string, err error, records int) {
	defer span.End()

	span.SetAttributes(ListingRecords(records))

	f.reg.metrics.listings.WithLabelValues(outcome(err)).Inc()
	f.reg.metrics.records.Add(float64(records))

	var lerr *ListingError
	if errors.As(err, &lerr) {
		f.log.WithFields(logrus.Fields{
			"address": address,
			"line":    lerr.Line,
		}).WithError(lerr.Err).Warn("webfs: listing aborted")

		recordError(span, err)
	}
}

// Lookup returns the child of dir named name, with the attributes from a
// fresh listing of dir.
func (f *FileSystem) Lookup(ctx context.Context, dir *Path, name string) (*Path, error) {
	ctx, span := f.startSpan(ctx, "webfs.Lookup", Address(dir.String()), Name(name))
	defer span.End()

	l, err := f.List(ctx, dir)
	if err != nil {
		return nil, recordError(span, err)
	}

	for p, err := range l.All() {
		if err != nil {
			return nil, recordError(span, err)
		}

		if p.name == name {
			span.SetAttributes(FileSize(p.attrs.Size()), FileModTime(p.attrs.ModTime()))

			return p, nil
		}
	}

	return nil, recordError(span, &fs.PathError{Op: "lookup", Path: internal.SubPath(dir.address, name, true), Err: ErrNotFound})
}

// Stat returns the attributes of p. Paths that were never listed (other than
// the root) have no attributes.
func (f *FileSystem) Stat(p *Path) (*Attributes, error) {
	if p.attrs == f.none && p != f.root {
		return nil, &fs.PathError{Op: "stat", Path: p.String(), Err: fmt.Errorf("has no attributes: %w", ErrNotFound)}
	}

	return p.attrs, nil
}

// ReadAttributes returns the attributes of p as a map. See Attributes.Map.
func (f *FileSystem) ReadAttributes(p *Path) (map[string]interface{}, error) {
	a, err := f.Stat(p)
	if err != nil {
		return nil, err
	}

	return a.Map(), nil
}

// Open returns the contents of the file at p, read straight from the remote.
// The caller must close it.
func (f *FileSystem) Open(ctx context.Context, p *Path) (io.ReadCloser, error) {
	if !p.addressed {
		return nil, &fs.PathError{Op: "open", Path: p.String(), Err: ErrUnsupported}
	}

	if !f.IsOpen() {
		return nil, &fs.PathError{Op: "open", Path: p.address, Err: fs.ErrClosed}
	}

	ctx, span := f.startSpan(ctx, "webfs.Open", Address(p.address))
	defer span.End()

	rel, err := f.rel(p.address)
	if err != nil {
		return nil, recordError(span, err)
	}

	body, err := f.client.Fetch(ctx, rel)

	f.reg.metrics.opens.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		return nil, recordError(span, &fs.PathError{Op: "open", Path: p.address, Err: err})
	}

	return body, nil
}

// Matcher reports whether a path's address matches a pattern.
type Matcher struct {
	re *regexp.Regexp
}

// Match reports whether the whole of p's address (or name, for a name-only
// path) matches.
func (m *Matcher) Match(p *Path) bool {
	return m.re.MatchString(p.String())
}

// String returns the compiled regular expression.
func (m *Matcher) String() string {
	return m.re.String()
}

// PathMatcher compiles pattern, which is "glob:" or "regex:" followed by the
// expression. Glob stars don't cross separators; double stars do.
func (f *FileSystem) PathMatcher(pattern string) (*Matcher, error) {
	re, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return &Matcher{re: re}, nil
}

// IsSameFile reports whether a and b are equal paths.
func (f *FileSystem) IsSameFile(a, b *Path) bool { return a.Equal(b) }

// IsHidden is always false.
func (f *FileSystem) IsHidden(*Path) bool { return false }

// CheckAccess accepts every path; reads are checked when they're made.
func (f *FileSystem) CheckAccess(*Path) error { return nil }

// CreateDirectory is not supported.
func (f *FileSystem) CreateDirectory(p *Path) error { return readOnly("mkdir", p) }

// Delete is not supported.
func (f *FileSystem) Delete(p *Path) error { return readOnly("delete", p) }

// Move is not supported.
func (f *FileSystem) Move(src, _ *Path) error { return readOnly("move", src) }

// Copy is not supported.
func (f *FileSystem) Copy(src, _ *Path) error { return readOnly("copy", src) }

// SetAttribute is not supported.
func (f *FileSystem) SetAttribute(p *Path, _ string, _ interface{}) error {
	return readOnly("setattr", p)
}

// NewWatchService is not supported.
func (f *FileSystem) NewWatchService() error { return readOnly("watch", f.root) }

// FileStores is not supported.
func (f *FileSystem) FileStores() error { return readOnly("filestores", f.root) }

// rel returns address relative to the root, in the form the transport
// expects. Addresses outside the mount are invalid.
func (f *FileSystem) rel(address string) (string, error) {
	root := f.root.address
	if address == root || address == strings.TrimSuffix(root, "/") {
		return "", nil
	}

	if rest, ok := strings.CutPrefix(address, root); ok {
		return rest, nil
	}

	return "", &fs.PathError{Op: "resolve", Path: address, Err: fmt.Errorf("%w: not under %s", ErrInvalidPath, root)}
}
