package webfs

import (
	"context"
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/hairyhenderson/go-webfs/internal"
)

type webFS struct {
	ctx  context.Context
	fsys *FileSystem
	dir  *Path
}

// NewFS exposes mount as an fs.FS rooted at the mount's root directory. Every
// name is resolved by listing its parent directories in turn, so attributes
// are always fresh. The context can be replaced with WithContext.
func NewFS(ctx context.Context, mount *FileSystem) fs.FS {
	return &webFS{ctx: ctx, fsys: mount, dir: mount.Root()}
}

var (
	_ fs.FS                  = (*webFS)(nil)
	_ fs.ReadDirFS           = (*webFS)(nil)
	_ fs.ReadFileFS          = (*webFS)(nil)
	_ fs.StatFS              = (*webFS)(nil)
	_ fs.SubFS               = (*webFS)(nil)
	_ internal.WithContexter = (*webFS)(nil)
)

func (f webFS) URL() string {
	return f.dir.String()
}

func (f *webFS) WithContext(ctx context.Context) fs.FS {
	if ctx == nil {
		return f
	}

	fsys := *f
	fsys.ctx = ctx

	return &fsys
}

// resolve walks name one element at a time from f.dir.
func (f *webFS) resolve(op, name string) (*Path, error) {
	if !internal.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	p := f.dir
	if name == "." {
		return p, nil
	}

	for _, elem := range strings.Split(name, "/") {
		if !p.IsDir() {
			return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
		}

		child, err := f.fsys.Lookup(f.ctx, p, elem)
		if err != nil {
			return nil, &fs.PathError{Op: op, Path: name, Err: unwrapPathError(err)}
		}

		p = child
	}

	return p, nil
}

func (f *webFS) Open(name string) (fs.File, error) {
	p, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}

	if p.IsDir() {
		return &webDir{ctx: f.ctx, fsys: f.fsys, p: p, name: name}, nil
	}

	return &webFile{ctx: f.ctx, fsys: f.fsys, p: p, name: name}, nil
}

func (f *webFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := f.resolve("readdir", name)
	if err != nil {
		return nil, err
	}

	if !p.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	d := &webDir{ctx: f.ctx, fsys: f.fsys, p: p, name: name}
	defer d.Close()

	return d.ReadDir(-1)
}

func (f *webFS) ReadFile(name string) ([]byte, error) {
	p, err := f.resolve("readfile", name)
	if err != nil {
		return nil, err
	}

	if p.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}

	body, err := f.fsys.Open(f.ctx, p)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: unwrapPathError(err)}
	}
	defer body.Close()

	return io.ReadAll(body)
}

func (f *webFS) Stat(name string) (fs.FileInfo, error) {
	p, err := f.resolve("stat", name)
	if err != nil {
		return nil, err
	}

	if name == "." {
		// the directory's own record refreshes its attributes
		if err := refresh(f.ctx, f.fsys, p); err != nil {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: unwrapPathError(err)}
		}
	}

	return fileInfo(statName(name, p), p.attrs), nil
}

func (f *webFS) Sub(dir string) (fs.FS, error) {
	p, err := f.resolve("sub", dir)
	if err != nil {
		return nil, err
	}

	if !p.IsDir() {
		return nil, &fs.PathError{Op: "sub", Path: dir, Err: fs.ErrInvalid}
	}

	fsys := *f
	fsys.dir = p

	return &fsys, nil
}

func refresh(ctx context.Context, fsys *FileSystem, dir *Path) error {
	l, err := fsys.List(ctx, dir)
	if err != nil {
		return err
	}

	for _, err := range l.All() {
		if err != nil {
			return err
		}
	}

	return nil
}

func statName(name string, p *Path) string {
	if name == "." {
		return "."
	}

	return p.name
}

// unwrapPathError strips a *fs.PathError so the caller's name is reported
// rather than the remote address.
func unwrapPathError(err error) error {
	if pe, ok := err.(*fs.PathError); ok { //nolint:errorlint
		return pe.Err
	}

	return err
}

type webFile struct {
	ctx  context.Context
	fsys *FileSystem
	p    *Path
	body io.ReadCloser
	name string
}

var _ fs.File = (*webFile)(nil)

func (f *webFile) Stat() (fs.FileInfo, error) {
	return fileInfo(f.p.name, f.p.attrs), nil
}

func (f *webFile) Read(b []byte) (int, error) {
	if f.body == nil {
		body, err := f.fsys.Open(f.ctx, f.p)
		if err != nil {
			return 0, &fs.PathError{Op: "read", Path: f.name, Err: unwrapPathError(err)}
		}

		f.body = body
	}

	return f.body.Read(b)
}

func (f *webFile) Close() error {
	if f.body == nil {
		return nil
	}

	return f.body.Close()
}

type webDir struct {
	ctx      context.Context
	fsys     *FileSystem
	p        *Path
	children []fs.DirEntry
	name     string
	diridx   int
}

var _ fs.ReadDirFile = (*webDir)(nil)

func (d *webDir) Stat() (fs.FileInfo, error) {
	return fileInfo(statName(d.name, d.p), d.p.attrs), nil
}

func (d *webDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *webDir) Close() error { return nil }

func (d *webDir) list() ([]fs.DirEntry, error) {
	ctx, span := d.fsys.startSpan(d.ctx, "webfs.ReadDir", Address(d.p.address))
	defer span.End()

	l, err := d.fsys.List(ctx, d.p)
	if err != nil {
		return nil, recordError(span, err)
	}

	entries := []fs.DirEntry{}

	for p, err := range l.All() {
		if err != nil {
			return nil, recordError(span, err)
		}

		entries = append(entries, fileInfo(p.name, p.attrs).(fs.DirEntry))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	span.SetAttributes(DirEntries(len(entries)))

	return entries, nil
}

func (d *webDir) ReadDir(n int) ([]fs.DirEntry, error) {
	// first call lists everything and caches the entries
	if d.children == nil {
		entries, err := d.list()
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: d.name, Err: unwrapPathError(err)}
		}

		d.children = entries
	}

	rest := d.children[d.diridx:]

	if n <= 0 {
		d.diridx = len(d.children)

		return rest, nil
	}

	if len(rest) == 0 {
		return nil, io.EOF
	}

	if n > len(rest) {
		n = len(rest)
	}

	d.diridx += n

	return rest[:n], nil
}
