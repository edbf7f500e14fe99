package webfs

import (
	"context"
	"io/fs"
	"mime"
	"path/filepath"
	"sync"

	"github.com/hairyhenderson/go-webfs/internal"
)

// WithContextFS injects a context into the filesystem fs, if the filesystem
// supports it (i.e. has a WithContext method).
func WithContextFS(ctx context.Context, fsys fs.FS) fs.FS {
	if cfsys, ok := fsys.(internal.WithContexter); ok {
		return cfsys.WithContext(ctx)
	}

	return fsys
}

// common types we want to be able to handle which can be missing by default
//
//nolint:gochecknoglobals
var (
	extraMimeTypes = map[string]string{
		".yml":  "application/yaml",
		".yaml": "application/yaml",
		".csv":  "text/csv",
		".tsv":  "text/tab-separated-values",
		".toml": "application/toml",
		".env":  "application/x-env",
		".txt":  "text/plain",
	}
	extraMimeInit sync.Once
)

// ContentType guesses the MIME content type of a file from its name. Listings
// carry no content type, so directories and unknown extensions give "". See
// the docs for mime.TypeByExtension for details on how extension lookup
// works.
//
// The returned value may have parameters (e.g. "text/plain; charset=utf-8")
// which can be parsed with mime.ParseMediaType.
func ContentType(fi fs.FileInfo) string {
	if fi.IsDir() {
		return ""
	}

	extraMimeInit.Do(func() {
		for k, v := range extraMimeTypes {
			_ = mime.AddExtensionType(k, v)
		}
	})

	return mime.TypeByExtension(filepath.Ext(fi.Name()))
}
