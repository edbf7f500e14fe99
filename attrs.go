package webfs

import (
	"io/fs"
	"time"

	"github.com/hairyhenderson/go-webfs/internal"
)

// Attributes holds what a listing said about a path. A directory's
// attributes are overwritten in place when the directory is listed again, so
// every holder of the *Attributes sees the refresh. Attributes are not
// synchronised: concurrent listings of one directory race and the last one
// wins.
type Attributes struct {
	modTime time.Time
	size    int64
	isFile  bool
}

func newAttributes(isFile bool, size int64, modTime time.Time) *Attributes {
	a := &Attributes{}
	a.flash(isFile, size, modTime)

	return a
}

func (a *Attributes) flash(isFile bool, size int64, modTime time.Time) {
	a.isFile = isFile
	a.size = size
	a.modTime = modTime
}

// IsRegular reports whether the path is a regular file.
func (a *Attributes) IsRegular() bool { return a.isFile }

// IsDir reports whether the path is a directory. Anything that isn't a
// regular file is a directory.
func (a *Attributes) IsDir() bool { return !a.isFile }

// IsSymlink always returns false.
func (a *Attributes) IsSymlink() bool { return false }

// IsOther always returns false.
func (a *Attributes) IsOther() bool { return false }

// Size is the file size in bytes, or -1 for directories.
func (a *Attributes) Size() int64 { return a.size }

// ModTime is the last modification time. Records without a time report the
// Unix epoch.
func (a *Attributes) ModTime() time.Time { return a.modTime }

// Map returns the attributes keyed by their conventional names.
func (a *Attributes) Map() map[string]interface{} {
	return map[string]interface{}{
		"isRegularFile":    a.IsRegular(),
		"isDirectory":      a.IsDir(),
		"isSymbolicLink":   a.IsSymlink(),
		"isOther":          a.IsOther(),
		"size":             a.Size(),
		"lastModifiedTime": a.ModTime(),
	}
}

func fileInfo(name string, a *Attributes) fs.FileInfo {
	if a.IsDir() {
		return internal.DirInfo(name, a.modTime)
	}

	return internal.FileInfo(name, a.size, 0o444, a.modTime)
}
