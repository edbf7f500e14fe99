package webfs

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/hairyhenderson/go-webfs/internal"
)

const (
	selfName = "."
	dirSize  = "-"

	maxFields  = 3
	maxLineLen = 1 << 20
)

// Listing is a forward-only sequence of the paths described by one remote
// directory listing. Each line of the listing is
//
//	<name>\t<modified>\t<size>
//
// where the time is RFC 3339 (empty for the epoch) and the size is a byte
// count, or "-" for directories. The record named "." describes the listed
// directory itself.
//
// A listing made without an owning path (see FileSystem.ListAddress) turns
// its "." record into a detached directory path at depth 1, and the records
// after it become its children at depth 2. Records before it have no parent.
//
// Empty lines are only allowed at the end; an empty line followed by another
// record is a blank name, and corrupts the listing.
//
// A Listing must be closed; the first error (including io.EOF at the end)
// ends the sequence for good.
type Listing struct {
	fsys  *FileSystem
	owner *Path
	body  io.ReadCloser
	lines *bufio.Scanner
	done  func(err error, records int)

	err error

	// address being listed, and the same relative to the mount root
	base string
	rel  string

	line     int
	blank    int
	records  int
	skipSelf bool
}

func newListing(fsys *FileSystem, owner *Path, base, rel string, body io.ReadCloser) *Listing {
	lines := bufio.NewScanner(body)
	lines.Buffer(make([]byte, 0, 4096), maxLineLen)

	return &Listing{
		fsys:  fsys,
		owner: owner,
		body:  body,
		lines: lines,
		base:  base,
		rel:   rel,
	}
}

// Next returns the next path, or io.EOF once the listing is exhausted. A
// malformed record returns an error wrapping ErrCorruptListing, and no
// further paths are returned after it.
func (l *Listing) Next() (*Path, error) {
	for l.err == nil {
		if !l.lines.Scan() {
			err := l.lines.Err()
			if err == nil {
				err = io.EOF
			} else {
				err = &ListingError{Address: l.base, Err: err}
			}

			l.finish(err)

			break
		}

		l.line++

		text := strings.TrimSuffix(l.lines.Text(), "\r")
		if text == "" {
			// only trailing empty lines are allowed
			if l.blank == 0 {
				l.blank = l.line
			}

			continue
		}

		if l.blank != 0 {
			l.finish(&ListingError{Address: l.base, Line: l.blank, Err: corrupt("blank name")})

			break
		}

		p, err := l.parse(text)
		if err != nil {
			l.finish(&ListingError{Address: l.base, Line: l.line, Err: err})

			break
		}

		l.records++

		if l.skipSelf && p == l.owner {
			continue
		}

		return p, nil
	}

	return nil, l.err
}

// All ranges over the remaining paths. The listing is closed when the loop
// ends, including by break. A non-EOF error is yielded once, as the last
// element.
func (l *Listing) All() iter.Seq2[*Path, error] {
	return func(yield func(*Path, error) bool) {
		defer l.Close()

		for {
			p, err := l.Next()
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying response body. It is safe to call Close more
// than once.
func (l *Listing) Close() error {
	if l.body == nil {
		return nil
	}

	err := l.body.Close()
	l.body = nil

	l.finish(fs.ErrClosed)

	return err
}

func (l *Listing) finish(err error) {
	if l.err != nil {
		return
	}

	l.err = err

	if l.done != nil {
		l.done(err, l.records)
	}
}

type record struct {
	modTime time.Time
	name    string
	size    int64
}

func parseRecord(line string) (record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) > maxFields {
		return record{}, corrupt("%d fields, expected at most %d", len(fields), maxFields)
	}

	field := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}

		return ""
	}

	r := record{
		name:    field(0),
		modTime: time.Unix(0, 0).UTC(),
		size:    -1,
	}

	if r.name == "" {
		return record{}, corrupt("blank name")
	}

	if s := field(1); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return record{}, corrupt("bad time %q for %q", s, r.name)
		}

		r.modTime = t
	}

	if s := field(2); s != "" && s != dirSize {
		n, err := strconv.ParseUint(s, 10, 63)
		if err != nil {
			return record{}, corrupt("bad size %q for %q", s, r.name)
		}

		r.size = int64(n)
	}

	return r, nil
}

func (l *Listing) parse(line string) (*Path, error) {
	r, err := parseRecord(line)
	if err != nil {
		return nil, err
	}

	isFile := r.size >= 0

	if r.name == selfName {
		if l.owner != nil {
			l.owner.refresh(isFile, r.size, r.modTime)

			return l.owner, nil
		}

		// later records hang off the synthesised directory
		l.owner = newPath(l.fsys, nil, internal.TrailingName(l.rel),
			internal.SubPath(l.base, selfName, isFile),
			newAttributes(isFile, r.size, r.modTime))

		return l.owner, nil
	}

	return newPath(l.fsys, l.owner, r.name,
		internal.SubPath(l.base, r.name, isFile),
		newAttributes(isFile, r.size, r.modTime)), nil
}
