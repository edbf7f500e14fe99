package internal

import (
	"net/url"
	"strings"
)

// SubURL resolves name against base, merging any query parameters from base
// into the result.
func SubURL(base *url.URL, name string) (*url.URL, error) {
	rel, err := url.Parse(name)
	if err != nil {
		return nil, err
	}

	u := base.ResolveReference(rel)

	// also merge query params
	if base.RawQuery != "" {
		bq := base.Query()
		rq := rel.Query()

		for k := range rq {
			bq.Set(k, rq.Get(k))
		}

		u.RawQuery = bq.Encode()
	}

	return u, nil
}

// SubPath appends elem to base without the normalisation url.ResolveReference
// would apply. A separator is added to base only when missing, elem is skipped
// when empty or ".", and the result ends in a separator unless file is set.
func SubPath(base, elem string, file bool) string {
	elem = strings.TrimLeft(elem, "/")
	self := elem == "" || elem == "."

	var sb strings.Builder

	sb.Grow(len(base) + len(elem) + 2)
	sb.WriteString(base)

	if !strings.HasSuffix(base, "/") {
		sb.WriteByte('/')
	}

	if !self {
		sb.WriteString(elem)
	}

	p := sb.String()

	switch {
	case file:
		p = strings.TrimSuffix(p, "/")
	case !strings.HasSuffix(p, "/"):
		p += "/"
	}

	return p
}

// Relativize returns the part of target below base. When target does not lie
// under base, target is returned unchanged. Equal addresses give "".
func Relativize(base, target string) string {
	if target == base {
		return ""
	}

	prefix := base
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if rest, ok := strings.CutPrefix(target, prefix); ok {
		return rest
	}

	return target
}

// TrailingName returns the last non-empty segment of p, ignoring a single
// trailing separator. The empty path gives "".
func TrailingName(p string) string {
	p = strings.TrimSuffix(p, "/")

	return p[strings.LastIndex(p, "/")+1:]
}
