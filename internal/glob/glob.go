// Package glob compiles "glob:" and "regex:" path patterns into regular
// expressions matched against whole addresses.
package glob

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSyntax is returned (wrapped) for unknown pattern prefixes and malformed
// globs or regular expressions.
var ErrSyntax = errors.New("pattern syntax error")

const (
	prefixRegex = "regex:"
	prefixGlob  = "glob:"

	// separator class: addresses may carry either slash style
	tokSep      = `[\\/]`
	tokOptSep   = `[\\/]?`
	tokStar     = `[^\\/]*`
	tokStarStar = `.*`
	tokAny      = `[^\\/]`
)

// Compile compiles a "regex:" or "glob:" pattern. The resulting expression
// only matches whole strings.
func Compile(pattern string) (*regexp.Regexp, error) {
	kind, expr, ok := strings.Cut(pattern, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing \"glob:\" or \"regex:\" prefix in %q", ErrSyntax, pattern)
	}

	switch kind + ":" {
	case prefixRegex:
		expr = `^(?:` + expr + `)$`
	case prefixGlob:
		var err error

		expr, err = Translate(expr)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported pattern type %q", ErrSyntax, kind)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	return re, nil
}

type state int

const (
	bare state = iota
	star
	escape
	braceOpen
	braceBody
)

// Translate converts a glob into an anchored regular expression.
//
// A single '*' matches within one path segment, '**' matches across
// separators, '?' matches one non-separator character, '{a,b}' matches either
// alternative and '\' quotes the next character. A pattern that doesn't end in
// '/' also matches the same address with a trailing separator.
//
//nolint:gocyclo,funlen
func Translate(glob string) (string, error) {
	var re strings.Builder

	re.Grow(32 + 2*len(glob))
	re.WriteByte('^')

	// stack[len-1] is the current state; popping returns to the enclosing one
	stack := []state{bare}
	push := func(s state) { stack = append(stack, s) }
	pop := func() { stack = stack[:len(stack)-1] }

	runes := []rune(glob)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		reprocess := false

		switch stack[len(stack)-1] {
		case bare:
			switch c {
			case '*':
				push(star)
			case '\\':
				push(escape)
			case '?':
				re.WriteString(tokAny)
			case '.', '^', '$', '+', '|', '(', ')', '}':
				re.WriteString(regexp.QuoteMeta(string(c)))
			case '{':
				push(braceOpen)

				reprocess = true
			case '/':
				re.WriteString(tokSep)
			default:
				re.WriteRune(c)
			}
		case star:
			pop()

			if c == '*' {
				re.WriteString(tokStarStar)
			} else {
				re.WriteString(tokStar)

				reprocess = true
			}
		case escape:
			re.WriteString(regexp.QuoteMeta(string(c)))
			pop()
		case braceOpen:
			pop()

			if c == '{' {
				re.WriteString("(?:")
				push(braceBody)
			} else {
				re.WriteString(regexp.QuoteMeta("{"))

				reprocess = true
			}
		case braceBody:
			switch c {
			case ',':
				re.WriteByte('|')
			case '}':
				re.WriteByte(')')
				pop()
			case '/':
				return "", fmt.Errorf("%w: separator not allowed in group at index %d of %q", ErrSyntax, i, glob)
			case '*':
				// stars never cross separators inside a group
				re.WriteString(tokStar)
			case '\\':
				push(escape)
			case '?':
				re.WriteString(tokAny)
			case '.', '^', '$', '+', '|', '(', ')', '{':
				re.WriteString(regexp.QuoteMeta(string(c)))
			default:
				re.WriteRune(c)
			}
		}

		if reprocess {
			i--
		}
	}

	// flush whatever the input ended in
	for len(stack) > 1 {
		switch stack[len(stack)-1] {
		case star:
			re.WriteString(tokStar)
		case escape:
			return "", fmt.Errorf("%w: trailing escape in %q", ErrSyntax, glob)
		case braceOpen, braceBody:
			return "", fmt.Errorf("%w: unterminated group in %q", ErrSyntax, glob)
		}

		pop()
	}

	if !strings.HasSuffix(glob, "/") {
		re.WriteString(tokOptSep)
	}

	re.WriteByte('$')

	return re.String(), nil
}
