package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	testdata := []struct {
		in, out string
	}{
		{"", `^[\\/]?$`},
		{"/", `^[\\/]$`},
		{"/a/*", `^[\\/]a[\\/][^\\/]*[\\/]?$`},
		{"/a/**", `^[\\/]a[\\/].*[\\/]?$`},
		{"*.txt", `^[^\\/]*\.txt[\\/]?$`},
		{"a?c", `^a[^\\/]c[\\/]?$`},
		{`a\*b`, `^a\*b[\\/]?$`},
		{"{a,b}", `^(?:a|b)[\\/]?$`},
		{"x{a*,b}/", `^x(?:a[^\\/]*|b)[\\/]$`},
		{"x{a**,b}", `^x(?:a[^\\/]*[^\\/]*|b)[\\/]?$`},
		{"a+b(c)", `^a\+b\(c\)[\\/]?$`},
		{"a}", `^a\}[\\/]?$`},
	}

	for _, d := range testdata {
		out, err := Translate(d.in)
		require.NoError(t, err, d.in)
		assert.Equal(t, d.out, out, d.in)
	}
}

func TestTranslate_Errors(t *testing.T) {
	for _, in := range []string{"{a/b}", "{a,b", "a{", `a\`, "{a,*"} {
		_, err := Translate(in)
		require.ErrorIs(t, err, ErrSyntax, in)
	}
}

func TestCompile_StarDoesNotCrossSeparator(t *testing.T) {
	single, err := Compile("glob:/a/*/c")
	require.NoError(t, err)

	assert.True(t, single.MatchString("/a/b/c"))
	assert.True(t, single.MatchString("/a/b/c/"))
	assert.True(t, single.MatchString(`\a\b\c`))
	assert.False(t, single.MatchString("/a/b/d/c"))
	assert.False(t, single.MatchString("/a/b/c/d"))

	double, err := Compile("glob:/a/**/c")
	require.NoError(t, err)

	assert.True(t, double.MatchString("/a/b/c"))
	assert.True(t, double.MatchString("/a/b/d/c"))
	assert.False(t, double.MatchString("/x/b/c"))
}

func TestCompile_GroupStarsStayInSegment(t *testing.T) {
	re, err := Compile("glob:/x/{a**,b}")
	require.NoError(t, err)

	assert.True(t, re.MatchString("/x/abc"))
	assert.True(t, re.MatchString("/x/b"))
	assert.False(t, re.MatchString("/x/a/deep/path"))
}

func TestCompile_Glob(t *testing.T) {
	re, err := Compile("glob:/a/{b,c}.txt")
	require.NoError(t, err)
	assert.True(t, re.MatchString("/a/b.txt"))
	assert.True(t, re.MatchString("/a/c.txt"))
	assert.False(t, re.MatchString("/a/d.txt"))
	assert.False(t, re.MatchString("/a/bxtxt"))

	re, err = Compile(`glob:/a/\*.txt`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("/a/*.txt"))
	assert.False(t, re.MatchString("/a/b.txt"))

	re, err = Compile("glob:**/*.json")
	require.NoError(t, err)
	assert.True(t, re.MatchString("webfs:http://example.com/data/x.json"))
	assert.False(t, re.MatchString("webfs:http://example.com/data/x.yaml"))

	re, err = Compile("glob:webfs:http://example.com/docs/")
	require.NoError(t, err)
	assert.True(t, re.MatchString("webfs:http://example.com/docs/"))
	assert.False(t, re.MatchString("webfs:http://example.com/docs"))
}

func TestCompile_Regex(t *testing.T) {
	re, err := Compile(`regex:.*\.txt`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("dir/x.txt"))
	assert.False(t, re.MatchString("dir/x.txt.bak"))

	re, err = Compile("regex:a|b")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a"))
	assert.False(t, re.MatchString("ab"))

	_, err = Compile("regex:(")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestCompile_BadPrefix(t *testing.T) {
	for _, p := range []string{"*.txt", "re:.*", "GLOB:*", ":*"} {
		_, err := Compile(p)
		assert.ErrorIs(t, err, ErrSyntax, p)
	}
}
