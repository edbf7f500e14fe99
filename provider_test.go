package webfs

import (
	"io/fs"
	"testing"

	"github.com/hairyhenderson/go-webfs/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_New(t *testing.T) {
	srv := listingServer(t)
	r := NewRegistry()

	assert.Equal(t, []string{"webfs"}, r.Schemes())

	fsys, err := r.New(tests.MustURL("webfs:" + srv.URL + "/"))
	require.NoError(t, err)

	b, err := fs.ReadFile(fsys, "sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "bee", string(b))

	// a sub-directory reuses the open mount
	sub, err := r.New(tests.MustURL("webfs:" + srv.URL + "/sub/deeper/"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	b, err = fs.ReadFile(sub, "c.json")
	require.NoError(t, err)
	assert.Equal(t, `{"c":true}`, string(b))

	_, err = r.New(tests.MustURL("webfs:" + srv.URL + "/hello.txt"))
	assert.ErrorIs(t, err, fs.ErrInvalid)

	_, err = r.New(tests.MustURL("http://example.com/"))
	assert.ErrorIs(t, err, ErrSchemeMismatch)
}
