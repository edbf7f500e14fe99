package webfs

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SchemeMismatch(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "webfs", r.Scheme())

	for _, addr := range []string{"http://example.com/", "file:///tmp", "nothing", "WEBFS:http://example.com/"} {
		_, err := r.NewFileSystem(addr)
		assert.ErrorIs(t, err, ErrSchemeMismatch, addr)

		_, err = r.FileSystem(addr)
		assert.ErrorIs(t, err, ErrSchemeMismatch, addr)

		err = r.Remove(addr)
		assert.ErrorIs(t, err, ErrSchemeMismatch, addr)

		_, err = r.Path(context.Background(), addr)
		assert.ErrorIs(t, err, ErrSchemeMismatch, addr)
	}

	assert.Equal(t, 0, r.Len())
}

func TestRegistry_InvalidBase(t *testing.T) {
	r := NewRegistry()

	for _, addr := range []string{"webfs:", "webfs:ftp://example.com/", "webfs:http:///nohost", "webfs:relative/path"} {
		_, err := r.NewFileSystem(addr)
		assert.ErrorIs(t, err, ErrInvalidPath, addr)
	}

	assert.Equal(t, 0, r.Len())
}

func TestRegistry_CreateAndLookup(t *testing.T) {
	r := NewRegistry()

	_, err := r.FileSystem("webfs:http://example.com/pub/")
	assert.ErrorIs(t, err, ErrNotFound)

	f, err := r.NewFileSystem("webfs:http://example.com/pub")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/pub", f.Key())
	assert.Equal(t, "http://example.com/pub/", f.URL())
	assert.True(t, f.IsOpen())

	got, err := r.FileSystem("webfs:http://example.com/pub")
	require.NoError(t, err)
	assert.Same(t, f, got)

	// addresses under the mount reuse it
	for _, addr := range []string{
		"webfs:http://example.com/pub/",
		"webfs:http://example.com/pub/a/b/",
		"webfs:http://example.com/pub/file.txt",
	} {
		got, err = r.FileSystem(addr)
		require.NoError(t, err, addr)
		assert.Same(t, f, got, addr)

		_, err = r.NewFileSystem(addr)
		assert.ErrorIs(t, err, ErrExist, addr)
	}

	// a shared prefix without a separator is a different tree
	_, err = r.FileSystem("webfs:http://example.com/public/")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LongestPrefix(t *testing.T) {
	r := NewRegistry()

	outer, err := r.NewFileSystem("webfs:http://example.com/")
	require.NoError(t, err)

	// created directly, so it isn't refused for lying under outer
	r.mu.Lock()
	inner, err := newFileSystem(r, "http://example.com/a/b/")
	require.NoError(t, err)
	r.mounts[inner.key] = inner
	r.mu.Unlock()

	got, err := r.FileSystem("webfs:http://example.com/a/b/c/")
	require.NoError(t, err)
	assert.Same(t, inner, got)

	// the root without its trailing separator
	got, err = r.FileSystem("webfs:http://example.com/a/b")
	require.NoError(t, err)
	assert.Same(t, inner, got)

	got, err = r.FileSystem("webfs:http://example.com/a/x/")
	require.NoError(t, err)
	assert.Same(t, outer, got)
}

func TestRegistry_SharedMetrics(t *testing.T) {
	promReg := prometheus.NewPedanticRegistry()

	r1 := NewRegistry(WithMetrics(promReg))
	r2 := NewRegistry(WithMetrics(promReg))

	assert.Same(t, r1.metrics.listings, r2.metrics.listings)

	_, err := r1.NewFileSystem("webfs:http://example.com/a/")
	require.NoError(t, err)

	_, err = r2.NewFileSystem("webfs:http://example.com/b/")
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(r1.metrics.mounts), 0)

	n, err := testutil.GatherAndCount(promReg, "webfs_mounts")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the default registerer is fine too
	assert.NotPanics(t, func() {
		NewRegistry(WithMetrics(prometheus.DefaultRegisterer))
		NewRegistry(WithMetrics(prometheus.DefaultRegisterer))
	})
}

func TestRegistry_ConflictingMetrics(t *testing.T) {
	promReg := prometheus.NewPedanticRegistry()
	promReg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webfs_mounts",
		Help: "something else",
	}))

	log, hook := test.NewNullLogger()

	var r *Registry

	require.NotPanics(t, func() {
		r = NewRegistry(WithMetrics(promReg), WithLogger(log))
	})

	_, err := r.NewFileSystem("webfs:http://example.com/")
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(r.metrics.mounts), 0)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "webfs: metrics not registered", hook.LastEntry().Message)
}

func TestRegistry_RemoveExactOnly(t *testing.T) {
	promReg := prometheus.NewPedanticRegistry()
	r := NewRegistry(WithMetrics(promReg))

	a, err := r.NewFileSystem("webfs:http://example.com/a")
	require.NoError(t, err)

	ab, err := r.NewFileSystem("webfs:http://example.com/ab")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://example.com/a", "http://example.com/ab"}, r.Keys())
	assert.InDelta(t, 2, testutil.ToFloat64(r.metrics.mounts), 0)

	// an address under a mount is not its key
	require.NoError(t, r.Remove("webfs:http://example.com/a/sub/"))
	assert.Equal(t, 2, r.Len())

	// nor is a shared prefix
	require.NoError(t, r.Remove("webfs:http://example.com/"))
	assert.Equal(t, 2, r.Len())

	require.NoError(t, r.Remove("webfs:http://example.com/a"))
	assert.Equal(t, []string{"http://example.com/ab"}, r.Keys())
	assert.False(t, a.IsOpen())
	assert.True(t, ab.IsOpen())
	assert.InDelta(t, 1, testutil.ToFloat64(r.metrics.mounts), 0)

	// removing again is harmless
	require.NoError(t, r.Remove("webfs:http://example.com/a"))

	// and the key is free to be created again
	a2, err := r.NewFileSystem("webfs:http://example.com/a")
	require.NoError(t, err)
	assert.NotSame(t, a, a2)
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()

	f, err := r.NewFileSystem("webfs:http://example.com/")
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.False(t, f.IsOpen())
	assert.Equal(t, 0, r.Len())

	require.NoError(t, f.Close())

	_, err = f.List(context.Background(), f.Root())
	assert.Error(t, err)
}

func TestRegistry_Path(t *testing.T) {
	srv := listingServer(t)

	r := NewRegistry()
	ctx := context.Background()

	root, err := r.Path(ctx, "webfs:"+srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Same(t, root.FileSystem().Root(), root)

	sub, err := r.Path(ctx, "webfs:"+srv.URL+"/sub")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Same(t, root.FileSystem(), sub.FileSystem())
	assert.Equal(t, "sub", sub.Name())
	assert.Equal(t, "webfs:"+srv.URL+"/sub/", sub.Address())
	assert.True(t, sub.IsDir())
	assert.Equal(t, fixtureTime, sub.Attributes().ModTime().UTC())
}

func TestRegistry_ConcurrentPath(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		roots = map[*FileSystem]struct{}{}
	)

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			f, err := r.getOrCreate("http://example.com/")
			assert.NoError(t, err)

			p, err := f.Path(ctx, "http://example.com/")
			assert.NoError(t, err)
			assert.Same(t, f.Root(), p)

			mu.Lock()
			roots[f] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Len(t, roots, 1)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LogsLifecycle(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := NewRegistry(WithLogger(log))

	_, err := r.NewFileSystem("webfs:http://example.com/")
	require.NoError(t, err)
	require.NoError(t, r.Remove("webfs:http://example.com/"))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "webfs: mount created", entries[0].Message)
	assert.Equal(t, "http://example.com/", entries[0].Data["mount"])
	assert.Equal(t, "webfs: mount removed", entries[1].Message)
}
