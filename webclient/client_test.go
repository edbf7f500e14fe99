package webclient

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHTTP(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/hello.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	})

	mux.HandleFunc("/dir/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(".\t\t-\npath=" + r.URL.EscapedPath() + "\t\t-\n"))
	})

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent") + "|" + r.URL.RawQuery))
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(" rest"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func fetchString(t *testing.T, c *Client, name string) (string, error) {
	t.Helper()

	body, err := c.Fetch(context.Background(), name)
	if err != nil {
		return "", err
	}
	defer body.Close()

	b, err := io.ReadAll(body)

	return string(b), err
}

func TestFetch(t *testing.T) {
	srv := setupHTTP(t)

	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", c.URL())

	s, err := fetchString(t, c, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)

	s, err = fetchString(t, c, "dir/sub dir/")
	require.NoError(t, err)
	assert.Contains(t, s, "path=/dir/sub%20dir/")

	s, err = fetchString(t, c, "dir/a:b/")
	require.NoError(t, err)
	assert.Contains(t, s, "path=/dir/a:b/")
}

func TestFetch_StatusError(t *testing.T) {
	srv := setupHTTP(t)

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "404 Not Found")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.MethodGet, se.Method)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestFetch_HeadersAndQuery(t *testing.T) {
	srv := setupHTTP(t)

	c, err := New(Config{BaseURL: srv.URL + "/?token=abc"})
	require.NoError(t, err)

	c = c.WithHeader(http.Header{"User-Agent": []string{"webfs-test"}})

	s, err := fetchString(t, c, "echo")
	require.NoError(t, err)
	assert.Equal(t, "webfs-test|token=abc", s)

	assert.Same(t, c, c.WithHeader(nil))
	assert.Same(t, c, c.WithHTTPClient(nil))
}

func TestFetch_ReadTimeout(t *testing.T) {
	srv := setupHTTP(t)

	c, err := New(Config{BaseURL: srv.URL, ReadTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	_, err = fetchString(t, c, "slow")
	require.Error(t, err)

	c, err = New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	s, err := fetchString(t, c, "slow")
	require.NoError(t, err)
	assert.Equal(t, "partial rest", s)
}

func TestFetch_Insecure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("secret"))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = fetchString(t, c, "x")
	require.Error(t, err)

	c, err = New(Config{BaseURL: srv.URL, Insecure: true})
	require.NoError(t, err)

	s, err := fetchString(t, c, "x")
	require.NoError(t, err)
	assert.Equal(t, "secret", s)
}

func TestFetch_Proxy(t *testing.T) {
	var proxied string

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.String()
		_, _ = w.Write([]byte("via proxy"))
	}))
	t.Cleanup(proxy.Close)

	c, err := New(Config{
		BaseURL: "http://listing.invalid/base/",
		Proxy:   proxy.Listener.Addr().String(),
	})
	require.NoError(t, err)

	s, err := fetchString(t, c, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "via proxy", s)
	assert.Equal(t, "http://listing.invalid/base/file.txt", proxied)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com/"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "://"})
	assert.Error(t, err)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "", escapePath(""))
	assert.Equal(t, "a/b/", escapePath("a/b/"))
	assert.Equal(t, "a%20b/c%3Fd", escapePath("a b/c?d"))
	assert.Equal(t, "./a:b/c", escapePath("a:b/c"))
}
