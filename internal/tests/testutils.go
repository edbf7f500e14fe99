package tests

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"strings"
	"testing"
	"time"
)

func MustURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}

	return u
}

// ListingHandler serves fsys over HTTP. Directories are rendered as
// tab-separated listings (a "." record followed by one record per entry), and
// regular files are served as-is.
func ListingHandler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.Trim(r.URL.Path, "/")
		if name == "" {
			name = "."
		}

		fi, err := fs.Stat(fsys, name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)

			return
		}

		if !fi.IsDir() {
			b, err := fs.ReadFile(fsys, name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)

				return
			}

			_, _ = w.Write(b)

			return
		}

		des, err := fs.ReadDir(fsys, name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/tab-separated-values")

		fmt.Fprintln(w, Record(".", fi))

		for _, de := range des {
			info, err := de.Info()
			if err != nil {
				continue
			}

			fmt.Fprintln(w, Record(path.Base(de.Name()), info))
		}
	})
}

// Record formats fi as a single listing line named name.
func Record(name string, fi fs.FileInfo) string {
	size := "-"
	if !fi.IsDir() {
		size = fmt.Sprintf("%d", fi.Size())
	}

	return name + "\t" + fi.ModTime().UTC().Format(time.RFC3339) + "\t" + size
}

// ListingServer starts a test server serving the directory dir with
// ListingHandler. The server is closed when the test ends.
func ListingServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(ListingHandler(os.DirFS(dir)))
	t.Cleanup(srv.Close)

	return srv
}
