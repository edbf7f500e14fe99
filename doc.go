// Package webfs provides a read-only filesystem over a remote directory tree
// served by an HTTP (or HTTPS) listing server.
//
// A directory is fetched as a plain-text listing, one record per line, with up
// to three tab-separated fields:
//
//	<name>\t<modified>\t<size>
//
// The modification time is an RFC 3339 timestamp (empty for the Unix epoch)
// and the size is a byte count for regular files, or "-" for directories. The
// record named "." describes the listed directory itself. Any other address is
// fetched as raw file content.
//
// # Usage
//
// Mounts are managed by a [Registry], keyed by the part of a "webfs:" address
// after the scheme. For example, to mount https://example.com/pub/ and list
// its root directory:
//
//	reg := webfs.NewRegistry()
//
//	root, err := reg.Path(ctx, "webfs:https://example.com/pub/")
//	if err != nil {
//		return err
//	}
//
//	l, err := root.FileSystem().List(ctx, root)
//	if err != nil {
//		return err
//	}
//
//	for p, err := range l.All() {
//		if err != nil {
//			return err
//		}
//
//		fmt.Println(p.Name(), p.Attributes().Size())
//	}
//
// Addresses under an open mount resolve to that mount, so
// "webfs:https://example.com/pub/docs/" is served by the mount above.
//
// The filesystem is read-only: every mutating operation fails with
// [ErrReadOnly].
//
// # Using io/fs
//
// [NewFS] wraps a mount as an [io/fs.FS], and a Registry is itself an
// [FSProvider] for the "webfs" scheme:
//
//	fsys, _ := reg.New(u)
//	fsys = webfs.WithContextFS(ctx, fsys)
//
//	b, err := fs.ReadFile(fsys, "docs/README.md")
//
// # Configuring the transport
//
// Each mount fetches through its own HTTP client, built from a
// [webclient.Config] returned by the function given to [WithClientConfig]. The
// config sets the proxy, the connect and read timeouts, and whether TLS
// certificates are verified. [WithHTTPClient] and [WithHeader] override the
// client or add request headers for every mount.
//
// # Observability
//
// Listings, lookups, path resolution and file reads are traced with
// OpenTelemetry (see [WithTracerProvider]). Prometheus metrics are registered
// with [WithMetrics], and mount lifecycle and aborted listings are logged
// through logrus (see [WithLogger]).
package webfs
