// Package webclient fetches raw file contents and directory listings from a
// remote HTTP(S) listing server.
package webclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hairyhenderson/go-webfs/internal"
	"github.com/hashicorp/go-cleanhttp"
)

// Client issues GET requests relative to a base URL.
type Client struct {
	base   *url.URL
	client *http.Client
	header http.Header
}

// New returns a Client for cfg.BaseURL, which must be an absolute http or
// https URL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	switch base.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	return &Client{
		base:   base,
		client: newHTTPClient(cfg),
		header: http.Header{},
	}, nil
}

func newHTTPClient(cfg Config) *http.Client {
	t := cleanhttp.DefaultPooledTransport()

	dialer := &net.Dialer{
		Timeout:   cfg.connectTimeout(),
		KeepAlive: 30 * time.Second,
	}

	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil || cfg.ReadTimeout <= 0 {
			return conn, err
		}

		return &deadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
	}

	if p := cfg.proxyURL(); p != nil {
		t.Proxy = http.ProxyURL(p)
	}

	if cfg.Insecure {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		t.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
	}

	return &http.Client{Transport: t}
}

// deadlineConn pushes the read deadline forward before every Read, so that
// timeout applies to each read rather than to the whole response.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	return c.Conn.Read(p)
}

// URL returns the base URL as a string.
func (c *Client) URL() string {
	return c.base.String()
}

// WithHTTPClient returns a copy of c using hc for requests. A nil hc is
// ignored.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc == nil {
		return c
	}

	cc := *c
	cc.client = hc

	return &cc
}

// WithHeader returns a copy of c that adds headers to every request.
func (c *Client) WithHeader(headers http.Header) *Client {
	if headers == nil {
		return c
	}

	cc := *c
	cc.header = c.header.Clone()

	for k, vs := range headers {
		for _, v := range vs {
			cc.header.Add(k, v)
		}
	}

	return &cc
}

// Fetch GETs name (an unescaped path relative to the base URL) and returns
// the response body, which the caller must close. Any status other than 200
// is returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := internal.SubURL(c.base, escapePath(name))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header = c.header.Clone()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, &StatusError{
			Method:     req.Method,
			URL:        u.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	// The response body must be closed later
	return resp.Body, nil
}

// escapePath escapes each segment of p, keeping the separators.
func escapePath(p string) string {
	if p == "" {
		return ""
	}

	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}

	out := strings.Join(segs, "/")

	// a colon in the first segment would otherwise be read as a scheme
	if first, _, _ := strings.Cut(out, "/"); strings.Contains(first, ":") {
		out = "./" + out
	}

	return out
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	Method     string
	URL        string
	Status     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s %s failed with status %s", e.Method, e.URL, e.Status)
}

// Is reports 404 and 410 responses as fs.ErrNotExist.
func (e *StatusError) Is(target error) bool {
	return target == fs.ErrNotExist &&
		(e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone)
}

// IsStatus reports whether err is a *StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError

	return errors.As(err, &se) && se.StatusCode == code
}
