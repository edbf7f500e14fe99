package webfs

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hairyhenderson/go-webfs/webclient"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Scheme is the address scheme served by a Registry.
const Scheme = "webfs"

const tracerName = "github.com/hairyhenderson/go-webfs"

// Registry keeps the open mounts, keyed by the scheme-specific part of their
// root address (for example "https://example.com/pub/" for the address
// "webfs:https://example.com/pub/"). An address under an open mount resolves
// to that mount rather than opening a new one.
//
// All operations on the table are serialised by a single lock.
type Registry struct {
	mounts map[string]*FileSystem

	log          logrus.FieldLogger
	tracer       trace.Tracer
	metrics      *metrics
	httpClient   *http.Client
	header       http.Header
	clientConfig func(base string) webclient.Config
	now          func() time.Time

	mu sync.Mutex
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	cfg := config{}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.log == nil {
		cfg.log = logrus.StandardLogger()
	}

	if cfg.tp == nil {
		cfg.tp = otel.GetTracerProvider()
	}

	if cfg.clientConfig == nil {
		cfg.clientConfig = func(string) webclient.Config { return webclient.Config{} }
	}

	if cfg.now == nil {
		cfg.now = time.Now
	}

	return &Registry{
		mounts:       map[string]*FileSystem{},
		log:          cfg.log,
		tracer:       cfg.tp.Tracer(tracerName),
		metrics:      newMetrics(cfg.promReg, cfg.log),
		httpClient:   cfg.httpClient,
		header:       cfg.header,
		clientConfig: cfg.clientConfig,
		now:          cfg.now,
	}
}

// Scheme returns the address scheme, "webfs".
func (r *Registry) Scheme() string {
	return Scheme
}

// Len returns the number of open mounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.mounts)
}

// Keys returns the keys of the open mounts, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.mounts))
	for k := range r.mounts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// FileSystem returns the mount for addr: the mount keyed by exactly addr's
// scheme-specific part, or else the one with the longest key that addr lies
// under. ErrNotFound is returned when there is none.
func (r *Registry) FileSystem(addr string) (*FileSystem, error) {
	key, err := r.key(addr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f := r.lookup(key); f != nil {
		return f, nil
	}

	return nil, &fs.PathError{Op: "mount", Path: addr, Err: ErrNotFound}
}

// NewFileSystem opens a mount rooted at addr. ErrExist is returned when addr
// is already covered by an open mount.
func (r *Registry) NewFileSystem(addr string) (*FileSystem, error) {
	key, err := r.key(addr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.create(key)
}

// Remove closes the mount keyed by exactly addr's scheme-specific part. Mounts
// that merely share a prefix with addr are left alone. Removing a key with
// no mount is not an error.
func (r *Registry) Remove(addr string) error {
	key, err := r.key(addr)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.mounts[key]; ok {
		f.closed.Store(true)
		delete(r.mounts, key)
		r.metrics.mounts.Dec()
		r.log.WithField("mount", key).Debug("webfs: mount removed")
	}

	return nil
}

// Path returns the path for a directory address, opening a mount rooted at
// addr when no open mount covers it.
func (r *Registry) Path(ctx context.Context, addr string) (*Path, error) {
	key, err := r.key(addr)
	if err != nil {
		return nil, err
	}

	f, err := r.getOrCreate(key)
	if err != nil {
		return nil, err
	}

	return f.Path(ctx, key)
}

func (r *Registry) getOrCreate(key string) (*FileSystem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f := r.lookup(key); f != nil {
		return f, nil
	}

	return r.create(key)
}

// create must be called with r.mu held.
func (r *Registry) create(key string) (*FileSystem, error) {
	if f := r.lookup(key); f != nil {
		return nil, &fs.PathError{Op: "mount", Path: Scheme + ":" + key, Err: ErrExist}
	}

	f, err := newFileSystem(r, key)
	if err != nil {
		return nil, err
	}

	r.mounts[key] = f
	r.metrics.mounts.Inc()
	r.log.WithField("mount", key).Debug("webfs: mount created")

	return f, nil
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(key string) *FileSystem {
	if f, ok := r.mounts[key]; ok {
		return f
	}

	var (
		found *FileSystem
		best  int
	)

	dir := strings.TrimSuffix(key, "/") + "/"

	for k, f := range r.mounts {
		prefix := strings.TrimSuffix(k, "/") + "/"
		if len(prefix) > best && strings.HasPrefix(dir, prefix) {
			found, best = f, len(prefix)
		}
	}

	return found
}

// key validates addr's scheme and returns its scheme-specific part.
func (r *Registry) key(addr string) (string, error) {
	scheme, ssp, ok := strings.Cut(strings.TrimSpace(addr), ":")
	if !ok || scheme != Scheme {
		return "", &fs.PathError{Op: "mount", Path: addr, Err: fmt.Errorf("%w: want %q", ErrSchemeMismatch, Scheme)}
	}

	if ssp == "" {
		return "", &fs.PathError{Op: "mount", Path: addr, Err: ErrInvalidPath}
	}

	return ssp, nil
}
