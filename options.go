package webfs

import (
	"net/http"
	"time"

	"github.com/hairyhenderson/go-webfs/webclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Registry.
type Option interface {
	apply(*config)
}

type config struct {
	log          logrus.FieldLogger
	tp           trace.TracerProvider
	promReg      prometheus.Registerer
	httpClient   *http.Client
	header       http.Header
	clientConfig func(base string) webclient.Config
	now          func() time.Time
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithLogger sets the logger for mount lifecycle and listing problems. The
// logrus standard logger is used by default.
func WithLogger(log logrus.FieldLogger) Option {
	return optionFunc(func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	})
}

// WithTracerProvider specifies a tracer provider to use for creating a tracer.
// If none is specified, the global provider is used (see [otel.GetTracerProvider]).
func WithTracerProvider(provider trace.TracerProvider) Option {
	return optionFunc(func(cfg *config) {
		if provider != nil {
			cfg.tp = provider
		}
	})
}

// WithMetrics registers the registry's Prometheus collectors with reg.
// Without it, metrics are still collected but not registered anywhere.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(cfg *config) {
		cfg.promReg = reg
	})
}

// WithHTTPClient makes every mount use client instead of one built from its
// webclient.Config.
func WithHTTPClient(client *http.Client) Option {
	return optionFunc(func(cfg *config) {
		cfg.httpClient = client
	})
}

// WithHeader adds headers to every request made by every mount.
func WithHeader(header http.Header) Option {
	return optionFunc(func(cfg *config) {
		cfg.header = header
	})
}

// WithClientConfig sets the function used to configure the transport of a new
// mount. It receives the mount's base URL; the BaseURL of the returned Config
// is ignored.
func WithClientConfig(f func(base string) webclient.Config) Option {
	return optionFunc(func(cfg *config) {
		if f != nil {
			cfg.clientConfig = f
		}
	})
}

// WithClock sets the source of the time stamped on a mount's placeholder
// attributes.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	})
}
