package webfs

import (
	"errors"
	"io"
	"io/fs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	outcomeOK      = "ok"
	outcomeClosed  = "closed"
	outcomeCorrupt = "corrupt"
	outcomeError   = "error"
)

type metrics struct {
	listings *prometheus.CounterVec
	records  prometheus.Counter
	opens    *prometheus.CounterVec
	mounts   prometheus.Gauge
}

// newMetrics creates the collectors, registering them with reg unless it is
// nil. Registries sharing reg share its collectors.
func newMetrics(reg prometheus.Registerer, log logrus.FieldLogger) *metrics {
	return &metrics{
		listings: register(reg, log, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webfs_listings_total",
			Help: "Directory listings fetched, by how they ended",
		}, []string{"outcome"})),
		records: register(reg, log, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webfs_listing_records_total",
			Help: "Listing records parsed",
		})),
		opens: register(reg, log, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webfs_opens_total",
			Help: "File content requests, by outcome",
		}, []string{"outcome"})),
		mounts: register(reg, log, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webfs_mounts",
			Help: "Currently open mounts",
		})),
	}
}

// register registers c with reg, returning the collector already registered
// in its place if there is one. A collector that can't be registered is still
// returned, and works, but isn't exported.
func register[C prometheus.Collector](reg prometheus.Registerer, log logrus.FieldLogger, c C) C {
	if reg == nil {
		return c
	}

	err := reg.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}

	log.WithError(err).Warn("webfs: metrics not registered")

	return c
}

func outcome(err error) string {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return outcomeOK
	case errors.Is(err, fs.ErrClosed):
		return outcomeClosed
	case errors.Is(err, ErrCorruptListing):
		return outcomeCorrupt
	default:
		return outcomeError
	}
}
