package metrics

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catsgallery/gallery"
)

// unmatchedPath labels API calls that matched no route.
const unmatchedPath = "unmatched"

const (
	OutcomeCommitted  = "committed"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

type Metrics struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	catsPerFetch  prometheus.Histogram
	apiTimeMetric *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catsgallery_fetches_total",
			Help: "Outbound cat API fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catsgallery_fetch_duration_seconds",
			Help:    "Duration of outbound cat API fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		catsPerFetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catsgallery_fetch_cats",
			Help:    "Number of descriptors returned by successful fetches.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		apiTimeMetric: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "catsgallery_api_call_seconds",
			Help: "API calls",
		}, []string{"method", "path"}),
	}
	registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.catsPerFetch,
		m.apiTimeMetric,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackSessions exports the number of mounted gallery views.
func (m *Metrics) TrackSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "catsgallery_sessions",
		Help: "Mounted gallery views.",
	}, func() float64 {
		return float64(count())
	}))
}

func (m *Metrics) TrackDatabase(db *sql.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) ObserveFetch(record gallery.FetchRecord) {
	m.fetchDuration.Observe(record.Duration.Seconds())
	switch {
	case record.Err != nil:
		m.fetches.WithLabelValues(OutcomeFailed).Inc()
	case record.Committed:
		m.fetches.WithLabelValues(OutcomeCommitted).Inc()
		m.catsPerFetch.Observe(float64(len(record.Cats)))
	default:
		m.fetches.WithLabelValues(OutcomeSuperseded).Inc()
		m.catsPerFetch.Observe(float64(len(record.Cats)))
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

type apiMiddlewareConfig struct {
	Filter  func(c *fiber.Ctx) bool
	metrics *Metrics
}

func (m *Metrics) APIMiddleware() fiber.Handler {
	cfg := apiMiddlewareConfig{
		metrics: m,
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
	}

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}
		method := c.Method()

		start := time.Now()
		err := c.Next()
		path := c.Route().Path
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
			path = unmatchedPath
		}
		cfg.metrics.ObserveAPICall(method, path, time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) ObserveAPICall(method string, path string, duration float64) {
	m.apiTimeMetric.WithLabelValues(method, path).Observe(duration)
}
