package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware holds the prometheus metrics for the HTTP surface and
// the corpus as a whole.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	chapterTotal    prometheus.Gauge
	corpusIssues    *prometheus.GaugeVec
}

// NewPrometheusMiddleware creates a new PrometheusMiddleware and registers
// its collectors on the given registry.
func NewPrometheusMiddleware(reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	m := &PrometheusMiddleware{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency distribution.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		chapterTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_chapters",
				Help: "Number of chapters currently stored in the corpus.",
			},
		),
		corpusIssues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corpus_lint_issues",
				Help: "Issues found by the most recent corpus validation, by severity.",
			},
			[]string{"severity"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration, m.chapterTotal, m.corpusIssues} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordValidation updates the corpus gauges after a validation run.
func (m *PrometheusMiddleware) RecordValidation(chapters, errs, warnings int) {
	m.chapterTotal.Set(float64(chapters))
	m.corpusIssues.WithLabelValues("error").Set(float64(errs))
	m.corpusIssues.WithLabelValues("warning").Set(float64(warnings))
}

// Handler returns the fiber middleware handler counting requests by
// method/path/status. Path uses the route pattern (e.g. /chapters/:slug) so
// label cardinality stays bounded.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Exclude /metrics from being counted
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path() // Fallback to raw path if route not found (e.g. 404)
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.requestCount.WithLabelValues(
			c.Method(),
			path,
			strconv.Itoa(status),
		).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}
