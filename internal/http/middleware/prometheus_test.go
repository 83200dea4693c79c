package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware(t *testing.T) {
	// Fresh registry per test to avoid duplicate registration panics
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/chapters/:slug", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/chapters/arrays", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest("GET", "/chapters/operators", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Both requests land on one series labelled with the route pattern, not
	// the concrete slugs.
	count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/chapters/:slug", "200"))
	assert.Equal(t, float64(2), count)

	app.Test(httptest.NewRequest("GET", "/error", nil))
	countErr := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/error", "400"))
	assert.Equal(t, float64(1), countErr)

	// Latency histogram observed the same requests
	hist := testutil.CollectAndCount(promMiddleware.requestDuration)
	assert.Equal(t, 2, hist) // two label sets: /chapters/:slug and /error
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 0, testutil.CollectAndCount(promMiddleware.requestCount))
	assert.Equal(t, 0, testutil.CollectAndCount(promMiddleware.requestDuration))
}

func TestRecordValidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	promMiddleware.RecordValidation(30, 2, 5)

	assert.Equal(t, float64(30), testutil.ToFloat64(promMiddleware.chapterTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(promMiddleware.corpusIssues.WithLabelValues("error")))
	assert.Equal(t, float64(5), testutil.ToFloat64(promMiddleware.corpusIssues.WithLabelValues("warning")))
}
