// Package linkcheck probes external URLs referenced by chapters. Probing is
// best-effort and bounded: each URL gets one HEAD request (falling back to GET
// when the server rejects HEAD) under a per-request timeout, and the whole
// batch runs through a size-limited errgroup.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of probing one URL. Err is set when the request
// could not complete at all; otherwise Status carries the final HTTP status.
type Result struct {
	Status int
	Err    error
}

// OK reports whether the URL answered with a non-error status.
func (r Result) OK() bool {
	return r.Err == nil && r.Status < 400
}

// Checker probes batches of external URLs with bounded concurrency.
type Checker struct {
	client      *http.Client
	timeout     time.Duration
	concurrency int
}

// New builds a Checker. The HTTP client uses an otel-instrumented transport
// so outbound probes appear in traces alongside the request that triggered
// the validation.
func New(timeout time.Duration, concurrency int) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Checker{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// CheckAll probes the given URLs, deduplicated, and returns a result per
// distinct URL. Probe failures are recorded in the results rather than
// aborting the batch; the returned error reflects context cancellation only.
func (c *Checker) CheckAll(ctx context.Context, urls []string) (map[string]Result, error) {
	results := make(map[string]Result, len(urls))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true

		g.Go(func() error {
			res := c.check(ctx, u)
			mu.Lock()
			results[u] = res
			mu.Unlock()
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("link check: %w", err)
	}
	return results, nil
}

// check probes a single URL. HEAD first; some servers answer 405 for HEAD
// while serving GET fine, so retry once with GET in that case.
func (c *Checker) check(ctx context.Context, url string) Result {
	status, err := c.probe(ctx, http.MethodHead, url)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = c.probe(ctx, http.MethodGet, url)
	}
	if err != nil {
		return Result{Err: err}
	}
	return Result{Status: status}
}

func (c *Checker) probe(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
