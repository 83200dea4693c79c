package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAll(t *testing.T) {
	var headCalls, getCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/no-head":
			if r.Method == http.MethodHead {
				headCalls++
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			getCalls++
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := New(5*time.Second, 4)

	urls := []string{
		srv.URL + "/ok",
		srv.URL + "/ok", // duplicate, probed once
		srv.URL + "/missing",
		srv.URL + "/no-head",
	}
	results, err := c.CheckAll(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[srv.URL+"/ok"].OK())
	assert.Equal(t, http.StatusNotFound, results[srv.URL+"/missing"].Status)
	assert.False(t, results[srv.URL+"/missing"].OK())

	// HEAD 405 falls back to GET
	assert.True(t, results[srv.URL+"/no-head"].OK())
	assert.Equal(t, 1, headCalls)
	assert.Equal(t, 1, getCalls)
}

func TestCheckAllUnreachable(t *testing.T) {
	c := New(500*time.Millisecond, 2)

	// Closed server: connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	results, err := c.CheckAll(context.Background(), []string{url + "/gone"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[url+"/gone"]
	assert.Error(t, res.Err)
	assert.False(t, res.OK())
}

func TestCheckAllCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(5*time.Second, 2)
	_, err := c.CheckAll(ctx, []string{srv.URL})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, 10*time.Second, c.timeout)
	assert.Equal(t, 8, c.concurrency)
}
