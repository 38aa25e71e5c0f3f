package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T, cfg Config) *Fetcher {
	t.Helper()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "grantscout-test"
	}
	return New(cfg, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "grantscout-test", r.UserAgent())
		_, _ = w.Write([]byte("<html><title>Grants</title></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(res.Body), "Grants")
	require.Equal(t, srv.URL, res.URL)
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok now"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetryPermanentStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchReturnsLastTransientResponse(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher(t, Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.EqualValues(t, 3, calls.Load(), "transient status should use every attempt")
}

func TestFetchSurfacesNetworkError(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(t, Config{MaxAttempts: 2})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestFetchSkipsBackoffAfterFinalNetworkError(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(t, Config{MaxAttempts: 2, BackoffBase: 200 * time.Millisecond})

	start := time.Now()
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)

	// One backoff between the two attempts (200ms), none after the last.
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := newTestFetcher(t, Config{})
	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchViaRelay(t *testing.T) {
	t.Parallel()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "secret", q.Get("api_key"))
		require.Equal(t, "https://portal.example/grants", q.Get("url"))
		require.Equal(t, "true", q.Get("render"))
		_, _ = w.Write([]byte("relayed body"))
	}))
	defer relay.Close()

	f := newTestFetcher(t, Config{
		RelayEnabled:     true,
		RelayEndpoint:    relay.URL,
		RelayAPIKey:      "secret",
		RelayRenderPages: true,
	})
	res, err := f.Fetch(context.Background(), "https://portal.example/grants")
	require.NoError(t, err)
	require.Equal(t, "relayed body", string(res.Body))
	require.Equal(t, "https://portal.example/grants", res.URL, "result keeps the original URL")
}

func TestRetryPolicyBackoffIsLinear(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3, 100*time.Millisecond)
	require.Equal(t, 100*time.Millisecond, p.Backoff(1))
	require.Equal(t, 200*time.Millisecond, p.Backoff(2))
	require.Equal(t, 300*time.Millisecond, p.Backoff(3))
}
