// Package fetch implements page retrieval with retry, backoff, and an
// optional relay through a third-party fetch proxy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Result is what one fetch hands back. StatusCode and Body are valid whenever
// the final attempt received an HTTP response, even a non-2xx one.
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Config controls fetcher behavior. The relay settings switch dispatch
// through a rendering proxy without changing the Fetch contract.
type Config struct {
	UserAgent        string
	Timeout          time.Duration
	MaxAttempts      int
	BackoffBase      time.Duration
	RelayEnabled     bool
	RelayEndpoint    string
	RelayAPIKey      string
	RelayRenderPages bool
}

// Fetcher retrieves single pages via a Colly collector.
type Fetcher struct {
	cfg    Config
	policy RetryPolicy
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher. The base collector is cloned per request so hooks
// never leak between calls.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	base := colly.NewCollector()
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.ParseHTTPErrorResponse = true
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})

	return &Fetcher{
		cfg:    cfg,
		policy: NewRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase),
		base:   base,
		logger: logger,
	}
}

// Fetch performs an HTTP GET for rawURL, retrying transient statuses and
// network errors with linearly increasing backoff. It returns the last
// response received; err is non-nil only when no attempt produced one.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{URL: rawURL}, fmt.Errorf("fetch canceled: %w", err)
		}

		res, err := f.attempt(ctx, rawURL)
		if err != nil {
			lastErr = err
			f.logger.Debug("fetch attempt failed",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < f.policy.MaxAttempts {
				pause(ctx, f.policy.Backoff(attempt))
			}
			continue
		}

		res.Duration = time.Since(start)
		if f.policy.RetryableStatus(res.StatusCode) && attempt < f.policy.MaxAttempts {
			f.logger.Debug("retryable status",
				zap.String("url", rawURL),
				zap.Int("status", res.StatusCode),
				zap.Int("attempt", attempt),
			)
			pause(ctx, f.policy.Backoff(attempt))
			continue
		}
		return res, nil
	}

	if lastErr == nil {
		lastErr = errors.New("all fetch attempts exhausted")
	}
	return Result{URL: rawURL}, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) (Result, error) {
	target := rawURL
	if f.cfg.RelayEnabled {
		target = f.relayURL(rawURL)
	}

	collector := f.base.Clone()

	var (
		mu     sync.Mutex
		res    Result
		got    bool
		netErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		res = Result{
			URL:        rawURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
		got = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if r != nil && r.StatusCode > 0 {
			// HTTP-level failure still carries a usable status and body.
			res = Result{
				URL:        rawURL,
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			}
			got = true
			return
		}
		netErr = err
	})

	done := make(chan error, 1)
	go func() {
		visitErr := collector.Visit(target)
		collector.Wait()
		done <- visitErr
	}()

	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		mu.Lock()
		defer mu.Unlock()
		if got {
			return res, nil
		}
		switch {
		case netErr != nil:
			return Result{}, netErr
		case visitErr != nil:
			return Result{}, visitErr
		default:
			return Result{}, errors.New("fetch produced no response")
		}
	}
}

// relayURL rewrites the target so the request goes out through the proxy,
// which handles TLS and JS rendering on its side.
func (f *Fetcher) relayURL(rawURL string) string {
	params := url.Values{}
	params.Set("api_key", f.cfg.RelayAPIKey)
	params.Set("url", rawURL)
	params.Set("keep_headers", "true")
	if f.cfg.RelayRenderPages {
		params.Set("render", "true")
	}
	return f.cfg.RelayEndpoint + "?" + params.Encode()
}
