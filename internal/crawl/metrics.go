package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalFetches tracks pages requested across all portal crawls.
	TotalFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_fetches_total",
		Help: "The total number of page fetches attempted.",
	})
	// TotalFetchErrors tracks fetches that produced no usable response.
	TotalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_fetch_errors_total",
		Help: "The total number of failed page fetches.",
	})
	// TotalRateLimitHits tracks HTTP 429 responses.
	TotalRateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_rate_limit_hits_total",
		Help: "The total number of rate-limited responses.",
	})
	// TotalForbiddenHits tracks HTTP 403 responses.
	TotalForbiddenHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_forbidden_hits_total",
		Help: "The total number of forbidden responses.",
	})
	// TotalGrantPages tracks pages classified as grant-related.
	TotalGrantPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_grant_pages_total",
		Help: "The total number of pages classified as grant-related.",
	})
	// TotalHeadlessRenders tracks escalations to the headless renderer.
	TotalHeadlessRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantscout_headless_renders_total",
		Help: "The total number of pages re-fetched with headless rendering.",
	})
)
