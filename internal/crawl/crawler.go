// Package crawl drives the bounded breadth-first traversal of one portal.
package crawl

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/fetch"
	"github.com/grantscout/grantscout/internal/grant"
	"github.com/grantscout/grantscout/internal/parse"
)

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Result, error)
}

// Renderer re-fetches a page with JavaScript enabled.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (fetch.Result, error)
}

// Sink receives qualifying page snapshots for out-of-band archival.
type Sink interface {
	SavePage(ctx context.Context, snap grant.PageSnapshot) error
}

// grantIndicators classify a page as grant-related when found in its title
// or text. Kept broad on purpose; the extractor filters the noise later.
var grantIndicators = []string{
	"grant", "funding", "financial support", "startup funding",
	"innovation fund", "research funding", "sbir", "sttr",
	"seed funding", "application deadline", "eligibility", "apply now",
	"funding opportunities", "call for proposals", "tender", "scholarship",
}

// grantLinkTerms admit a link into the frontier when present in its text or URL.
var grantLinkTerms = []string{
	"grant", "funding", "finance", "startup", "innovation",
	"research", "sbir", "call", "opportunit",
}

// neutralLinkTerms admit a few on-site navigation links to widen the crawl.
var neutralLinkTerms = []string{"program", "apply", "eligibility", "how-to", "fund"}

// Config bounds one portal crawl.
type Config struct {
	MaxPages        int
	MaxLinksPerPage int
	Politeness      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPages <= 0 {
		c.MaxPages = 3
	}
	if c.MaxLinksPerPage <= 0 {
		c.MaxLinksPerPage = 20
	}
	if c.Politeness <= 0 {
		c.Politeness = 600 * time.Millisecond
	}
	return c
}

// crawlState is the working set of one Crawl call. Each invocation owns its
// own instance; nothing is shared across portals or runs.
type crawlState struct {
	visited  map[string]struct{}
	frontier []string
	found    []grant.PageSnapshot
}

// Crawler walks one portal at a time looking for grant pages.
type Crawler struct {
	fetcher  Fetcher
	renderer Renderer
	detector *RenderDetector
	sink     Sink
	cfg      Config
	logger   *zap.Logger
}

// New builds a Crawler. renderer, detector and sink may all be nil.
func New(fetcher Fetcher, renderer Renderer, detector *RenderDetector, sink Sink, cfg Config, logger *zap.Logger) *Crawler {
	return &Crawler{
		fetcher:  fetcher,
		renderer: renderer,
		detector: detector,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Crawl walks the portal breadth-first from its base URL, collecting up to
// MaxPages grant-related snapshots. Failures degrade to a shorter (possibly
// empty) result; the call never returns an error.
func (c *Crawler) Crawl(ctx context.Context, portal grant.Portal, keywords []string) []grant.PageSnapshot {
	base, err := url.Parse(portal.BaseURL)
	if err != nil {
		c.logger.Warn("portal base URL unparseable",
			zap.String("portal", portal.Name),
			zap.String("url", portal.BaseURL),
			zap.Error(err),
		)
		return nil
	}

	state := &crawlState{
		visited:  make(map[string]struct{}),
		frontier: []string{portal.BaseURL},
	}

	for len(state.frontier) > 0 && len(state.found) < c.cfg.MaxPages {
		if ctx.Err() != nil {
			c.logger.Info("crawl budget exceeded, returning partial results",
				zap.String("portal", portal.Name),
				zap.Int("found", len(state.found)),
			)
			break
		}

		next := state.frontier[0]
		state.frontier = state.frontier[1:]
		if _, seen := state.visited[next]; seen {
			continue
		}
		state.visited[next] = struct{}{}

		snap, ok := c.fetchPage(ctx, next)
		if !ok {
			pause(ctx, c.cfg.Politeness)
			continue
		}

		if c.isGrantRelated(snap, keywords) {
			TotalGrantPages.Inc()
			state.found = append(state.found, snap)
			c.logger.Debug("grant page found",
				zap.String("portal", portal.Name),
				zap.String("url", snap.URL),
				zap.String("title", snap.Title),
			)
			c.archive(ctx, snap)
		}

		c.enqueueLinks(state, snap, base, keywords)
		pause(ctx, c.cfg.Politeness)
	}

	return state.found
}

func (c *Crawler) fetchPage(ctx context.Context, rawURL string) (grant.PageSnapshot, bool) {
	TotalFetches.Inc()
	res, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		TotalFetchErrors.Inc()
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return grant.PageSnapshot{}, false
	}
	switch res.StatusCode {
	case http.StatusTooManyRequests:
		TotalRateLimitHits.Inc()
	case http.StatusForbidden:
		TotalForbiddenHits.Inc()
	}
	if res.StatusCode != http.StatusOK {
		c.logger.Debug("skipping non-200 page",
			zap.String("url", rawURL),
			zap.Int("status", res.StatusCode),
		)
		return grant.PageSnapshot{}, false
	}

	if c.renderer != nil && c.detector.NeedsJS(res.Body) {
		TotalHeadlessRenders.Inc()
		rendered, rerr := c.renderer.Render(ctx, rawURL)
		if rerr != nil {
			c.logger.Debug("headless render failed, keeping plain body",
				zap.String("url", rawURL), zap.Error(rerr))
		} else if rendered.StatusCode == http.StatusOK {
			res = rendered
		}
	}

	return parse.Snapshot(rawURL, res.StatusCode, res.Body), true
}

func (c *Crawler) isGrantRelated(snap grant.PageSnapshot, keywords []string) bool {
	title := strings.ToLower(snap.Title)
	text := strings.ToLower(snap.Text)
	for _, ind := range grantIndicators {
		if strings.Contains(title, ind) || strings.Contains(text, ind) {
			return true
		}
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (c *Crawler) enqueueLinks(state *crawlState, snap grant.PageSnapshot, base *url.URL, keywords []string) {
	links := snap.Links
	if len(links) > c.cfg.MaxLinksPerPage {
		links = links[:c.cfg.MaxLinksPerPage]
	}
	for _, link := range links {
		if !shouldVisit(link, base, keywords) {
			continue
		}
		if _, seen := state.visited[link.URL]; seen {
			continue
		}
		state.frontier = append(state.frontier, link.URL)
	}
}

// shouldVisit admits a link only when it stays on the portal's domain and
// looks on-topic, which keeps the frontier from exploding.
func shouldVisit(link grant.Link, base *url.URL, keywords []string) bool {
	parsed, err := url.Parse(link.URL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || !strings.Contains(host, strings.ToLower(base.Hostname())) {
		return false
	}

	text := strings.ToLower(link.Text)
	target := strings.ToLower(link.URL)
	for _, term := range grantLinkTerms {
		if strings.Contains(text, term) || strings.Contains(target, term) {
			return true
		}
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw != "" && (strings.Contains(text, kw) || strings.Contains(target, kw)) {
			return true
		}
	}
	for _, term := range neutralLinkTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func (c *Crawler) archive(ctx context.Context, snap grant.PageSnapshot) {
	if c.sink == nil {
		return
	}
	if err := c.sink.SavePage(ctx, snap); err != nil {
		c.logger.Warn("page archive failed", zap.String("url", snap.URL), zap.Error(err))
	}
}

// pause sleeps for delay unless the context finishes first.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
