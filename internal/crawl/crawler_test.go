package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/fetch"
	"github.com/grantscout/grantscout/internal/grant"
)

// stubFetcher serves an in-memory site graph and records every URL fetched.
type stubFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (fetch.Result, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()
	body, ok := f.pages[rawURL]
	if !ok {
		return fetch.Result{}, errors.New("unreachable")
	}
	return fetch.Result{URL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *stubFetcher) fetchCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == rawURL {
			n++
		}
	}
	return n
}

func testCrawler(f Fetcher, cfg Config) *Crawler {
	cfg.Politeness = time.Millisecond
	return New(f, nil, nil, nil, cfg, zap.NewNop())
}

func testPortal() grant.Portal {
	return grant.Portal{Name: "example", BaseURL: "https://grants.example.org"}
}

func TestCrawlFindsGrantPages(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{
		"https://grants.example.org": `<html><title>Agency</title><body>
			Welcome. <a href="/funding">More information</a>
		</body></html>`,
		"https://grants.example.org/funding": `<html><title>Funding opportunities</title><body>
			Apply now for our innovation grant. Deadline soon.
		</body></html>`,
	}}

	found := testCrawler(f, Config{MaxPages: 3}).Crawl(context.Background(), testPortal(), nil)
	require.Len(t, found, 1)
	require.Equal(t, "Funding opportunities", found[0].Title)
}

func TestCrawlVisitsEachURLOnceWithCycles(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{
		"https://grants.example.org": `<html><body>
			<a href="/grants/a">grant a</a>
		</body></html>`,
		"https://grants.example.org/grants/a": `<html><body>grant funding here
			<a href="https://grants.example.org">funding home</a>
			<a href="/grants/a">grant a again</a>
		</body></html>`,
	}}

	testCrawler(f, Config{MaxPages: 10}).Crawl(context.Background(), testPortal(), nil)
	require.Equal(t, 1, f.fetchCount("https://grants.example.org"))
	require.Equal(t, 1, f.fetchCount("https://grants.example.org/grants/a"))
}

func TestCrawlNeverLeavesPortalDomain(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{
		"https://grants.example.org": `<html><body>grant funding
			<a href="https://evil.example.com/grant-funding">great grant funding</a>
			<a href="https://sub.grants.example.org/funding">subdomain funding</a>
		</body></html>`,
		"https://sub.grants.example.org/funding": `<html><body>grant page</body></html>`,
	}}

	testCrawler(f, Config{MaxPages: 10}).Crawl(context.Background(), testPortal(), nil)
	require.Zero(t, f.fetchCount("https://evil.example.com/grant-funding"),
		"off-domain links are never enqueued")
	require.Equal(t, 1, f.fetchCount("https://sub.grants.example.org/funding"))
}

func TestCrawlStopsAtMaxPages(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	home := `<html><body>funding `
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://grants.example.org/grant%d", i)
		home += fmt.Sprintf(`<a href="%s">grant %d</a>`, u, i)
		pages[u] = `<html><title>Grant page</title><body>grant funding apply now</body></html>`
	}
	home += `</body></html>`
	pages["https://grants.example.org"] = home

	f := &stubFetcher{pages: pages}
	found := testCrawler(f, Config{MaxPages: 3}).Crawl(context.Background(), testPortal(), nil)
	require.Len(t, found, 3)
}

func TestCrawlUnreachablePortalYieldsEmpty(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{}}
	found := testCrawler(f, Config{MaxPages: 3}).Crawl(context.Background(), testPortal(), nil)
	require.Empty(t, found)
}

func TestCrawlMatchesCallerKeywords(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{
		"https://grants.example.org": `<html><title>Programs</title><body>
			Our fjordtech accelerator supports coastal companies.
		</body></html>`,
	}}

	found := testCrawler(f, Config{MaxPages: 3}).Crawl(context.Background(), testPortal(), []string{"fjordtech"})
	require.Len(t, found, 1)
}

func TestCrawlReturnsPartialResultsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &stubFetcher{pages: map[string]string{
		"https://grants.example.org": `<html><body>grant funding</body></html>`,
	}}
	found := testCrawler(f, Config{MaxPages: 3}).Crawl(ctx, testPortal(), nil)
	require.Empty(t, found)
}

func TestCrawlBadBaseURL(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]string{}}
	found := testCrawler(f, Config{}).Crawl(context.Background(),
		grant.Portal{Name: "broken", BaseURL: "://not-a-url"}, nil)
	require.Empty(t, found)
	require.Empty(t, f.fetched)
}
