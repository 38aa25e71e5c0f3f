// Package discovery composes portal selection, crawling, extraction,
// deduplication, enrichment and clarification into one run.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/enrich"
	"github.com/grantscout/grantscout/internal/grant"
	"github.com/grantscout/grantscout/internal/portal"
	"github.com/grantscout/grantscout/internal/store"
)

// PortalCrawler walks one portal for grant pages.
type PortalCrawler interface {
	Crawl(ctx context.Context, p grant.Portal, keywords []string) []grant.PageSnapshot
}

// RecordExtractor mines raw records out of a snapshot.
type RecordExtractor interface {
	Extract(snap grant.PageSnapshot) []grant.RawGrantRecord
}

// Enricher validates, scores and ranks records.
type Enricher interface {
	Enrich(ctx context.Context, records []grant.RawGrantRecord, criteria grant.SearchCriteria) []grant.EnrichedGrant
}

// ClarificationPolicy decides whether to ask a follow-up question.
type ClarificationPolicy interface {
	Decide(ctx context.Context, resultCount int, criteria grant.SearchCriteria) grant.ClarificationState
}

// Config bounds one discovery run.
type Config struct {
	// Workers is the number of portals crawled concurrently.
	Workers int
	// MinRawRecords is the floor below which the verified fallback set is
	// merged into the results.
	MinRawRecords int
	// Budget caps the wall-clock time of the crawl phase.
	Budget time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.MinRawRecords <= 0 {
		c.MinRawRecords = 10
	}
	if c.Budget <= 0 {
		c.Budget = 90 * time.Second
	}
	return c
}

// Orchestrator runs the discovery pipeline end to end.
type Orchestrator struct {
	selector  *portal.Selector
	crawler   PortalCrawler
	extractor RecordExtractor
	enricher  Enricher
	policy    ClarificationPolicy
	refiner   grant.CriteriaExtractor
	runs      store.Provider
	cfg       Config
	logger    *zap.Logger
}

// New builds an Orchestrator. refiner may be nil; runs may be nil for no
// persistence.
func New(
	selector *portal.Selector,
	crawler PortalCrawler,
	extractor RecordExtractor,
	enricher Enricher,
	policy ClarificationPolicy,
	refiner grant.CriteriaExtractor,
	runs store.Provider,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if runs == nil {
		runs = store.NoOp{}
	}
	return &Orchestrator{
		selector:  selector,
		crawler:   crawler,
		extractor: extractor,
		enricher:  enricher,
		policy:    policy,
		refiner:   refiner,
		runs:      runs,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Discover runs one discovery pass. Failures below the orchestrator degrade
// to smaller result sets; only an empty portal selection is surfaced as an
// error result. The returned value is always usable.
func (o *Orchestrator) Discover(ctx context.Context, criteria grant.SearchCriteria, mode string) grant.DiscoveryResult {
	started := time.Now()
	runID := uuid.New().String()
	logger := o.logger.With(zap.String("run_id", runID))

	var steps []string
	step := func(format string, args ...any) {
		steps = append(steps, fmt.Sprintf(format, args...))
	}

	if mode == grant.ModeChat && criteria.FreeTextQuery != "" && o.refiner != nil {
		refined, err := o.refiner.Extract(ctx, criteria.FreeTextQuery)
		if err != nil {
			logger.Debug("criteria refinement unavailable, keeping raw query", zap.Error(err))
		} else if strings.TrimSpace(refined) != "" {
			criteria.FreeTextQuery = refined
			step("Refined free-text request into a search query")
		}
	}
	step("Parsed search criteria: %s", criteria.Summary())

	portals := o.selector.Select(criteria)
	if len(portals) == 0 {
		logger.Error("no portals available, aborting run")
		return o.errorResult(runID, started, steps)
	}
	step("Selected %d portals to explore", len(portals))

	raw := o.crawlPortals(ctx, logger, portals, criteria, step)

	deduped := enrich.Dedupe(raw)
	if len(deduped) < len(raw) {
		step("Removed %d duplicate records", len(raw)-len(deduped))
	}

	grants := o.enricher.Enrich(ctx, deduped, criteria)
	step("Scored and ranked %d grants", len(grants))

	if len(deduped) < o.cfg.MinRawRecords {
		grants = mergeVerified(grants)
		step("Added verified fallback grants")
	}

	result := grant.DiscoveryResult{
		RunID:         runID,
		Grants:        grants,
		Clarification: o.policy.Decide(ctx, len(grants), criteria),
		Steps:         steps,
		TotalFound:    len(grants),
		Mode:          mode,
		Elapsed:       time.Since(started),
	}

	if err := o.runs.SaveRun(ctx, result, criteria); err != nil {
		logger.Warn("persisting run failed", zap.Error(err))
	}
	logger.Info("discovery run complete",
		zap.Int("grants", len(result.Grants)),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result
}

// crawlPortals fans portals out over a bounded worker pool and gathers every
// extracted record. Portal order does not affect record identity; dedupe and
// ranking normalize the final order.
func (o *Orchestrator) crawlPortals(ctx context.Context, logger *zap.Logger, portals []grant.Portal, criteria grant.SearchCriteria, step func(string, ...any)) []grant.RawGrantRecord {
	crawlCtx, cancel := context.WithTimeout(ctx, o.cfg.Budget)
	defer cancel()

	keywords := criteria.Keywords()
	jobs := make(chan grant.Portal)
	results := make(chan []grant.RawGrantRecord)

	workers := o.cfg.Workers
	if workers > len(portals) {
		workers = len(portals)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				snaps := o.crawler.Crawl(crawlCtx, p, keywords)
				var records []grant.RawGrantRecord
				for _, snap := range snaps {
					records = append(records, o.extractor.Extract(snap)...)
				}
				logger.Debug("portal explored",
					zap.String("portal", p.Name),
					zap.Int("pages", len(snaps)),
					zap.Int("records", len(records)),
				)
				results <- records
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range portals {
			select {
			case jobs <- p:
			case <-crawlCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var raw []grant.RawGrantRecord
	for records := range results {
		raw = append(raw, records...)
	}
	step("Crawled %d portals, extracted %d raw records", len(portals), len(raw))
	return raw
}

// mergeVerified appends the verified catalog entries not already present and
// renumbers the combined set.
func mergeVerified(grants []grant.EnrichedGrant) []grant.EnrichedGrant {
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		seen[dedupeKey(g)] = struct{}{}
	}
	for _, v := range portal.VerifiedGrants() {
		if _, dup := seen[dedupeKey(v)]; dup {
			continue
		}
		grants = append(grants, v)
	}
	for i := range grants {
		grants[i].ID = i + 1
	}
	return grants
}

func dedupeKey(g grant.EnrichedGrant) string {
	return strings.ToLower(g.Title) + "_" + strings.ToLower(g.SourceDomain)
}

// errorResult is the structured reply for a total initialization failure.
// It always carries a retry-oriented clarification so the caller has a next
// move.
func (o *Orchestrator) errorResult(runID string, started time.Time, steps []string) grant.DiscoveryResult {
	steps = append(steps, "Encountered technical issue", "Requesting user guidance")
	return grant.DiscoveryResult{
		RunID: runID,
		Clarification: grant.ClarificationState{
			Needed:   true,
			Question: "I'm experiencing technical difficulties accessing grant databases. Would you like me to:",
			Options: []string{
				"Try a simpler search with basic keywords",
				"Search for grants in a specific country only",
				"Look for general startup funding opportunities",
				"Retry the search in a few moments",
			},
		},
		Steps:   steps,
		Mode:    "error_recovery",
		Elapsed: time.Since(started),
		Err:     "no usable grant portals configured",
	}
}
