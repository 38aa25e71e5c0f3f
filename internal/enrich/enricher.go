package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
	"github.com/grantscout/grantscout/internal/portal"
)

const (
	minTitleLen    = 5
	maxResults     = 30
	maxReasons     = 3
	placeholderURL = "https://example.com/apply"
)

// Enricher turns validated raw records into scored, ranked grants.
type Enricher struct {
	scorer grant.RelevanceScorer
	logger *zap.Logger
}

// NewEnricher builds an Enricher. scorer may be nil, in which case every
// record takes the positional fallback score.
func NewEnricher(scorer grant.RelevanceScorer, logger *zap.Logger) *Enricher {
	return &Enricher{scorer: scorer, logger: logger}
}

// Enrich validates, scores and ranks records against the criteria. Records
// failing validation are dropped; everything else is returned sorted by
// descending relevance with 1-based IDs assigned in final order.
func (e *Enricher) Enrich(ctx context.Context, records []grant.RawGrantRecord, criteria grant.SearchCriteria) []grant.EnrichedGrant {
	validated := make([]grant.RawGrantRecord, 0, len(records))
	for _, rec := range records {
		if clean, ok := validate(rec); ok {
			validated = append(validated, clean)
		}
	}

	scores := e.scoreBatch(ctx, validated, criteria.Summary())
	enriched := make([]grant.EnrichedGrant, 0, len(validated))
	for i, rec := range validated {
		enriched = append(enriched, grant.EnrichedGrant{
			RawGrantRecord: rec,
			RelevanceScore: scores[i],
		})
	}

	sort.SliceStable(enriched, func(a, b int) bool {
		return enriched[a].RelevanceScore > enriched[b].RelevanceScore
	})
	if len(enriched) > maxResults {
		enriched = enriched[:maxResults]
	}

	for i := range enriched {
		g := &enriched[i]
		g.ID = i + 1
		g.MatchReasons = matchReasons(*g, criteria)
		g.DeadlineUrgency = deadlineUrgency(g.Deadline)
		g.FundingCategory = fundingCategory(g.SourceDomain)
		g.PortalHomepage = portal.Homepage(g.SourceDomain)
		if g.ApplyLink == placeholderURL {
			g.ApplyLink = fmt.Sprintf("%s-%d", placeholderURL, g.ID)
		}
	}
	return enriched
}

// scoreBatch scores every record, all-or-nothing. A single failed call
// discards the model scores for the batch and every record takes the
// descending positional fallback instead, so ranking stays deterministic.
func (e *Enricher) scoreBatch(ctx context.Context, records []grant.RawGrantRecord, summary string) []int {
	scores := make([]int, len(records))
	if e.scorer != nil {
		ok := true
		for i, rec := range records {
			score, err := e.scorer.Score(ctx, rec, summary)
			if err != nil {
				e.logger.Debug("relevance scoring failed, using positional fallback for the batch",
					zap.String("title", rec.Title), zap.Error(err))
				ok = false
				break
			}
			scores[i] = clamp(score, 0, 100)
		}
		if ok {
			return scores
		}
	}
	for i := range scores {
		scores[i] = clamp(80-i*2, 0, 100)
	}
	return scores
}

// validate drops records with unusable titles and normalizes every field to
// its canonical presentation.
func validate(rec grant.RawGrantRecord) (grant.RawGrantRecord, bool) {
	rec.Title = collapse(rec.Title)
	if len(rec.Title) < minTitleLen {
		return grant.RawGrantRecord{}, false
	}

	rec.Amount = normalizeAmount(rec.Amount)
	rec.Deadline = normalizeDeadline(rec.Deadline)
	rec.Country = defaultIfEmpty(collapse(rec.Country), "Not specified")
	rec.Sector = defaultIfEmpty(collapse(rec.Sector), "Various")
	rec.Eligibility = defaultIfEmpty(collapse(rec.Eligibility), "Check requirements")
	rec.SourceDomain = defaultIfEmpty(collapse(rec.SourceDomain), "Unknown")
	rec.Description = collapse(rec.Description)
	rec.ApplyLink = normalizeLink(rec.ApplyLink)
	return rec, true
}

func normalizeAmount(amount string) string {
	amount = collapse(amount)
	switch strings.ToLower(amount) {
	case "", "varies", "variable", "tbd":
		return "Amount varies"
	}
	return amount
}

func normalizeDeadline(deadline string) string {
	deadline = collapse(deadline)
	switch strings.ToLower(deadline) {
	case "", "rolling", "ongoing", "continuous":
		return "Rolling deadline"
	}
	return deadline
}

func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return placeholderURL
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "https://" + link
	}
	return link
}

func matchReasons(g grant.EnrichedGrant, criteria grant.SearchCriteria) []string {
	var reasons []string
	if criteria.Industry != "" && g.Sector != "" &&
		strings.Contains(strings.ToLower(g.Sector), strings.ToLower(criteria.Industry)) {
		reasons = append(reasons, "Industry match: "+g.Sector)
	}
	if criteria.Region != "" && g.Country != "" {
		if strings.EqualFold(criteria.Region, "Global") ||
			strings.Contains(strings.ToLower(g.Country), strings.ToLower(criteria.Region)) {
			reasons = append(reasons, "Geographic fit: "+g.Country)
		}
	}
	if criteria.NonDilutiveOnly {
		reasons = append(reasons, "Non-dilutive funding")
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

func deadlineUrgency(deadline string) grant.DeadlineUrgency {
	if deadline == "" || deadline == "Rolling deadline" {
		return grant.UrgencyOngoing
	}
	lower := strings.ToLower(deadline)
	switch {
	case containsAny(lower, "soon", "days", "week"):
		return grant.UrgencyUrgent
	case containsAny(lower, "month"):
		return grant.UrgencyModerate
	default:
		return grant.UrgencyFlexible
	}
}

func fundingCategory(source string) grant.FundingCategory {
	lower := strings.ToLower(source)
	switch {
	case lower == "":
		return grant.CategoryOther
	case containsAny(lower, "government", "federal", "state", "national"):
		return grant.CategoryGovernment
	case containsAny(lower, "university", "academic", "research"):
		return grant.CategoryAcademic
	case containsAny(lower, "corporate", "company", "inc"):
		return grant.CategoryCorporate
	case containsAny(lower, "foundation", "non-profit", "ngo"):
		return grant.CategoryFoundation
	default:
		return grant.CategoryOther
	}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func defaultIfEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
