package portal

import (
	"strings"

	"github.com/grantscout/grantscout/internal/grant"
)

const defaultMaxSelected = 5

// regionVocab maps a region bucket to the phrases that imply it.
var regionVocab = []struct {
	bucket   string
	patterns []string
}{
	{"us", []string{"united states", "usa", "america", "us"}},
	{"europe", []string{"europe", "eu", "european"}},
	{"india", []string{"india", "indian"}},
	{"canada", []string{"canada", "canadian"}},
	{"uk", []string{"uk", "united kingdom", "britain"}},
}

// typeVocab maps a grant-type bucket to the phrases that imply it.
var typeVocab = []struct {
	bucket   string
	patterns []string
}{
	{"government", []string{"government", "federal", "state"}},
	{"research", []string{"research", "r&d"}},
	{"startup", []string{"startup", "small business"}},
}

// sectorVocab maps sector phrases in the query to the catalog tag they
// imply. Sectors without a corresponding tag simply add no signal.
var sectorVocab = []struct {
	bucket   string
	patterns []string
}{
	{"innovation", []string{"ai/ml", "artificial intelligence", "machine learning", "technology", "software"}},
	{"sustainability", []string{"climate", "clean energy", "sustainability", "environment", "environmental"}},
	{"healthcare", []string{"healthcare", "health", "medical", "biotech"}},
	{"fintech", []string{"fintech", "financial technology", "payments"}},
}

// Selector ranks the static catalog against search criteria.
type Selector struct {
	catalog []grant.Portal
	max     int
}

// NewSelector builds a Selector over the given catalog. max caps the
// number of portals returned per run; values <= 0 fall back to five.
func NewSelector(catalog []grant.Portal, max int) *Selector {
	if max <= 0 {
		max = defaultMaxSelected
	}
	return &Selector{catalog: catalog, max: max}
}

// Select returns the portals worth crawling for the criteria.
// A portal qualifies when its region or type tags intersect the signals
// extracted from the query text. When nothing matches, the head of the
// catalog serves as a generic fallback. Pure and deterministic.
func (s *Selector) Select(criteria grant.SearchCriteria) []grant.Portal {
	query := strings.ToLower(criteria.Query())
	tokens := tokenize(query)
	regions := matchBuckets(query, tokens, regionVocab)
	types := matchBuckets(query, tokens, typeVocab)
	types = append(types, matchBuckets(query, tokens, sectorVocab)...)

	var selected []grant.Portal
	for _, p := range s.catalog {
		if portalMatches(p, regions, types) {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		selected = s.catalog
	}
	if len(selected) > s.max {
		selected = selected[:s.max]
	}
	return selected
}

// tokenize splits the lowercased query into words, trimming surrounding
// punctuation so "US," and "(EU)" still register.
func tokenize(query string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, ".,;:!?'\"()")
		if word != "" {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// matchBuckets matches single-word patterns against whole query tokens and
// multi-word patterns as substrings. Short patterns like "us" or "eu" must
// stand alone as words so "business" or "museum" add no signal.
func matchBuckets(query string, tokens map[string]struct{}, vocab []struct {
	bucket   string
	patterns []string
}) []string {
	var out []string
	for _, entry := range vocab {
		for _, p := range entry.patterns {
			matched := false
			if strings.ContainsRune(p, ' ') {
				matched = strings.Contains(query, p)
			} else {
				_, matched = tokens[p]
			}
			if matched {
				out = append(out, entry.bucket)
				break
			}
		}
	}
	return out
}

func portalMatches(p grant.Portal, regions, types []string) bool {
	if len(regions) == 0 && len(types) == 0 {
		return false
	}
	for _, r := range regions {
		for _, tag := range p.RegionTags {
			if strings.EqualFold(tag, r) {
				return true
			}
		}
	}
	for _, t := range types {
		for _, tag := range p.TypeTags {
			if strings.EqualFold(tag, t) {
				return true
			}
		}
	}
	return false
}
