package grant

import (
	"fmt"
	"strings"
)

// Query renders the criteria as one search phrase. Chat-mode callers pass the
// (possibly extractor-refined) free text through instead.
func (c SearchCriteria) Query() string {
	if c.FreeTextQuery != "" {
		return c.FreeTextQuery
	}

	parts := []string{}
	if c.Industry != "" {
		parts = append(parts, fmt.Sprintf("for %s industry", c.Industry))
	}
	switch {
	case c.Region == "":
	case strings.EqualFold(c.Region, "global"):
		parts = append(parts, "with global eligibility")
	default:
		parts = append(parts, fmt.Sprintf("available in %s", c.Region))
	}
	if c.Stage != "" {
		parts = append(parts, fmt.Sprintf("suitable for %s stage startups", c.Stage))
	}
	if c.NonDilutiveOnly {
		parts = append(parts, "non-dilutive funding (no equity required)")
	}
	if c.FounderType != "" {
		parts = append(parts, fmt.Sprintf("for %s founders", c.FounderType))
	}

	query := "Find startup grants " + strings.Join(parts, " ")
	if c.Description != "" {
		query += ". Additional context: " + c.Description
	}
	return query
}

// Summary renders the criteria for the scoring collaborator.
func (c SearchCriteria) Summary() string {
	parts := []string{}
	if c.Industry != "" {
		parts = append(parts, "Industry: "+c.Industry)
	}
	if c.Region != "" {
		parts = append(parts, "Region: "+c.Region)
	}
	if c.Stage != "" {
		parts = append(parts, "Stage: "+c.Stage)
	}
	if c.NonDilutiveOnly {
		parts = append(parts, "Non-dilutive funding preferred")
	}
	if c.FounderType != "" {
		parts = append(parts, "Founder type: "+c.FounderType)
	}
	if len(parts) == 0 {
		return "General startup grants"
	}
	return strings.Join(parts, "; ")
}

var keywordStopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "for": {},
	"with": {}, "to": {}, "in": {}, "on": {}, "at": {}, "by": {},
}

// Keywords derives crawl keywords from the criteria query: significant query
// words plus a few grant-domain staples, capped at ten.
func (c SearchCriteria) Keywords() []string {
	keywords := []string{}
	for _, word := range strings.Fields(strings.ToLower(c.Query())) {
		word = strings.Trim(word, ".,;:!?'\"()")
		if len(word) <= 2 {
			continue
		}
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	keywords = append(keywords, "startup", "innovation", "funding", "grant")
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}
