// Package enrich validates, deduplicates, scores and ranks raw grant records.
package enrich

import (
	"strings"

	"github.com/grantscout/grantscout/internal/grant"
)

// Dedupe removes records sharing a title and source, case-insensitively,
// keeping the first occurrence so earlier portals win. Running it over an
// already-deduplicated slice changes nothing.
func Dedupe(records []grant.RawGrantRecord) []grant.RawGrantRecord {
	seen := make(map[string]struct{}, len(records))
	unique := make([]grant.RawGrantRecord, 0, len(records))
	for _, rec := range records {
		key := strings.ToLower(rec.Title) + "_" + strings.ToLower(rec.SourceDomain)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}
	return unique
}
