package extract

import (
	"regexp"
	"strings"
)

const (
	maxEligibilityLen = 200
	maxDescriptionLen = 300
)

// fieldRule is one entry in an ordered first-match-wins cascade. When the
// pattern has a capture group, the group wins over the whole match.
type fieldRule struct {
	name    string
	pattern *regexp.Regexp
}

func (r fieldRule) apply(text string) (string, bool) {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

func applyRules(rules []fieldRule, text string) string {
	for _, r := range rules {
		if v, ok := r.apply(text); ok {
			return v
		}
	}
	return ""
}

var amountRules = []fieldRule{
	{"dollar", regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?(?:\s*(?:million|M|thousand|K))?`)},
	{"euro", regexp.MustCompile(`(?i)€[\d,]+(?:\.\d{2})?(?:\s*(?:million|M|thousand|K))?`)},
	{"pound", regexp.MustCompile(`(?i)£[\d,]+(?:\.\d{2})?(?:\s*(?:million|M|thousand|K))?`)},
	{"iso-prefixed", regexp.MustCompile(`(?i)(?:USD|EUR|GBP|NOK)\s*[\d,]+(?:\.\d{2})?`)},
	{"iso-suffixed", regexp.MustCompile(`(?i)[\d,]+\s*(?:USD|EUR|GBP|NOK|dollars?|euros?)`)},
}

var deadlineRules = []fieldRule{
	{"labeled-date", regexp.MustCompile(`(?i)\b(?:deadline|due|closes?|expires?)[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
	{"date-then-label", regexp.MustCompile(`(?i)\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s*(?:deadline|due)`)},
	{"long-form", regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)},
	{"iso-date", regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)},
}

// Amount returns the first currency-looking figure in text.
func Amount(text string) string {
	return applyRules(amountRules, text)
}

// Deadline returns the first date associated with closing language in text.
func Deadline(text string) string {
	return applyRules(deadlineRules, text)
}

// Eligibility returns the first line mentioning eligibility plus its next
// two lines, capped at 200 characters.
func Eligibility(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "eligib") {
			continue
		}
		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		return truncate(strings.TrimSpace(strings.Join(lines[i:end], " ")), maxEligibilityLen)
	}
	return ""
}

// countryDomains maps domain fragments to a country, checked in order so the
// named-portal overrides win over bare TLD suffixes.
var countryDomains = []struct {
	hint    string
	country string
}{
	{"grants.gov", "United States"},
	{"sbir.gov", "United States"},
	{"innovasjonnorge", "Norway"},
	{"ec.europa.eu", "European Union"},
	{".no", "Norway"},
	{".uk", "United Kingdom"},
	{".ca", "Canada"},
	{".au", "Australia"},
	{".de", "Germany"},
	{".fr", "France"},
}

var countryNames = []string{
	"United States", "USA", "Norway", "European Union", "EU",
	"United Kingdom", "UK", "Canada", "India",
}

// Country resolves a country from the source domain first, then from country
// names mentioned in the text, defaulting to Global.
func Country(text, domain string) string {
	domain = strings.ToLower(domain)
	for _, d := range countryDomains {
		if strings.Contains(domain, d.hint) {
			return d.country
		}
	}
	lower := strings.ToLower(text)
	for _, name := range countryNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return "Global"
}

// sectorRules map keyword sets to a sector label, checked in order.
var sectorRules = []struct {
	sector   string
	keywords []string
}{
	{"Technology", []string{"tech", "software", "ai", "digital", "innovation", "data"}},
	{"Healthcare", []string{"health", "medical", "pharma", "biotech", "clinical"}},
	{"Energy", []string{"energy", "renewable", "clean tech", "sustainability", "green"}},
	{"Research", []string{"research", "science", "academic", "lab"}},
	{"Manufacturing", []string{"manufacturing", "industrial", "hardware"}},
	{"Agriculture", []string{"agriculture", "farming", "food", "agri"}},
	{"Education", []string{"education", "edtech", "learning"}},
	{"Fintech", []string{"fintech", "financial", "banking", "payments"}},
}

// Sector classifies text into a coarse sector label, defaulting to General.
func Sector(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range sectorRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.sector
			}
		}
	}
	return "General"
}

// truncate caps s at n characters, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
