// Package extract mines structured grant records out of page snapshots.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

const maxItemsPerSelector = 15

// listingSelectors are tried in order against a page. Class-based heuristics
// first, generic structural tags last so they only add what the specific
// selectors missed.
var listingSelectors = []string{
	".grant-item", ".funding-opportunity", ".opportunity",
	".grant-listing", ".fund-item", `[class*="grant"]`,
	".search-result", ".opportunity-item", ".result-item",
	"article", "li.result",
}

var titleSelectors = []string{"h1", "h2", ".title", ".grant-title", ".opportunity-title", ".page-title"}

var descriptionSelectors = []string{".description", ".summary", ".overview", ".about", ".content", ".article-body"}

// singlePageIndicators classify a page as one grant's detail page when at
// least two of them appear in its text.
var singlePageIndicators = []string{
	"deadline", "eligibility", "application", "funding amount", "apply now", "who can apply",
}

var spaceRun = regexp.MustCompile(`\s+`)

// Extractor turns snapshots into raw grant records.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor builds an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract runs the listing and single-page strategies against the snapshot
// and concatenates their results. Records without a title are never emitted.
// A snapshot that parses to nothing yields an empty slice, not an error.
func (e *Extractor) Extract(snap grant.PageSnapshot) []grant.RawGrantRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.RawHTML))
	if err != nil {
		e.logger.Debug("snapshot unparseable", zap.String("url", snap.URL), zap.Error(err))
		return nil
	}

	records := e.fromListings(doc, snap.URL)
	records = append(records, e.fromSinglePage(doc, snap.URL)...)

	if len(records) > 0 {
		e.logger.Debug("records extracted",
			zap.String("url", snap.URL),
			zap.Int("count", len(records)),
		)
	}
	return records
}

// fromListings applies the selector cascade and derives one record per
// matched element from its nested heading, first anchor, and text.
func (e *Extractor) fromListings(doc *goquery.Document, pageURL string) []grant.RawGrantRecord {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var records []grant.RawGrantRecord
	for _, selector := range listingSelectors {
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if i >= maxItemsPerSelector {
				return false
			}
			if rec, ok := recordFromElement(sel, base, pageURL); ok {
				records = append(records, rec)
			}
			return true
		})
	}
	return records
}

func recordFromElement(sel *goquery.Selection, base *url.URL, pageURL string) (grant.RawGrantRecord, bool) {
	title := collapse(sel.Find("h1, h2, h3, h4").First().Text())
	if title == "" {
		title = collapse(sel.Find(".title, .name, .result-title, .opportunity-title").First().Text())
	}
	if title == "" {
		return grant.RawGrantRecord{}, false
	}

	link := pageURL
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok && base != nil {
		if resolved, err := base.Parse(href); err == nil {
			link = resolved.String()
		}
	}

	text := collapse(sel.Text())
	return grant.RawGrantRecord{
		Title:        title,
		Amount:       Amount(text),
		Deadline:     Deadline(text),
		Country:      Country(text, hostOf(pageURL)),
		Sector:       Sector(text),
		Eligibility:  Eligibility(text),
		Description:  truncate(text, maxDescriptionLen),
		ApplyLink:    link,
		SourceDomain: hostOf(pageURL),
	}, true
}

// fromSinglePage mines the whole page when it reads like one grant's detail
// page, using the page URL itself as the application link.
func (e *Extractor) fromSinglePage(doc *goquery.Document, pageURL string) []grant.RawGrantRecord {
	rawText := doc.Find("body").Text()
	if !isSingleGrantPage(rawText) {
		return nil
	}

	title := ""
	for _, selector := range titleSelectors {
		if title = collapse(doc.Find(selector).First().Text()); title != "" {
			break
		}
	}
	if title == "" {
		return nil
	}

	flat := collapse(rawText)
	return []grant.RawGrantRecord{{
		Title:        title,
		Amount:       Amount(flat),
		Deadline:     Deadline(flat),
		Country:      Country(flat, hostOf(pageURL)),
		Sector:       Sector(flat),
		Eligibility:  Eligibility(rawText),
		Description:  pageDescription(doc),
		ApplyLink:    pageURL,
		SourceDomain: hostOf(pageURL),
	}}
}

func isSingleGrantPage(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, ind := range singlePageIndicators {
		if strings.Contains(lower, ind) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

func pageDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		if t := collapse(doc.Find(selector).First().Text()); t != "" {
			return truncate(t, maxDescriptionLen)
		}
	}
	if t := collapse(doc.Find("p").First().Text()); t != "" {
		return truncate(t, maxDescriptionLen)
	}
	return ""
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
