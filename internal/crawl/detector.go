package crawl

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderDetector decides whether a fetched body is worth re-fetching through
// the headless renderer: tiny shells and client-side-framework markers both
// suggest the real content arrives via JavaScript.
type RenderDetector struct {
	minHTMLBytes int
	keywords     [][]byte
}

// NewRenderDetector builds a detector with the configured thresholds.
func NewRenderDetector(minBytes int, keywords []string) *RenderDetector {
	lowered := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(kw)))
	}
	return &RenderDetector{minHTMLBytes: minBytes, keywords: lowered}
}

// NeedsJS inspects the body for signals that a JS pass is required.
func (d *RenderDetector) NeedsJS(body []byte) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	if d.containsKeywords(body) {
		return true
	}
	return d.bodyIsEmptyShell(body)
}

func (d *RenderDetector) containsKeywords(body []byte) bool {
	if len(body) == 0 || len(d.keywords) == 0 {
		return false
	}
	lowered := bytes.ToLower(body)
	for _, kw := range d.keywords {
		if bytes.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// bodyIsEmptyShell reports whether the document parses but carries almost no
// visible text, the usual shape of an unrendered SPA.
func (d *RenderDetector) bodyIsEmptyShell(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	text := strings.TrimSpace(doc.Find("body").Text())
	return len(text) < 40 && doc.Find("script").Length() > 0
}
