// Package parse turns raw HTML into normalized page snapshots.
package parse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/grantscout/grantscout/internal/grant"
)

const (
	maxLinks    = 50
	maxLinkText = 100
	maxForms    = 5
)

// Snapshot builds a PageSnapshot from raw HTML. Malformed markup degrades to
// whatever structure goquery can recover; the call itself never fails.
func Snapshot(pageURL string, statusCode int, rawHTML []byte) grant.PageSnapshot {
	snap := grant.PageSnapshot{
		URL:        pageURL,
		StatusCode: statusCode,
		RawHTML:    string(rawHTML),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return snap
	}

	snap.Title = strings.TrimSpace(doc.Find("title").First().Text())
	snap.Text = collapseWhitespace(doc.Find("body").Text())
	if snap.Text == "" {
		snap.Text = collapseWhitespace(doc.Text())
	}
	snap.Links = extractLinks(doc, pageURL)
	snap.Forms = extractForms(doc)
	return snap
}

func extractLinks(doc *goquery.Document, pageURL string) []grant.Link {
	base, baseErr := url.Parse(pageURL)

	var links []grant.Link
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(links) >= maxLinks {
			return false
		}
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		resolved := href
		if baseErr == nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		text := collapseWhitespace(sel.Text())
		if len(text) > maxLinkText {
			if runes := []rune(text); len(runes) > maxLinkText {
				text = string(runes[:maxLinkText])
			}
		}
		links = append(links, grant.Link{Text: text, URL: resolved})
		return true
	})
	return links
}

func extractForms(doc *goquery.Document) []grant.Form {
	var forms []grant.Form
	doc.Find("form").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(forms) >= maxForms {
			return false
		}
		method, _ := sel.Attr("method")
		if method == "" {
			method = "GET"
		}
		action, _ := sel.Attr("action")
		form := grant.Form{
			Method: strings.ToUpper(method),
			Action: action,
		}
		sel.Find("input, select, textarea").Each(func(_ int, in *goquery.Selection) {
			name, _ := in.Attr("name")
			typ, _ := in.Attr("type")
			value, _ := in.Attr("value")
			form.Inputs = append(form.Inputs, grant.FormInput{
				Name:  name,
				Type:  typ,
				Value: value,
			})
		})
		forms = append(forms, form)
		return true
	})
	return forms
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
