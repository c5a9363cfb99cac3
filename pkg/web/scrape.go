package web

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// BodyTextKey is the content key used when no selectors are given.
const BodyTextKey = "text"

// ScrapeOptions configures Scrape.
type ScrapeOptions struct {
	// Selectors are CSS selectors whose matches are extracted. With none,
	// the whole body text is returned under BodyTextKey.
	Selectors []string `json:"selectors,omitempty"`

	ExtractLinks bool `json:"extractLinks,omitempty"`
}

// Link is an anchor found on a scraped page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Page is the extracted content of a scraped page.
type Page struct {
	Title string `json:"title"`

	// Content maps each selector to the trimmed text of its matches, in
	// document order.
	Content map[string][]string `json:"content"`

	Links []Link `json:"links,omitempty"`
}

// ScrapeResult is the envelope returned by Scrape.
type ScrapeResult struct {
	Success  bool            `json:"success"`
	Data     *Page           `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Metadata RequestMetadata `json:"metadata"`
}

// Scrape fetches an HTML page and extracts its title, selected content, and
// optionally its links.
func (c *Client) Scrape(ctx context.Context, rawURL string, opts ScrapeOptions) ScrapeResult {
	f, err := c.fetch(ctx, rawURL, RequestOptions{})
	if err == nil && (f.status < 200 || f.status >= 300) {
		err = fmt.Errorf("request failed with status code %d", f.status)
	}
	if err != nil {
		return ScrapeResult{Success: false, Error: err.Error(), Metadata: f.meta}
	}

	page, err := parsePage(f.body, opts)
	if err != nil {
		return ScrapeResult{Success: false, Error: err.Error(), Metadata: f.meta}
	}

	return ScrapeResult{Success: true, Data: page, Metadata: f.meta}
}

func parsePage(body []byte, opts ScrapeOptions) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	page := &Page{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: make(map[string][]string),
	}

	selectors := nonEmpty(opts.Selectors)
	if len(selectors) == 0 {
		page.Content[BodyTextKey] = []string{collapseSpace(doc.Find("body").Text())}
	}
	for _, sel := range selectors {
		matches, err := selectText(doc, sel)
		if err != nil {
			return nil, err
		}
		page.Content[sel] = matches
	}

	if opts.ExtractLinks {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if href = strings.TrimSpace(href); href == "" {
				return
			}
			page.Links = append(page.Links, Link{
				Text: collapseSpace(s.Text()),
				URL:  href,
			})
		})
	}

	return page, nil
}

// selectText returns the trimmed text of every match. goquery treats an
// invalid selector as matching nothing, so selectors are compiled first.
func selectText(doc *goquery.Document, sel string) ([]string, error) {
	if _, err := cascadia.Compile(sel); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
	}

	out := []string{}
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
