// Package fetcher performs a single HTTP GET per page and extracts the
// site-relative outbound links from the response body.
package fetcher

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dkoval/sitesearch/internal/apperr"
)

const timeout = 10 * time.Second

// Fetcher performs GETs with a fixed identity: no robots.txt gate and
// no browser-rendering fallback, since crawling here never needs to
// execute page JavaScript.
type Fetcher struct {
	client    *http.Client
	userAgent string
	referrer  string
}

func New(userAgent, referrer string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		referrer:  referrer,
	}
}

// Result is one fetch outcome.
type Result struct {
	HTTPCode int
	HTML     string
	Links    []string // distinct href values starting with "/" but not "//"
}

// Fetch performs a GET at fullURL and extracts outbound site-relative
// links from the response body.
func (f *Fetcher) Fetch(ctx context.Context, fullURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, apperr.NewFetchError(fullURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.referrer != "" {
		req.Header.Set("Referer", f.referrer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.NewFetchError(fullURL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperr.NewFetchError(fullURL, err)
	}

	html, err := doc.Html()
	if err != nil {
		return nil, apperr.NewFetchError(fullURL, err)
	}

	return &Result{
		HTTPCode: resp.StatusCode,
		HTML:     html,
		Links:    extractSiteRelativeLinks(doc),
	}, nil
}

// extractSiteRelativeLinks collects the distinct href values that
// start with "/" but not "//" (protocol-relative links are not
// followed).
func extractSiteRelativeLinks(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links
}

// ExtractText returns the plain-text body content of html, for the
// Analyzer and Search snippet construction.
func ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	text := doc.Find("body").Text()
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// ExtractTitle returns the page's <title> text, for Search results.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
