package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGoSearch scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGoSearch struct {
	BaseURL    string
	MaxResults int
	UserAgent  string

	client *http.Client
}

type DuckDuckGoOption func(*DuckDuckGoSearch)

// WithDuckDuckGoBaseURL sets the HTML endpoint.
func WithDuckDuckGoBaseURL(baseURL string) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		d.BaseURL = baseURL
	}
}

// WithDuckDuckGoMaxResults caps the number of results.
func WithDuckDuckGoMaxResults(n int) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		if n > 0 {
			d.MaxResults = n
		}
	}
}

// WithDuckDuckGoHTTPClient sets the HTTP client.
func WithDuckDuckGoHTTPClient(client *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		d.client = client
	}
}

// NewDuckDuckGoSearch creates a DuckDuckGo provider.
func NewDuckDuckGoSearch(opts ...DuckDuckGoOption) *DuckDuckGoSearch {
	d := &DuckDuckGoSearch{
		BaseURL:    "https://html.duckduckgo.com/html/",
		MaxResults: 10,
		UserAgent:  defaultUserAgent,
		client:     defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the name of the provider.
func (d *DuckDuckGoSearch) Name() string {
	return "duckduckgo"
}

// Search executes the query and parses the result list. Ads are skipped.
func (d *DuckDuckGoSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	reqURL := fmt.Sprintf("%s?%s", d.BaseURL, url.Values{"q": {query}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	var results []SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoLink(href)
		if target == "" {
			return true
		}

		results = append(results, SearchResult{
			Title:       collapseWhitespace(link.Text()),
			URL:         target,
			Description: collapseWhitespace(s.Find(".result__snippet").First().Text()),
		})
		return len(results) < d.MaxResults
	})

	return results, nil
}

// resolveDuckDuckGoLink unwraps the /l/?uddg= redirect used on result links.
func resolveDuckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
