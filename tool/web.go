package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoContent is returned when a page has no readable text.
	ErrNoContent = errors.New("no text content found")
	// ErrUnsupportedContent is returned for responses that are neither HTML nor plain text.
	ErrUnsupportedContent = errors.New("unsupported content type")
)

const defaultMaxPageBytes = 5 << 20

// Page is the readable text of a fetched URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// WebFetcher downloads pages and extracts their text.
type WebFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

type WebFetcherOption func(*WebFetcher)

// WithFetchTimeout sets the per-request timeout. The client is copied, so a
// client passed to WithFetchHTTPClient is left untouched.
func WithFetchTimeout(d time.Duration) WebFetcherOption {
	return func(f *WebFetcher) {
		client := *f.client
		client.Timeout = d
		f.client = &client
	}
}

// WithFetchHTTPClient replaces the HTTP client.
func WithFetchHTTPClient(client *http.Client) WebFetcherOption {
	return func(f *WebFetcher) {
		f.client = client
	}
}

// WithMaxPageBytes limits how much of a response body is read.
func WithMaxPageBytes(n int64) WebFetcherOption {
	return func(f *WebFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewWebFetcher creates a WebFetcher with a 30s timeout.
func NewWebFetcher(opts ...WebFetcherOption) *WebFetcher {
	f := &WebFetcher{
		client:    defaultHTTPClient(),
		maxBytes:  defaultMaxPageBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and returns its title and visible text.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	kind, err := contentKind(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	body := io.LimitReader(resp.Body, f.maxBytes)
	if kind == "text/plain" {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		text := collapseWhitespace(string(data))
		if text == "" {
			return nil, ErrNoContent
		}
		return &Page{URL: rawURL, Content: text}, nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := collapseWhitespace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, footer, header, iframe, svg").Remove()

	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		return nil, ErrNoContent
	}
	return &Page{URL: rawURL, Title: title, Content: text}, nil
}

// WebFetch fetches rawURL with a default fetcher and returns its text.
func WebFetch(rawURL string) (string, error) {
	page, err := NewWebFetcher().Fetch(context.Background(), rawURL)
	if err != nil {
		return "", err
	}
	return page.Content, nil
}

// contentKind returns the media type of a readable response. A missing
// header is treated as HTML.
func contentKind(header string) (string, error) {
	if header == "" {
		return "text/html", nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContent, header)
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return mediaType, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType)
}

// collapseWhitespace joins all runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
