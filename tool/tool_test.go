package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
	<title> Test   Page </title>
	<script>console.log('test');</script>
	<style>body { color: blue; }</style>
</head>
<body>
	<nav>Home | About</nav>
	<h1>Test Content</h1>
	<p>This is a   test paragraph.</p>
	<script>alert('test');</script>
	<footer>Copyright</footer>
</body>
</html>`))
	}))
	defer server.Close()

	page, err := NewWebFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Test Page", page.Title)
	assert.Equal(t, "Test Content This is a test paragraph.", page.Content)
	assert.Equal(t, server.URL, page.URL)

	result, err := WebFetch(server.URL)
	require.NoError(t, err)
	assert.NotContains(t, result, "console.log")
	assert.NotContains(t, result, "color: blue")
	assert.NotContains(t, result, "Copyright")

	errorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer errorServer.Close()

	_, err = WebFetch(errorServer.URL)
	assert.ErrorContains(t, err, "status code 404")

	emptyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><script>x()</script></body></html>"))
	}))
	defer emptyServer.Close()

	_, err = WebFetch(emptyServer.URL)
	assert.ErrorIs(t, err, ErrNoContent)
	assert.ErrorContains(t, err, "no text content found")
}

func TestWebFetch_PlainTextAndLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("hello\n\nworld " + strings.Repeat("x", 100)))
	}))
	defer server.Close()

	page, err := NewWebFetcher(WithMaxPageBytes(12)).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello world", page.Content)
}

func TestWebFetch_UnsupportedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 binary"))
	}))
	defer server.Close()

	_, err := NewWebFetcher().Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrUnsupportedContent)
	assert.ErrorContains(t, err, "application/pdf")

	xhtml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xhtml+xml; charset=utf-8")
		w.Write([]byte("<html><body><p>strict markup</p></body></html>"))
	}))
	defer xhtml.Close()

	page, err := NewWebFetcher().Fetch(context.Background(), xhtml.URL)
	require.NoError(t, err)
	assert.Equal(t, "strict markup", page.Content)
}

func TestWithFetchTimeout_CopiesClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	f := NewWebFetcher(WithFetchHTTPClient(shared), WithFetchTimeout(time.Second))

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, time.Second, f.client.Timeout)
	assert.NotSame(t, shared, f.client)
}

func TestWebFetchInvalidURL(t *testing.T) {
	_, err := WebFetch("invalid-url")
	require.Error(t, err)
	assert.True(t,
		strings.Contains(err.Error(), "failed to create request") ||
			strings.Contains(err.Error(), "failed to fetch URL"),
		"unexpected error: %v", err)
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"The <strong>Go</strong> Programming Language","url":"https://go.dev","description":"Go is <strong>fast</strong> &amp; simple"},
			{"title":"no url","url":""}
		]}}`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("test-key", WithBraveBaseURL(server.URL), WithBraveCount(3))
	require.NoError(t, err)
	assert.Equal(t, "brave", b.Name())

	results, err := b.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "Go is fast & simple", results[0].Description)
	assert.Equal(t, "Go is fast & simple", results[0].Snippet())
}

func TestBraveSearch_Errors(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	_, err := NewBraveSearch("")
	assert.ErrorContains(t, err, "BRAVE_API_KEY not set")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b, err := NewBraveSearch("k", WithBraveBaseURL(server.URL))
	require.NoError(t, err)
	_, err = b.Search(context.Background(), "q")
	assert.ErrorContains(t, err, "429")

	clamped := &BraveSearch{}
	WithBraveCount(50)(clamped)
	assert.Equal(t, 20, clamped.Count)
	WithBraveCount(-1)(clamped)
	assert.Equal(t, 1, clamped.Count)
}

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tv-key", req.APIKey)
		assert.Equal(t, "rag", req.Query)
		assert.Equal(t, 2, req.MaxResults)

		w.Write([]byte(`{"results":[
			{"title":"RAG","url":"https://example.com/rag","content":"Retrieval augmented generation","score":0.93}
		]}`))
	}))
	defer server.Close()

	tv, err := NewTavilySearch("tv-key", WithTavilyBaseURL(server.URL), WithTavilyMaxResults(2))
	require.NoError(t, err)

	results, err := tv.Search(context.Background(), "rag")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Retrieval augmented generation", results[0].Snippet())
	assert.InDelta(t, 0.93, results[0].Score, 1e-9)
}

func TestDuckDuckGoSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go channels", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example.com">Ad</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Ftour%2Fconcurrency%2F2&amp;rut=abc">A Tour of   Go</a></h2>
  <a class="result__snippet">Channels are a typed conduit.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://gobyexample.com/channels">Go by Example</a>
  <div class="result__snippet">Channels are the pipes.</div>
</div>
<div class="result results_links">
  <a class="result__a" href="https://third.example.com">Third</a>
</div>
</body></html>`))
	}))
	defer server.Close()

	d := NewDuckDuckGoSearch(WithDuckDuckGoBaseURL(server.URL), WithDuckDuckGoMaxResults(2))
	results, err := d.Search(context.Background(), "go channels")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A Tour of Go", results[0].Title)
	assert.Equal(t, "https://go.dev/tour/concurrency/2", results[0].URL)
	assert.Equal(t, "Channels are a typed conduit.", results[0].Description)
	assert.Equal(t, "https://gobyexample.com/channels", results[1].URL)
}

func TestNewSearchProvider(t *testing.T) {
	p, err := NewSearchProvider("duckduckgo", "", ProviderOptions{MaxResults: 3})
	require.NoError(t, err)
	assert.Equal(t, "duckduckgo", p.Name())

	p, err = NewSearchProvider("Brave", "k", ProviderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "brave", p.Name())

	p, err = NewSearchProvider("tavily", "k", ProviderOptions{HTTPClient: http.DefaultClient})
	require.NoError(t, err)
	assert.Equal(t, "tavily", p.Name())

	_, err = NewSearchProvider("bing", "", ProviderOptions{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
