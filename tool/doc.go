// Package tool provides the web access used by retrieval pipelines: search
// providers that turn a query into ranked hits, and a page fetcher that turns
// a URL into readable text.
//
// # Search Providers
//
// Three providers implement SearchProvider:
//
//	brave, _ := tool.NewBraveSearch(os.Getenv("BRAVE_API_KEY"))
//	tavily, _ := tool.NewTavilySearch(os.Getenv("TAVILY_API_KEY"))
//	ddg := tool.NewDuckDuckGoSearch()
//
//	results, err := ddg.Search(ctx, "golang generics")
//
// NewSearchProvider selects one by name ("brave", "tavily" or "duckduckgo").
//
// # Fetching Pages
//
//	fetcher := tool.NewWebFetcher(tool.WithFetchTimeout(10 * time.Second))
//	page, err := fetcher.Fetch(ctx, "https://go.dev/doc/")
//	fmt.Println(page.Title, len(page.Content))
//
// Scripts, styles and page chrome (nav, header, footer) are stripped before
// the text is extracted.
package tool
