package driven

import "context"

// SearchResult is one web search hit
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchProvider queries a web search engine
type SearchProvider interface {
	// Name identifies the provider in logs
	Name() string

	// Search returns up to limit results for the query
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// ArticleFetcher downloads a page and extracts its readable text
type ArticleFetcher interface {
	// FetchContent returns the main article text of the page, or
	// domain.ErrServiceUnavailable / extraction errors on failure.
	FetchContent(ctx context.Context, url string) (string, error)
}
