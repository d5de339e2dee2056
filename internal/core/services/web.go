package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/custodia-labs/overlap-core/internal/chunk"
	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ SourceFetcher = (*WebSearchFetcher)(nil)

// deniedDomains are skipped during web search: social and video
// platforms whose pages never yield comparable article text.
var deniedDomains = []string{
	"facebook.com",
	"twitter.com",
	"instagram.com",
	"tiktok.com",
	"reddit.com",
	"youtube.com",
	"pinterest.com",
}

// WebSearchConfig tunes the web fetcher
type WebSearchConfig struct {
	// QueryKeywords is how many extracted keywords form the query
	QueryKeywords int

	// ResultsPerProvider caps results requested from each provider
	ResultsPerProvider int

	// MaxPages caps pages fetched per check
	MaxPages int

	// MaxConcurrent bounds parallel page fetches
	MaxConcurrent int

	// MinSnippetLength filters thin search results
	MinSnippetLength int

	// ConsecutiveFailureLimit stops fetching after this many failures
	// in a row
	ConsecutiveFailureLimit int

	// MaxArticleWords truncates fetched pages before chunking
	MaxArticleWords int
}

// DefaultWebSearchConfig returns the standard limits
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		QueryKeywords:           5,
		ResultsPerProvider:      10,
		MaxPages:                20,
		MaxConcurrent:           4,
		MinSnippetLength:        50,
		ConsecutiveFailureLimit: 3,
		MaxArticleWords:         1500,
	}
}

// WebSearchFetcher discovers candidate pages through search providers,
// extracts their text and matches it against the submission.
type WebSearchFetcher struct {
	providers []driven.SearchProvider
	fetcher   driven.ArticleFetcher
	pageCache driven.PageCache
	embedder  driven.EmbeddingService
	chunker   *chunk.Chunker
	cfg       WebSearchConfig
	logger    *slog.Logger
}

// NewWebSearchFetcher creates a web search fetcher
func NewWebSearchFetcher(
	providers []driven.SearchProvider,
	fetcher driven.ArticleFetcher,
	pageCache driven.PageCache,
	embedder driven.EmbeddingService,
	chunker *chunk.Chunker,
	cfg WebSearchConfig,
	logger *slog.Logger,
) *WebSearchFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSearchFetcher{
		providers: providers,
		fetcher:   fetcher,
		pageCache: pageCache,
		embedder:  embedder,
		chunker:   chunker,
		cfg:       cfg,
		logger:    logger.With("component", "web_search_fetcher"),
	}
}

// Name identifies the fetcher
func (f *WebSearchFetcher) Name() string {
	return "web_search"
}

// Fetch runs search, page retrieval and chunk comparison
func (f *WebSearchFetcher) Fetch(ctx context.Context, sub Submission) ([]domain.RawMatch, error) {
	keywords := chunk.KeywordsWithTitle(sub.NormalizedText, sub.Title, 10)
	if len(keywords) == 0 {
		return nil, nil
	}
	n := f.cfg.QueryKeywords
	if n <= 0 || n > len(keywords) {
		n = len(keywords)
	}
	query := strings.Join(keywords[:n], " ")

	candidates := f.searchAll(ctx, query)
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > f.cfg.MaxPages {
		candidates = candidates[:f.cfg.MaxPages]
	}

	var matches []domain.RawMatch
	consecutiveFailures := 0

	// Fetch in bounded batches so the consecutive-failure stop still
	// sees results in candidate order.
	batch := f.cfg.MaxConcurrent
	if batch <= 0 {
		batch = 1
	}
	for start := 0; start < len(candidates); start += batch {
		if ctx.Err() != nil {
			break
		}
		end := start + batch
		if end > len(candidates) {
			end = len(candidates)
		}

		texts := make([]string, end-start)
		failed := make([]bool, end-start)
		var wg sync.WaitGroup
		for i, candidate := range candidates[start:end] {
			wg.Add(1)
			go func(slot int, c driven.SearchResult) {
				defer wg.Done()
				text, err := f.pageText(ctx, c.URL)
				if err != nil {
					failed[slot] = true
					f.logger.Debug("page fetch failed", "url", c.URL, "error", err)
					return
				}
				texts[slot] = text
			}(i, candidate)
		}
		wg.Wait()

		stop := false
		for i := range texts {
			if failed[i] {
				consecutiveFailures++
				if consecutiveFailures >= f.cfg.ConsecutiveFailureLimit {
					f.logger.Warn("stopping web fetch after consecutive failures",
						"check_id", sub.CheckID, "failures", consecutiveFailures)
					stop = true
					break
				}
				continue
			}
			consecutiveFailures = 0

			candidate := candidates[start+i]
			pageMatches, err := f.matchPage(ctx, sub, candidate, texts[i])
			if err != nil {
				f.logger.Warn("page comparison failed", "url", candidate.URL, "error", err)
				continue
			}
			matches = append(matches, pageMatches...)
		}
		if stop {
			break
		}
	}

	f.logger.Debug("web search complete",
		"check_id", sub.CheckID, "query", query, "pages", len(candidates), "matches", len(matches))
	return matches, nil
}

// searchAll queries every provider in parallel and merges the results:
// deduplicated by URL, denylisted domains and thin snippets dropped.
func (f *WebSearchFetcher) searchAll(ctx context.Context, query string) []driven.SearchResult {
	var mu sync.Mutex
	var all []driven.SearchResult
	var wg sync.WaitGroup

	for _, provider := range f.providers {
		wg.Add(1)
		go func(p driven.SearchProvider) {
			defer wg.Done()
			results, err := p.Search(ctx, query, f.cfg.ResultsPerProvider)
			if err != nil {
				f.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
				return
			}
			mu.Lock()
			all = append(all, results...)
			mu.Unlock()
		}(provider)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var filtered []driven.SearchResult
	for _, r := range all {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		if isDeniedDomain(r.URL) {
			continue
		}
		if len(r.Snippet) < f.cfg.MinSnippetLength {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// pageText returns extracted page text, going through the cache
func (f *WebSearchFetcher) pageText(ctx context.Context, pageURL string) (string, error) {
	if text, err := f.pageCache.Get(ctx, pageURL); err == nil {
		return text, nil
	}

	text, err := f.fetcher.FetchContent(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if err := f.pageCache.Set(ctx, pageURL, text); err != nil {
		f.logger.Debug("page cache write failed", "url", pageURL, "error", err)
	}
	return text, nil
}

// matchPage chunks and embeds one page, then compares every page chunk
// against every submission chunk.
func (f *WebSearchFetcher) matchPage(ctx context.Context, sub Submission, candidate driven.SearchResult, text string) ([]domain.RawMatch, error) {
	words := strings.Fields(text)
	if f.cfg.MaxArticleWords > 0 && len(words) > f.cfg.MaxArticleWords {
		text = strings.Join(words[:f.cfg.MaxArticleWords], " ")
	}

	pageChunks := f.chunker.Chunk(text)
	if len(pageChunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(pageChunks))
	for i, c := range pageChunks {
		texts[i] = c.Text
	}
	embeddings, err := f.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	var matches []domain.RawMatch
	for i, subEmbedding := range sub.Embeddings {
		scores := domain.BatchSimilarity(subEmbedding, embeddings)
		for j, score := range scores {
			if score < sub.Threshold {
				continue
			}
			matches = append(matches, domain.RawMatch{
				SourceID:      candidate.URL,
				SourceType:    domain.SourceTypeWeb,
				Title:         candidate.Title,
				URL:           candidate.URL,
				Score:         score,
				SubmittedText: sub.Chunks[i].Text,
				MatchedText:   pageChunks[j].Text,
				MergedCount:   1,
			})
		}
	}
	return matches, nil
}

func isDeniedDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, denied := range deniedDomains {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return true
		}
	}
	return false
}
