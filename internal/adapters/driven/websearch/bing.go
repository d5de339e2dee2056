package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchProvider = (*BingProvider)(nil)

// BingProvider implements SearchProvider using the Bing Web Search v7 API
type BingProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewBingProvider creates a Bing web search provider
func NewBingProvider(apiKey, baseURL string) (*BingProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("bing search API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.bing.microsoft.com/v7.0/search"
	}
	return &BingProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Name identifies the provider in logs
func (p *BingProvider) Name() string {
	return "bing"
}

type bingSearchResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Search returns up to limit results for the query
func (p *BingProvider) Search(ctx context.Context, query string, limit int) ([]driven.SearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit))
	params.Set("responseFilter", "Webpages")

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: bing search: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp bingSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if searchResp.Error != nil {
		return nil, fmt.Errorf("bing search API error %s: %s", searchResp.Error.Code, searchResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing search returned status %d", resp.StatusCode)
	}

	results := make([]driven.SearchResult, 0, len(searchResp.WebPages.Value))
	for _, item := range searchResp.WebPages.Value {
		results = append(results, driven.SearchResult{
			Title:   item.Name,
			URL:     item.URL,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
