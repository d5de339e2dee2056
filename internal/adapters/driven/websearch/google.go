// Package websearch provides SearchProvider adapters for external web
// search APIs.
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
var _ driven.SearchProvider = (*GoogleProvider)(nil)

// GoogleProvider implements SearchProvider using the Google Custom
// Search JSON API.
type GoogleProvider struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

// NewGoogleProvider creates a Google Custom Search provider
func NewGoogleProvider(apiKey, engineID, baseURL string) (*GoogleProvider, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("google search API key and engine ID are required")
	}
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/customsearch/v1"
	}
	return &GoogleProvider{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Name identifies the provider in logs
func (p *GoogleProvider) Name() string {
	return "google"
}

type googleSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Search returns up to limit results for the query
func (p *GoogleProvider) Search(ctx context.Context, query string, limit int) ([]driven.SearchResult, error) {
	if limit <= 0 || limit > 10 {
		limit = 10 // API maximum per request
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: google search: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp googleSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if searchResp.Error != nil {
		return nil, fmt.Errorf("google search API error %d: %s", searchResp.Error.Code, searchResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search returned status %d", resp.StatusCode)
	}

	results := make([]driven.SearchResult, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		results = append(results, driven.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
