// Package webfetch downloads web pages and extracts their readable
// article text.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ArticleFetcher = (*Fetcher)(nil)

const (
	maxBodyBytes   = 2 << 20 // 2 MiB is plenty for article pages
	minContentLen  = 100
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; overlap-core/1.0)"
)

// Fetcher downloads pages under a shared rate limit and extracts the
// main article text from the HTML.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates a fetcher limited to requestsPerSecond across all
// callers.
func NewFetcher(requestsPerSecond float64, timeout time.Duration) *Fetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// FetchContent downloads the page and returns its main article text
func (f *Fetcher) FetchContent(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	text := ExtractArticleText(doc)
	if len(text) < minContentLen {
		return "", fmt.Errorf("%w: no article content at %s", domain.ErrNotFound, url)
	}
	return text, nil
}

// ExtractArticleText pulls the readable article text out of a parsed
// page. It prefers paragraphs inside an <article> element or a
// container whose class or id names article content, and falls back to
// every paragraph on the page.
func ExtractArticleText(doc *html.Node) string {
	if container := findArticleContainer(doc); container != nil {
		if text := joinParagraphs(container); len(text) >= minContentLen {
			return text
		}
	}
	return joinParagraphs(doc)
}

func findArticleContainer(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		if n.Data == "article" {
			return n
		}
		if n.Data == "div" || n.Data == "section" || n.Data == "main" {
			marker := attrValue(n, "class") + " " + attrValue(n, "id")
			marker = strings.ToLower(marker)
			for _, hint := range []string{"article", "content", "post", "story"} {
				if strings.Contains(marker, hint) {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findArticleContainer(c); found != nil {
			return found
		}
	}
	return nil
}

func joinParagraphs(n *html.Node) string {
	var paragraphs []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "nav", "header", "footer", "aside":
				return
			case "p":
				if text := strings.TrimSpace(nodeText(node)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(paragraphs, "\n\n")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
