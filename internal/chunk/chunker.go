// Package chunk splits normalized article text into overlapping
// word-window chunks and extracts search keywords from free text.
package chunk

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

const (
	DefaultMinWords     = 40
	DefaultMaxWords     = 60
	DefaultOverlapWords = 10
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`\s*([.,!?;:])\s*`)
)

// Normalize lowercases text, collapses whitespace and standardizes
// punctuation spacing so that equivalent passages chunk identically.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = punctuationRe.ReplaceAllString(text, "$1 ")
	return strings.TrimSpace(text)
}

// Chunker splits text into overlapping word windows
type Chunker struct {
	MinWords     int
	MaxWords     int
	OverlapWords int
}

// NewChunker creates a chunker with the given window parameters,
// falling back to defaults for non-positive values.
func NewChunker(minWords, maxWords, overlapWords int) *Chunker {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlapWords < 0 || overlapWords >= maxWords {
		overlapWords = DefaultOverlapWords
	}
	return &Chunker{MinWords: minWords, MaxWords: maxWords, OverlapWords: overlapWords}
}

// Chunk normalizes the text and slices it into windows of MaxWords
// advancing by MaxWords-OverlapWords. Text shorter than MinWords
// becomes a single chunk. The final window may be shorter than
// MaxWords and is still emitted, so every word of the text appears in
// at least one chunk. Character offsets refer to the normalized text.
func (c *Chunker) Chunk(text string) []domain.Chunk {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	words := strings.Fields(normalized)
	if len(words) < c.MinWords {
		return []domain.Chunk{{
			Index:     0,
			Text:      normalized,
			WordCount: len(words),
			StartChar: 0,
			EndChar:   len(normalized),
		}}
	}

	// Character offset of each word within the normalized text, which
	// is single-space separated after Normalize.
	offsets := make([]int, len(words))
	pos := 0
	for i, w := range words {
		offsets[i] = pos
		pos += len(w) + 1
	}

	step := c.MaxWords - c.OverlapWords
	var chunks []domain.Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.MaxWords
		if end > len(words) {
			end = len(words)
		}
		chunkText := strings.Join(words[start:end], " ")
		chunks = append(chunks, domain.Chunk{
			Index:     len(chunks),
			Text:      chunkText,
			WordCount: end - start,
			StartChar: offsets[start],
			EndChar:   offsets[start] + len(chunkText),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}
