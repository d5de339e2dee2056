package chunk

import (
	"fmt"
	"strings"
	"testing"
)

// wordsText builds a text of n distinct words
func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(words, " ")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello   World", "hello world"},
		{"One,two ,  three", "one, two, three"},
		{"  Tabs\tand\nnewlines  ", "tabs and newlines"},
		{"End.Start", "end. start"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChunkEmpty(t *testing.T) {
	c := NewChunker(40, 60, 10)
	if chunks := c.Chunk(""); chunks != nil {
		t.Errorf("expected nil for empty text, got %d chunks", len(chunks))
	}
	if chunks := c.Chunk("   \n\t  "); chunks != nil {
		t.Errorf("expected nil for whitespace text, got %d chunks", len(chunks))
	}
}

func TestChunkShortText(t *testing.T) {
	c := NewChunker(40, 60, 10)
	chunks := c.Chunk(wordsText(15))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0].WordCount != 15 {
		t.Errorf("expected 15 words, got %d", chunks[0].WordCount)
	}
	if chunks[0].StartChar != 0 {
		t.Errorf("expected offset 0, got %d", chunks[0].StartChar)
	}
}

func TestChunkWindowAdvance(t *testing.T) {
	// 120 words with max 60 and overlap 10: windows at word 0, 50 and
	// 100, the last one a short 20-word tail.
	c := NewChunker(40, 60, 10)
	chunks := c.Chunk(wordsText(120))

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].WordCount != 60 || chunks[1].WordCount != 60 {
		t.Errorf("expected 60-word chunks, got %d and %d", chunks[0].WordCount, chunks[1].WordCount)
	}
	if chunks[2].WordCount != 20 {
		t.Errorf("expected 20-word tail chunk, got %d", chunks[2].WordCount)
	}
	if !strings.HasPrefix(chunks[1].Text, "word50 ") {
		t.Errorf("expected second chunk to start at word 50, got %q", chunks[1].Text[:20])
	}
	if !strings.HasPrefix(chunks[2].Text, "word100 ") {
		t.Errorf("expected tail chunk to start at word 100, got %q", chunks[2].Text[:20])
	}

	// Overlap: last 10 words of chunk 0 are the first 10 of chunk 1
	w0 := strings.Fields(chunks[0].Text)
	w1 := strings.Fields(chunks[1].Text)
	for i := 0; i < 10; i++ {
		if w0[50+i] != w1[i] {
			t.Errorf("overlap word %d: %q != %q", i, w0[50+i], w1[i])
		}
	}
}

func TestChunkCoversEveryWord(t *testing.T) {
	c := NewChunker(40, 60, 10)
	for _, n := range []int{40, 61, 120, 139, 200, 501} {
		seen := make(map[string]bool)
		for _, ch := range c.Chunk(wordsText(n)) {
			for _, w := range strings.Fields(ch.Text) {
				seen[w] = true
			}
		}
		for i := 0; i < n; i++ {
			if !seen[fmt.Sprintf("word%d", i)] {
				t.Errorf("%d words: word%d missing from every chunk", n, i)
			}
		}
	}
}

func TestChunkOffsetsMatchText(t *testing.T) {
	c := NewChunker(40, 60, 10)
	text := wordsText(200)
	normalized := Normalize(text)
	for _, ch := range c.Chunk(text) {
		if got := normalized[ch.StartChar:ch.EndChar]; got != ch.Text {
			t.Errorf("chunk %d: offsets [%d:%d] yield %q, want %q",
				ch.Index, ch.StartChar, ch.EndChar, got[:30], ch.Text[:30])
		}
	}
}

func TestChunkIndicesSequential(t *testing.T) {
	c := NewChunker(40, 60, 10)
	for i, ch := range c.Chunk(wordsText(500)) {
		if ch.Index != i {
			t.Errorf("expected index %d, got %d", i, ch.Index)
		}
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, 0, -1)
	if c.MinWords != DefaultMinWords || c.MaxWords != DefaultMaxWords || c.OverlapWords != DefaultOverlapWords {
		t.Errorf("expected defaults, got %+v", c)
	}
}
