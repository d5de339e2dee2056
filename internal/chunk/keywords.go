package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords are excluded from keyword extraction
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true, "out": true,
	"off": true, "over": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "each": true,
	"few": true, "more": true, "most": true, "other": true, "some": true,
	"such": true, "only": true, "own": true, "same": true, "than": true,
	"too": true, "very": true, "can": true, "will": true, "just": true,
	"should": true, "now": true, "this": true, "that": true, "these": true,
	"those": true, "is": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "doing": true, "would": true, "could": true,
	"their": true, "them": true, "they": true, "what": true, "which": true,
	"your": true, "yours": true, "because": true, "while": true,
	"also": true, "its": true, "it's": true, "not": true, "you": true,
}

var wordRe = regexp.MustCompile(`[a-z0-9']+`)

// Keywords extracts the topK most frequent non-stop words longer than
// three characters, most frequent first. Ties break alphabetically so
// the result is deterministic.
func Keywords(text string, topK int) []string {
	return KeywordsWithTitle(text, "", topK)
}

// KeywordsWithTitle extracts keywords with title terms weighted higher,
// so queries built from the result favor the declared topic.
func KeywordsWithTitle(text, title string, topK int) []string {
	if topK <= 0 {
		return nil
	}

	counts := make(map[string]int)
	tally := func(s string, weight int) {
		for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
			if len(w) <= 3 || stopWords[w] {
				continue
			}
			counts[w] += weight
		}
	}
	tally(text, 1)
	tally(title, 3)

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topK {
		words = words[:topK]
	}
	return words
}
