package chunk

import (
	"regexp"
	"strings"
)

// fillerWords are spoken-language tokens stripped from transcripts
// before chunking, so filler does not dilute embeddings.
var fillerWords = map[string]bool{
	"um": true, "uh": true, "umm": true, "uhh": true, "hmm": true,
	"mhmm": true, "yeah": true, "yep": true, "nope": true, "like": true,
	"you know": true, "i mean": true, "sort of": true, "kind of": true,
	"basically": true, "actually": true, "literally": true,
	"seriously": true, "honestly": true, "obviously": true,
}

var (
	annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	fillerPairRe *regexp.Regexp
	fillerSingle *regexp.Regexp
)

func init() {
	var pairs, singles []string
	for w := range fillerWords {
		escaped := regexp.QuoteMeta(w)
		if strings.Contains(w, " ") {
			pairs = append(pairs, escaped)
		} else {
			singles = append(singles, escaped)
		}
	}
	fillerPairRe = regexp.MustCompile(`(?i)\b(` + strings.Join(pairs, "|") + `)\b`)
	fillerSingle = regexp.MustCompile(`(?i)\b(` + strings.Join(singles, "|") + `)\b`)
}

// CleanTranscript strips caption annotations like [Music], removes
// filler words and collapses the remaining whitespace.
func CleanTranscript(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	text = fillerPairRe.ReplaceAllString(text, " ")
	text = fillerSingle.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
