package knowledge

import (
	"strings"
	"unicode/utf8"
)

// stopWords are dropped from extracted keywords
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "how": {}, "why": {}, "where": {}, "when": {}, "who": {}, "which": {},
}

// maxKeywords bounds the keywords stored per question
const maxKeywords = 5

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index of the lowercased word sets of a and b.
// It is 0 when either text has no words.
func Similarity(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	union := len(wa) + len(wb) - shared
	return float64(shared) / float64(union)
}

// ExtractKeywords returns up to five lowercased words longer than three
// characters that are not stop words, in order of appearance
func ExtractKeywords(text string) []string {
	keywords := make([]string, 0, maxKeywords)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
