package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// minWordLen is the length a word must exceed to count toward similarity.
const minWordLen = 2

// Similarity computes the Jaccard similarity of the significant words of a
// and b: case-folded, whitespace-separated words longer than two characters.
// Returns 0 when neither string has significant words.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)

	union := len(wa)
	intersection := 0
	for w := range wb {
		if wa[w] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(norm.NFC.String(s))) {
		if len([]rune(w)) > minWordLen {
			set[w] = true
		}
	}
	return set
}
