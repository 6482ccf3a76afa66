package memory

import (
	"strings"
)

// The tokenizer is shared by document-frequency construction, per-candidate
// term frequencies, query tokenization, and shingle generation. All stages
// must see identical tokens, so the punctuation class and stop-word set live
// here and nowhere else.

const shingleSize = 3

// punctuation is the character class replaced by spaces before splitting.
const punctuation = "`~!@#$%^&*()-_=+[]{};:'\",.<>/?\\|"

var stopWords = func() map[string]struct{} {
	words := []string{
		"the", "a", "an", "and", "or", "but", "of", "to", "in", "on",
		"for", "with", "is", "it", "as", "at", "by", "be", "are", "was",
		"were", "this", "that", "from", "we", "you", "they", "i", "me",
		"my", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Tokenize lowercases text, strips punctuation, splits on whitespace, and
// drops single-character tokens and stop words. Token order is preserved for
// shingle construction.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, text)

	fields := strings.Fields(mapped)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Shingles returns the set of n-gram shingles over the token sequence,
// joined by single spaces. Fewer than n tokens yields an empty set.
func Shingles(tokens []string, n int) map[string]struct{} {
	shingles := make(map[string]struct{})
	if n <= 0 || len(tokens) < n {
		return shingles
	}
	for i := 0; i+n <= len(tokens); i++ {
		shingles[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return shingles
}

// JaccardSimilarity computes the Jaccard similarity of the 3-shingle sets of
// two texts. Returns 0 when the union is empty.
func JaccardSimilarity(a, b string) float64 {
	sa := Shingles(Tokenize(a), shingleSize)
	sb := Shingles(Tokenize(b), shingleSize)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}

	intersection := 0
	for s := range sa {
		if _, ok := sb[s]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
