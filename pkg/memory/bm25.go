package memory

import (
	"math"
)

// BM25 parameters. The +1 inside the IDF logarithm is the BM25+ variant,
// which keeps IDF non-negative for any document frequency.
const (
	bm25K1      = 1.2
	bm25B       = 0.75
	bm25Epsilon = 1e-6
)

// BuildDocumentFrequencies counts, for each term, the number of candidate
// documents containing it. Each term is counted once per document.
func BuildDocumentFrequencies(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}

// CalculateBM25 scores a tokenized query against a tokenized document given
// corpus statistics over the candidate set. Returns 0 when either token list
// is empty; never returns NaN or Inf.
func CalculateBM25(queryTokens, docTokens []string, df map[string]int, totalDocs int, avgDocLen float64) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return 0
	}

	freqs := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		freqs[t]++
	}

	docLen := float64(len(docTokens))
	if avgDocLen < 1 {
		avgDocLen = 1
	}

	score := 0.0
	seen := make(map[string]struct{}, len(queryTokens))
	for _, term := range queryTokens {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}

		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}

		n := float64(df[term])
		idf := math.Log((float64(totalDocs)-n+0.5)/(n+0.5) + 1.0)

		numerator := tf * (bm25K1 + 1)
		denominator := tf + bm25K1*(1-bm25B+bm25B*docLen/avgDocLen)
		score += idf * numerator / math.Max(bm25Epsilon, denominator)
	}

	return score
}
