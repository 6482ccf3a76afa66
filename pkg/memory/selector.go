package memory

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// SelectorWeights are the composite-utility weights. They sum to 1.0.
type SelectorWeights struct {
	Importance   float64
	TagRelevance float64
	Lexical      float64
	Recency      float64
	Centrality   float64
	Thompson     float64
}

// DefaultWeights returns the standard signal weighting.
func DefaultWeights() SelectorWeights {
	return SelectorWeights{
		Importance:   0.10,
		TagRelevance: 0.25,
		Lexical:      0.30,
		Recency:      0.10,
		Centrality:   0.10,
		Thompson:     0.15,
	}
}

// SelectorConfig tunes the selection pipeline.
type SelectorConfig struct {
	Weights          SelectorWeights
	OversampleFactor int
	MMRLambda        float64
	RecencyHalfLife  time.Duration
	DefaultLimit     int
}

// DefaultSelectorConfig returns the standard pipeline parameters.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Weights:          DefaultWeights(),
		OversampleFactor: 3,
		MMRLambda:        0.7,
		RecencyHalfLife:  DefaultRecencyHalfLife,
		DefaultLimit:     20,
	}
}

// Selector scores and selects memory chunks for a kernel. Selection is pure
// apart from draws on the injected PRNG: it performs no I/O, never fails,
// and returns an empty slice for empty inputs.
type Selector struct {
	cfg SelectorConfig
	rng *rand.Rand
	now func() time.Time
}

// NewSelector creates a selector around an injected PRNG. Tests pin the
// random sequence by seeding rng.
func NewSelector(cfg SelectorConfig, rng *rand.Rand) *Selector {
	if cfg.OversampleFactor < 1 {
		cfg.OversampleFactor = 3
	}
	if cfg.MMRLambda <= 0 || cfg.MMRLambda > 1 {
		cfg.MMRLambda = 0.7
	}
	if cfg.RecencyHalfLife <= 0 {
		cfg.RecencyHalfLife = DefaultRecencyHalfLife
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	return &Selector{cfg: cfg, rng: rng, now: time.Now}
}

// Select runs the full pipeline: tag pre-filter, candidate-local corpus
// statistics, composite scoring, weighted oversampling, and MMR re-ranking.
// The ratings table is a caller-owned snapshot; missing pairs are lazily
// initialized in it but nothing is persisted here.
func (s *Selector) Select(memories []MemoryChunk, kernel PromptKernel, ratings RatingTable, opts SelectOptions) []SelectedMemory {
	if len(memories) == 0 {
		return nil
	}
	if ratings == nil {
		ratings = make(RatingTable)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	candidates := s.prefilter(memories, kernel, opts)
	if len(candidates) == 0 {
		return nil
	}

	docTokens := make([][]string, len(candidates))
	totalLen := 0
	for i, c := range candidates {
		docTokens[i] = Tokenize(c.Content)
		totalLen += len(docTokens[i])
	}
	df := BuildDocumentFrequencies(docTokens)
	avgDocLen := float64(totalLen) / float64(len(candidates))

	queryTokens := Tokenize(buildQueryText(kernel, opts.QueryTerms))

	now := s.now()
	pool := make([]SelectedMemory, len(candidates))
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		bm25 := CalculateBM25(queryTokens, docTokens[i], df, len(candidates), avgDocLen)
		rating := ratings.Get(c.ID, kernel.ID)
		z := ThompsonSample(s.rng, rating.Mu, rating.Sigma)

		sig := Signals{
			Importance:   ImportanceSignal(c.Importance),
			TagRelevance: TagRelevance(c.Tags, kernel.Keywords),
			Lexical:      clamp01(math.Log(1+bm25) / 5.0),
			Recency:      RecencySignal(c.Timestamp, now, s.cfg.RecencyHalfLife),
			Centrality:   CentralitySignal(len(c.Associations), c.Tags, kernel.Keywords),
			Thompson:     clamp01((z + 1) / 2),
		}

		w := s.cfg.Weights
		total := w.Importance*sig.Importance +
			w.TagRelevance*sig.TagRelevance +
			w.Lexical*sig.Lexical +
			w.Recency*sig.Recency +
			w.Centrality*sig.Centrality +
			w.Thompson*sig.Thompson

		pool[i] = SelectedMemory{
			MemoryID: c.ID,
			Content:  c.Content,
			Tags:     c.Tags,
			Score:    total,
			Signals:  sig,
		}
		weights[i] = total
	}

	sampleSize := s.cfg.OversampleFactor * limit
	if sampleSize > len(pool) {
		sampleSize = len(pool)
	}
	sampled := make([]SelectedMemory, 0, sampleSize)
	for _, idx := range WeightedSampleIndices(s.rng, weights, sampleSize) {
		sampled = append(sampled, pool[idx])
	}

	sort.SliceStable(sampled, func(i, j int) bool {
		return sampled[i].Score > sampled[j].Score
	})

	return SelectByMMR(sampled, s.cfg.MMRLambda, limit)
}

// prefilter retains memories whose tags intersect the kernel keywords,
// unless the kernel has no keywords or the filter is bypassed.
func (s *Selector) prefilter(memories []MemoryChunk, kernel PromptKernel, opts SelectOptions) []MemoryChunk {
	if len(kernel.Keywords) == 0 || opts.BypassTagFilter {
		return memories
	}

	filtered := make([]MemoryChunk, 0, len(memories))
	for _, m := range memories {
		if hasTagOverlap(m.Tags, kernel.Keywords) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// buildQueryText concatenates the kernel name, prompt, keywords, and any
// extra query terms into the lexical query.
func buildQueryText(kernel PromptKernel, queryTerms []string) string {
	parts := []string{kernel.Name, kernel.Prompt, strings.Join(kernel.Keywords, " ")}
	if len(queryTerms) > 0 {
		parts = append(parts, strings.Join(queryTerms, " "))
	}
	return strings.Join(parts, " ")
}
