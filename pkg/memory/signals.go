package memory

import (
	"math"
	"strings"
	"time"
)

// Scalar relevance signals. Every function returns a value in [0, 1].

// centralitySpin is the boost applied to the association degree when any
// memory tag overlaps a kernel keyword.
const centralitySpin = 1.25

// DefaultRecencyHalfLife is the default decay constant for the recency
// signal. Despite the name, the signal falls to 1/e (not 1/2) at this age.
const DefaultRecencyHalfLife = 14 * 24 * time.Hour

// ImportanceSignal maps the 1..10 importance scale onto [0, 1].
func ImportanceSignal(raw int) float64 {
	return clamp01(float64(raw-1) / 9.0)
}

// TagRelevance is the fraction of kernel keywords present in the memory's
// tag set, compared case-insensitively. Returns 0 when either side is empty.
func TagRelevance(tags, keywords []string) float64 {
	if len(tags) == 0 || len(keywords) == 0 {
		return 0
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[strings.ToLower(t)] = struct{}{}
	}

	matched := 0
	for _, k := range keywords {
		if _, ok := tagSet[strings.ToLower(k)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// RecencySignal returns exp(-age/halfLife): the signal falls by a factor of
// e for each halfLife of age. Future timestamps are treated as now.
func RecencySignal(ts, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		halfLife = DefaultRecencyHalfLife
	}
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	return math.Exp(-float64(age) / float64(halfLife))
}

// CentralitySignal scales the association degree onto [0, 1], with a spin
// boost when the memory's tags overlap the kernel keywords.
func CentralitySignal(degree int, tags, keywords []string) float64 {
	spin := 1.0
	if hasTagOverlap(tags, keywords) {
		spin = centralitySpin
	}
	return math.Min(1, float64(degree)*spin/10.0)
}

// hasTagOverlap reports whether any tag matches any keyword,
// case-insensitively.
func hasTagOverlap(tags, keywords []string) bool {
	if len(tags) == 0 || len(keywords) == 0 {
		return false
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[strings.ToLower(t)] = struct{}{}
	}
	for _, k := range keywords {
		if _, ok := tagSet[strings.ToLower(k)]; ok {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
