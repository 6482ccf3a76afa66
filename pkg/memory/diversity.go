package memory

import (
	"math/rand"
)

// WeightedSampleIndices draws up to k distinct indices without replacement,
// with probability proportional to max(0, weight). When every remaining
// weight is zero the draw degenerates to uniform. Negative weights never
// contribute probability mass but stay eligible for the uniform fallback.
func WeightedSampleIndices(rng *rand.Rand, weights []float64, k int) []int {
	pool := make([]int, len(weights))
	for i := range weights {
		pool[i] = i
	}

	if k > len(pool) {
		k = len(pool)
	}

	picked := make([]int, 0, k)
	for len(picked) < k && len(pool) > 0 {
		total := 0.0
		for _, idx := range pool {
			if w := weights[idx]; w > 0 {
				total += w
			}
		}

		var at int
		if total == 0 {
			at = rng.Intn(len(pool))
		} else {
			u := rng.Float64() * total
			running := 0.0
			at = len(pool) - 1 // fallback when the walk runs off the end
			for i, idx := range pool {
				if w := weights[idx]; w > 0 {
					running += w
				}
				if running > u {
					at = i
					break
				}
			}
		}

		picked = append(picked, pool[at])
		pool = append(pool[:at], pool[at+1:]...)
	}

	return picked
}

// SelectByMMR greedily re-ranks a score-descending pool with Maximal
// Marginal Relevance: mmr = lambda*score - (1-lambda)*maxSim, where maxSim
// is the highest 3-shingle Jaccard similarity against the already-selected
// set. Ties resolve to the earlier pool position.
func SelectByMMR(pool []SelectedMemory, lambda float64, limit int) []SelectedMemory {
	if limit <= 0 || len(pool) == 0 {
		return nil
	}

	shingleSets := make([]map[string]struct{}, len(pool))
	for i, m := range pool {
		shingleSets[i] = Shingles(Tokenize(m.Content), shingleSize)
	}

	remaining := make([]int, len(pool))
	for i := range pool {
		remaining[i] = i
	}

	selected := make([]SelectedMemory, 0, limit)
	var selectedSets []map[string]struct{}

	for len(selected) < limit && len(remaining) > 0 {
		bestAt := 0
		bestMMR := 0.0
		for i, idx := range remaining {
			maxSim := 0.0
			for _, s := range selectedSets {
				if sim := shingleJaccard(shingleSets[idx], s); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*pool[idx].Score - (1-lambda)*maxSim
			if i == 0 || mmr > bestMMR {
				bestAt = i
				bestMMR = mmr
			}
		}

		idx := remaining[bestAt]
		selected = append(selected, pool[idx])
		selectedSets = append(selectedSets, shingleSets[idx])
		remaining = append(remaining[:bestAt], remaining[bestAt+1:]...)
	}

	return selected
}

// shingleJaccard is Jaccard similarity over precomputed shingle sets.
func shingleJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for s := range a {
		if _, ok := b[s]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
