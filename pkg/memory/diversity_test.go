package memory

import (
	"math/rand"
	"testing"
)

func TestWeightedSampleIndices_AllZeroIsUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	weights := []float64{0, 0, 0, 0, 0}

	picked := WeightedSampleIndices(rng, weights, 5)
	if len(picked) != 5 {
		t.Fatalf("expected 5 draws, got %d", len(picked))
	}
	seen := make(map[int]struct{})
	for _, idx := range picked {
		if _, dup := seen[idx]; dup {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = struct{}{}
	}
}

func TestWeightedSampleIndices_NegativeWeightsCarryNoMass(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	weights := []float64{-5, 0, 3}

	for i := 0; i < 50; i++ {
		picked := WeightedSampleIndices(rng, weights, 1)
		if len(picked) != 1 || picked[0] != 2 {
			t.Fatalf("only the positive-weight index may be drawn, got %v", picked)
		}
	}
}

func TestWeightedSampleIndices_KLargerThanPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	picked := WeightedSampleIndices(rng, []float64{1, 2}, 10)
	if len(picked) != 2 {
		t.Errorf("expected pool-sized result, got %d", len(picked))
	}
}

func TestWeightedSampleIndices_Deterministic(t *testing.T) {
	weights := []float64{0.5, 0.1, 0.9, 0.2}
	a := WeightedSampleIndices(rand.New(rand.NewSource(42)), weights, 4)
	b := WeightedSampleIndices(rand.New(rand.NewSource(42)), weights, 4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed must give same order: %v vs %v", a, b)
		}
	}
}

func mmrPool() []SelectedMemory {
	return []SelectedMemory{
		{MemoryID: "a", Content: "user prefers dark mode in every editor and terminal session", Score: 0.9},
		{MemoryID: "b", Content: "user prefers dark mode in every editor and terminal window", Score: 0.8},
		{MemoryID: "c", Content: "gardening tomatoes ripen slowly during cool cloudy weeks", Score: 0.7},
	}
}

func TestSelectByMMR_NoDuplicatesAndLimit(t *testing.T) {
	results := SelectByMMR(mmrPool(), 0.7, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].MemoryID == results[1].MemoryID {
		t.Error("duplicate result")
	}
}

func TestSelectByMMR_LambdaOneIsScoreOrder(t *testing.T) {
	results := SelectByMMR(mmrPool(), 1.0, 3)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if results[i].MemoryID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, results[i].MemoryID)
		}
	}
}

func TestSelectByMMR_PrefersDiversity(t *testing.T) {
	// a and b are near-duplicates; with lambda=0.7 the similarity penalty
	// must outweigh b's score edge over c.
	results := SelectByMMR(mmrPool(), 0.7, 2)
	if results[0].MemoryID != "a" {
		t.Fatalf("expected top-scored a first, got %s", results[0].MemoryID)
	}
	if results[1].MemoryID != "c" {
		t.Errorf("expected diverse c second, got %s", results[1].MemoryID)
	}
}

func TestSelectByMMR_EmptyAndZeroLimit(t *testing.T) {
	if got := SelectByMMR(nil, 0.7, 2); got != nil {
		t.Errorf("empty pool: expected nil, got %v", got)
	}
	if got := SelectByMMR(mmrPool(), 0.7, 0); got != nil {
		t.Errorf("zero limit: expected nil, got %v", got)
	}
}
