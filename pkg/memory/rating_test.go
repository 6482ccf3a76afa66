package memory

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestRatingKey(t *testing.T) {
	if key := RatingKey("m1", "k1"); key != "m1::k1" {
		t.Errorf("expected m1::k1, got %s", key)
	}
}

func TestRatingTable_GetInitializesLazily(t *testing.T) {
	table := make(RatingTable)
	r := table.Get("m1", "k1")
	if r.Mu != 0 || r.Sigma != 1.0 || r.Uses != 0 {
		t.Errorf("fresh rating: expected mu=0 sigma=1 uses=0, got %+v", r)
	}
	if table.Get("m1", "k1") != r {
		t.Error("expected same rating instance on second fetch")
	}
}

func TestUpdateRating_SinglePositiveReward(t *testing.T) {
	// K = 1/(1+1) = 0.5, mu = 0.5, sigma = sqrt(0.5) + 0.01.
	r := NewRating("m1", "k1")
	now := time.Now()
	UpdateRating(r, 1, now)

	if math.Abs(r.Mu-0.5) > 1e-6 {
		t.Errorf("mu: expected 0.5, got %f", r.Mu)
	}
	wantSigma := math.Sqrt(0.5) + 0.01
	if math.Abs(r.Sigma-wantSigma) > 1e-6 {
		t.Errorf("sigma: expected %f, got %f", wantSigma, r.Sigma)
	}
	if r.Uses != 1 {
		t.Errorf("uses: expected 1, got %d", r.Uses)
	}
	if !r.LastUpdatedAt.Equal(now) {
		t.Errorf("lastUpdatedAt not set")
	}
}

func TestUpdateRating_SigmaBounds(t *testing.T) {
	r := NewRating("m1", "k1")
	prevUses := 0
	for i := 0; i < 500; i++ {
		reward := []int{-1, 0, 1}[i%3]
		UpdateRating(r, reward, time.Now())
		if r.Sigma < 0.1 || r.Sigma > 2.0 {
			t.Fatalf("sigma out of bounds after %d updates: %f", i+1, r.Sigma)
		}
		if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) {
			t.Fatalf("mu not finite after %d updates: %f", i+1, r.Mu)
		}
		if r.Uses != prevUses+1 {
			t.Fatalf("uses must be monotonic: %d then %d", prevUses, r.Uses)
		}
		prevUses = r.Uses
	}
}

func TestUpdateRating_ZeroRewardConvergence(t *testing.T) {
	r := NewRating("m1", "k1")
	r.Mu = 0.9

	prev := math.Abs(r.Mu)
	for i := 0; i < 50; i++ {
		UpdateRating(r, 0, time.Now())
		cur := math.Abs(r.Mu)
		if cur > prev+1e-12 {
			t.Fatalf("|mu| must approach 0 monotonically: %f then %f", prev, cur)
		}
		prev = cur
	}
	if prev > 0.05 {
		t.Errorf("mu should be near 0 after repeated zero rewards, got %f", prev)
	}
}

func TestThompsonSample_Deterministic(t *testing.T) {
	a := ThompsonSample(rand.New(rand.NewSource(7)), 0, 1)
	b := ThompsonSample(rand.New(rand.NewSource(7)), 0, 1)
	if a != b {
		t.Errorf("same seed must give the same draw: %f vs %f", a, b)
	}
}

func TestThompsonSample_ZeroSigmaIsMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if got := ThompsonSample(rng, 0.42, 0); got != 0.42 {
			t.Fatalf("sigma=0 must return mu, got %f", got)
		}
	}
}

func TestThompsonSample_Finite(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 10000; i++ {
		z := ThompsonSample(rng, 0, 1)
		if math.IsNaN(z) || math.IsInf(z, 0) {
			t.Fatalf("draw %d not finite: %f", i, z)
		}
	}
}
