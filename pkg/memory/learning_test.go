package memory

import (
	"context"
	"fmt"
	"math"
	"testing"
)

func TestLearning_RatingsRoundTrip(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	table := make(RatingTable)
	for i := 0; i < 5; i++ {
		r := table.Get(fmt.Sprintf("m%d", i), "k1")
		r.Mu = float64(i) * 0.1
		r.Sigma = 0.5
		r.Uses = i
	}

	if err := eng.SaveRatings(ctx, "p1", table); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := eng.LoadRatings(ctx, "p1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(loaded) != len(table) {
		t.Fatalf("expected %d ratings, got %d", len(table), len(loaded))
	}
	for key, want := range table {
		got, ok := loaded[key]
		if !ok {
			t.Fatalf("missing rating %s", key)
		}
		if math.Abs(got.Mu-want.Mu) > 1e-12 || got.Sigma != want.Sigma || got.Uses != want.Uses {
			t.Errorf("rating %s differs: %+v vs %+v", key, got, want)
		}
	}
}

func TestLearning_LoadRatingsMissingKeyIsEmpty(t *testing.T) {
	eng, _ := newTestEngine(t)
	table, err := eng.LoadRatings(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %d entries", len(table))
	}
}

func TestLearning_CorruptRatingsRecoverAsEmpty(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	if err := store.SaveSetting(ctx, ratingsKey("p1"), []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	table, err := eng.LoadRatings(ctx, "p1")
	if err != nil {
		t.Fatalf("corrupt payload must not fail the load: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected reset-to-empty, got %d entries", len(table))
	}
}

func TestLearning_ApplyFeedbackUpdatesAndLogs(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	err := eng.ApplyFeedback(ctx, "p1", "k1", "c1", []Reward{
		{MemoryID: "m1", Reward: 1},
		{MemoryID: "m2", Reward: -1},
		{MemoryID: "m3", Reward: 0},
	})
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}

	table, _ := eng.LoadRatings(ctx, "p1")
	if len(table) != 3 {
		t.Fatalf("expected 3 ratings, got %d", len(table))
	}
	if r := table[RatingKey("m1", "k1")]; r.Mu <= 0 || r.Uses != 1 {
		t.Errorf("positive reward: unexpected state %+v", r)
	}
	if r := table[RatingKey("m2", "k1")]; r.Mu >= 0 || r.Uses != 1 {
		t.Errorf("negative reward: unexpected state %+v", r)
	}
	if r := table[RatingKey("m3", "k1")]; r.Mu != 0 || r.Uses != 1 {
		t.Errorf("zero reward: unexpected state %+v", r)
	}

	interactions, err := eng.Interactions(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(interactions) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(interactions))
	}
	for _, in := range interactions {
		if in.ID == "" || in.KernelID != "k1" || in.ContextID != "c1" {
			t.Errorf("malformed interaction: %+v", in)
		}
	}
}

func TestLearning_ApplyFeedbackClampsRewards(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	err := eng.ApplyFeedback(ctx, "p1", "k1", "c1", []Reward{{MemoryID: "m1", Reward: 7}})
	if err != nil {
		t.Fatal(err)
	}

	interactions, _ := eng.Interactions(ctx, "p1")
	if interactions[0].Reward != 1 {
		t.Errorf("reward must clamp to 1, got %d", interactions[0].Reward)
	}
}

func TestLearning_ApplyFeedbackRequiresKernel(t *testing.T) {
	eng, _ := newTestEngine(t)
	err := eng.ApplyFeedback(context.Background(), "p1", "", "c1", []Reward{{MemoryID: "m1", Reward: 1}})
	if err != ErrInvalidKernelID {
		t.Errorf("expected ErrInvalidKernelID, got %v", err)
	}
}

func TestLearning_RecordUsage(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.RecordUsage(ctx, "p1", "k1", "c1", []string{"m1", "m2"}); err != nil {
		t.Fatalf("record usage failed: %v", err)
	}

	interactions, _ := eng.Interactions(ctx, "p1")
	if len(interactions) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(interactions))
	}
	for _, in := range interactions {
		if in.Reward != 1 {
			t.Errorf("implicit usage must record reward=+1, got %d", in.Reward)
		}
	}

	table, _ := eng.LoadRatings(ctx, "p1")
	for _, id := range []string{"m1", "m2"} {
		if r := table[RatingKey(id, "k1")]; r == nil || r.Uses != 1 {
			t.Errorf("%s: expected uses=1, got %+v", id, r)
		}
	}
}

func TestLearning_InteractionRetentionCap(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 1500; i++ {
		err := eng.ApplyFeedback(ctx, "p1", "k1", fmt.Sprintf("c%04d", i), []Reward{
			{MemoryID: "m1", Reward: 1},
		})
		if err != nil {
			t.Fatalf("feedback %d failed: %v", i, err)
		}
	}

	interactions, err := eng.Interactions(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(interactions) != 1000 {
		t.Fatalf("expected 1000 retained interactions, got %d", len(interactions))
	}
	if interactions[0].ContextID != "c0500" {
		t.Errorf("expected oldest retained c0500, got %s", interactions[0].ContextID)
	}
	if interactions[999].ContextID != "c1499" {
		t.Errorf("expected newest retained c1499, got %s", interactions[999].ContextID)
	}

	// Original order must be preserved within the retained window.
	for i := 1; i < len(interactions); i++ {
		if interactions[i].ContextID <= interactions[i-1].ContextID {
			t.Fatalf("retention must preserve order: %s then %s",
				interactions[i-1].ContextID, interactions[i].ContextID)
		}
	}
}

func TestLearning_RatingsListedInKeyOrder(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	err := eng.ApplyFeedback(ctx, "p1", "k1", "c1", []Reward{
		{MemoryID: "zeta", Reward: 1},
		{MemoryID: "alpha", Reward: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := eng.Ratings(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].MemoryID != "alpha" || records[1].MemoryID != "zeta" {
		t.Errorf("expected deterministic key order, got %+v", records)
	}
}
