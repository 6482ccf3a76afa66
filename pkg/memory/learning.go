package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// The learning loop persists ratings and interactions through the injected
// storage capability. Ratings are stored as an array of records and
// materialized back into a keyed table on load; interactions are an
// append-only log truncated to the most recent entries on save.

const (
	ratingsKeyPrefix      = "memory_ratings_"
	interactionsKeyPrefix = "memory_interactions_"

	// DefaultMaxInteractions is the retained interaction-log length.
	DefaultMaxInteractions = 1000
)

func ratingsKey(profileID string) string {
	return ratingsKeyPrefix + profileID
}

func interactionsKey(profileID string) string {
	return interactionsKeyPrefix + profileID
}

// LoadRatings reads the full rating table for a profile. A missing key means
// an empty table; a corrupt payload is treated as empty and logged.
func (e *Engine) LoadRatings(ctx context.Context, profileID string) (RatingTable, error) {
	if e.store == nil {
		return nil, ErrStorageUnavailable
	}

	table := make(RatingTable)
	data, err := e.store.GetSetting(ctx, ratingsKey(profileID))
	if err != nil {
		if storage.IsNotFound(err) {
			return table, nil
		}
		return nil, fmt.Errorf("memory: load ratings: %w", err)
	}

	var records []MemoryRating
	if err := json.Unmarshal(data, &records); err != nil {
		e.logger.Warn("corrupt rating store, resetting", "profile_id", profileID, "error", err)
		return table, nil
	}

	for i := range records {
		r := records[i]
		table[RatingKey(r.MemoryID, r.KernelID)] = &r
	}
	return table, nil
}

// SaveRatings writes the full rating table for a profile. The on-disk form
// is an array of records, ordered by key for deterministic output.
func (e *Engine) SaveRatings(ctx context.Context, profileID string, table RatingTable) error {
	if e.store == nil {
		return ErrStorageUnavailable
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]MemoryRating, 0, len(table))
	for _, k := range keys {
		records = append(records, *table[k])
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("memory: marshal ratings: %w", err)
	}
	if err := e.store.SaveSetting(ctx, ratingsKey(profileID), data); err != nil {
		return fmt.Errorf("memory: save ratings: %w", err)
	}
	return nil
}

// Interactions returns the retained feedback log for a profile, oldest first.
func (e *Engine) Interactions(ctx context.Context, profileID string) ([]MemoryInteraction, error) {
	if e.store == nil {
		return nil, ErrStorageUnavailable
	}

	data, err := e.store.GetSetting(ctx, interactionsKey(profileID))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: load interactions: %w", err)
	}

	var interactions []MemoryInteraction
	if err := json.Unmarshal(data, &interactions); err != nil {
		e.logger.Warn("corrupt interaction log, resetting", "profile_id", profileID, "error", err)
		return nil, nil
	}
	return interactions, nil
}

func (e *Engine) saveInteractions(ctx context.Context, profileID string, interactions []MemoryInteraction) error {
	retain := e.cfg.MaxInteractions
	if retain <= 0 {
		retain = DefaultMaxInteractions
	}
	if len(interactions) > retain {
		interactions = interactions[len(interactions)-retain:]
	}

	data, err := json.Marshal(interactions)
	if err != nil {
		return fmt.Errorf("memory: marshal interactions: %w", err)
	}
	if err := e.store.SaveSetting(ctx, interactionsKey(profileID), data); err != nil {
		return fmt.Errorf("memory: save interactions: %w", err)
	}
	return nil
}

// Ratings returns the profile's rating records, ordered by key.
func (e *Engine) Ratings(ctx context.Context, profileID string) ([]MemoryRating, error) {
	table, err := e.LoadRatings(ctx, profileID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]MemoryRating, 0, len(table))
	for _, k := range keys {
		records = append(records, *table[k])
	}
	return records, nil
}

// ApplyFeedback applies explicit rewards to the affected ratings and appends
// one interaction per reward. Storage failures propagate: silently dropped
// feedback would be invisible to the user.
func (e *Engine) ApplyFeedback(ctx context.Context, profileID, kernelID, contextID string, rewards []Reward) error {
	if profileID == "" {
		return ErrInvalidProfileID
	}
	if kernelID == "" {
		return ErrInvalidKernelID
	}
	if e.store == nil {
		return ErrStorageUnavailable
	}
	if len(rewards) == 0 {
		return nil
	}

	mu := e.profileLock(profileID)
	mu.Lock()
	defer mu.Unlock()

	table, err := e.LoadRatings(ctx, profileID)
	if err != nil {
		return err
	}
	interactions, err := e.Interactions(ctx, profileID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, rw := range rewards {
		reward := clampReward(rw.Reward)
		rating := table.Get(rw.MemoryID, kernelID)
		UpdateRating(rating, reward, now)
		if e.metrics != nil {
			e.metrics.RecordFeedback(reward)
		}

		interactions = append(interactions, MemoryInteraction{
			ID:        uuid.New().String(),
			MemoryID:  rw.MemoryID,
			KernelID:  kernelID,
			ContextID: contextID,
			Reward:    reward,
			Timestamp: now,
		})
	}

	if err := e.SaveRatings(ctx, profileID, table); err != nil {
		return err
	}
	return e.saveInteractions(ctx, profileID, interactions)
}

// RecordUsage applies the implicit +1 signal for memories that were selected
// and presumed useful.
func (e *Engine) RecordUsage(ctx context.Context, profileID, kernelID, contextID string, memoryIDs []string) error {
	rewards := make([]Reward, 0, len(memoryIDs))
	for _, id := range memoryIDs {
		rewards = append(rewards, Reward{MemoryID: id, Reward: 1})
	}
	return e.ApplyFeedback(ctx, profileID, kernelID, contextID, rewards)
}

func clampReward(reward int) int {
	if reward > 0 {
		return 1
	}
	if reward < 0 {
		return -1
	}
	return 0
}
