package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ExpressedAi/Sidechain/config"
	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// Engine is the per-process orchestrator: it owns the chunk registry, the
// learning loop, and the selector, all keyed by profile. State transitions
// on a profile's ratings and interactions are serialized by a per-profile
// mutex; selection runs against a snapshot and takes no locks beyond the
// shared PRNG.
type Engine struct {
	cfg      *config.MemoryConfig
	store    storage.Store
	selector *Selector
	logger   engineLogger
	metrics  MetricsRecorder

	// rngMu guards the PRNG shared by Thompson sampling and oversampling.
	rngMu sync.Mutex

	profilesMu sync.Mutex
	profiles   map[string]*sync.Mutex
}

// MetricsRecorder receives selection and learning telemetry. Implemented by
// the metrics manager; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordSelection(profile string, candidates, results int, duration time.Duration)
	RecordFeedback(reward int)
}

// engineLogger is the minimal logger interface used by Engine.
type engineLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopEngineLogger is a no-op logger.
type nopEngineLogger struct{}

func (n *nopEngineLogger) Debug(msg string, args ...any) {}
func (n *nopEngineLogger) Info(msg string, args ...any)  {}
func (n *nopEngineLogger) Warn(msg string, args ...any)  {}
func (n *nopEngineLogger) Error(msg string, args ...any) {}

// NewEngine creates an Engine from configuration and an injected storage
// capability. A nil rng falls back to a time-seeded source; tests pass a
// seeded one to pin sequences.
func NewEngine(cfg *config.MemoryConfig, store storage.Store, rng *rand.Rand, logger engineLogger) *Engine {
	if cfg == nil {
		def := config.DefaultConfig().Memory
		cfg = &def
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = &nopEngineLogger{}
	}

	selCfg := SelectorConfig{
		Weights: SelectorWeights{
			Importance:   cfg.Weights.Importance,
			TagRelevance: cfg.Weights.TagRelevance,
			Lexical:      cfg.Weights.Lexical,
			Recency:      cfg.Weights.Recency,
			Centrality:   cfg.Weights.Centrality,
			Thompson:     cfg.Weights.Thompson,
		},
		OversampleFactor: cfg.OversampleFactor,
		MMRLambda:        cfg.MMRLambda,
		RecencyHalfLife:  cfg.RecencyHalfLife,
		DefaultLimit:     cfg.DefaultLimit,
	}

	return &Engine{
		cfg:      cfg,
		store:    store,
		selector: NewSelector(selCfg, rng),
		logger:   logger,
		profiles: make(map[string]*sync.Mutex),
	}
}

// SetMetrics attaches a telemetry recorder.
func (e *Engine) SetMetrics(rec MetricsRecorder) {
	e.metrics = rec
}

// SetWeights swaps the composite weights at runtime (config hot-reload).
func (e *Engine) SetWeights(w SelectorWeights) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.selector.cfg.Weights = w
}

// profileLock returns the mutex serializing learning operations for one
// profile.
func (e *Engine) profileLock(profileID string) *sync.Mutex {
	e.profilesMu.Lock()
	defer e.profilesMu.Unlock()
	mu, ok := e.profiles[profileID]
	if !ok {
		mu = &sync.Mutex{}
		e.profiles[profileID] = mu
	}
	return mu
}

// --- Chunk registry ---

func chunksKey(profileID string) string {
	return "memory_chunks_" + profileID
}

// Remember validates and stores memory chunks for a profile, returning their
// ids. Importance is clamped to [1, 10], tags are lowercased and coalesced,
// and empty content is rejected.
func (e *Engine) Remember(ctx context.Context, profileID string, chunks []MemoryChunk) ([]string, error) {
	if profileID == "" {
		return nil, ErrInvalidProfileID
	}
	if e.store == nil {
		return nil, ErrStorageUnavailable
	}

	mu := e.profileLock(profileID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := e.loadChunks(ctx, profileID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(existing))
	for i, c := range existing {
		byID[c.ID] = i
	}

	now := time.Now()
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			return nil, ErrEmptyContent
		}
		if c.Importance < 1 {
			c.Importance = 1
		}
		if c.Importance > 10 {
			c.Importance = 10
		}
		c.Tags = normalizeTags(c.Tags)
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.Timestamp.IsZero() {
			c.Timestamp = now
		}

		if at, ok := byID[c.ID]; ok {
			existing[at] = c
		} else {
			byID[c.ID] = len(existing)
			existing = append(existing, c)
		}
		ids = append(ids, c.ID)
	}

	if err := e.saveChunks(ctx, profileID, existing); err != nil {
		return nil, err
	}
	return ids, nil
}

// Memories returns all stored chunks for a profile.
func (e *Engine) Memories(ctx context.Context, profileID string) ([]MemoryChunk, error) {
	if profileID == "" {
		return nil, ErrInvalidProfileID
	}
	if e.store == nil {
		return nil, ErrStorageUnavailable
	}
	return e.loadChunks(ctx, profileID)
}

// Forget removes chunks by id. Unknown ids are ignored.
func (e *Engine) Forget(ctx context.Context, profileID string, ids []string) error {
	if profileID == "" {
		return ErrInvalidProfileID
	}
	if e.store == nil {
		return ErrStorageUnavailable
	}

	mu := e.profileLock(profileID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := e.loadChunks(ctx, profileID)
	if err != nil {
		return err
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := existing[:0]
	for _, c := range existing {
		if _, ok := drop[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	return e.saveChunks(ctx, profileID, kept)
}

func (e *Engine) loadChunks(ctx context.Context, profileID string) ([]MemoryChunk, error) {
	data, err := e.store.GetSetting(ctx, chunksKey(profileID))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: load chunks: %w", err)
	}

	var chunks []MemoryChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		e.logger.Warn("corrupt chunk store, resetting", "profile_id", profileID, "error", err)
		return nil, nil
	}
	return chunks, nil
}

func (e *Engine) saveChunks(ctx context.Context, profileID string, chunks []MemoryChunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("memory: marshal chunks: %w", err)
	}
	if err := e.store.SaveSetting(ctx, chunksKey(profileID), data); err != nil {
		return fmt.Errorf("memory: save chunks: %w", err)
	}
	return nil
}

// --- Selection ---

// Select retrieves the profile's chunks, snapshots its ratings, and runs the
// pure selection pipeline. A storage failure while loading ratings degrades
// to an empty rating table; a failure loading chunks is surfaced.
func (e *Engine) Select(ctx context.Context, profileID string, kernel PromptKernel, opts SelectOptions) ([]SelectedMemory, error) {
	if profileID == "" {
		return nil, ErrInvalidProfileID
	}
	if e.store == nil {
		return nil, ErrStorageUnavailable
	}

	chunks, err := e.loadChunks(ctx, profileID)
	if err != nil {
		return nil, err
	}

	ratings, err := e.LoadRatings(ctx, profileID)
	if err != nil {
		e.logger.Warn("selecting with empty ratings", "profile_id", profileID, "error", err)
		ratings = make(RatingTable)
	}

	start := time.Now()
	results := e.SelectFrom(chunks, kernel, ratings, opts)
	if e.metrics != nil {
		e.metrics.RecordSelection(profileID, len(chunks), len(results), time.Since(start))
	}

	e.logger.Debug("memory selection",
		"profile_id", profileID,
		"kernel_id", kernel.ID,
		"candidates", len(chunks),
		"selected", len(results),
	)
	return results, nil
}

// SelectFrom runs selection over a caller-supplied candidate set and rating
// snapshot, serializing access to the shared PRNG. It performs no I/O.
func (e *Engine) SelectFrom(memories []MemoryChunk, kernel PromptKernel, ratings RatingTable, opts SelectOptions) []SelectedMemory {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.selector.Select(memories, kernel, ratings, opts)
}

// normalizeTags lowercases tags, trims whitespace, and coalesces duplicates
// while preserving first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
