package memory

import (
	"time"
)

// MemoryChunk is an atomic retrievable unit of memory. Chunks are immutable
// once stored; the selection core never mutates them.
type MemoryChunk struct {
	// ID is the unique identifier within a profile.
	ID string `json:"id"`

	// Content is the raw text of the memory, typically 1-3 sentences.
	Content string `json:"content"`

	// Tags are short lowercase labels. Compared case-insensitively.
	Tags []string `json:"tags,omitempty"`

	// Importance is a 1..10 stability/value signal, clamped at ingress.
	Importance int `json:"importance"`

	// Timestamp is the creation instant.
	Timestamp time.Time `json:"timestamp"`

	// Associations are IDs of co-occurring chunks. Only the degree count
	// feeds the centrality signal.
	Associations []string `json:"associations,omitempty"`

	// EpisodeID is an optional grouping tag, passed through untouched.
	EpisodeID string `json:"episode_id,omitempty"`
}

// PromptKernel describes a class of query. Its ID is the second axis of the
// learned rating key, usually a thread or task id.
type PromptKernel struct {
	// ID is the stable identifier for this class of query.
	ID string `json:"id"`

	// Name and Prompt are concatenated into the lexical query.
	Name   string `json:"name"`
	Prompt string `json:"prompt"`

	// Keywords are short lowercase labels used for tag pre-filtering and the
	// tag-relevance signal.
	Keywords []string `json:"keywords,omitempty"`
}

// MemoryRating is the learned utility estimate for one (memory, kernel) pair.
type MemoryRating struct {
	MemoryID string `json:"memory_id"`
	KernelID string `json:"kernel_id"`

	// Mu is the posterior mean utility.
	Mu float64 `json:"mu"`

	// Sigma is the posterior standard deviation, kept within [0.1, 2.0].
	Sigma float64 `json:"sigma"`

	// Uses counts feedback events applied to this rating.
	Uses int `json:"uses"`

	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// MemoryInteraction is an append-only feedback record.
type MemoryInteraction struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memory_id"`
	KernelID  string    `json:"kernel_id"`
	ContextID string    `json:"context_id"`
	Reward    int       `json:"reward"`
	Timestamp time.Time `json:"timestamp"`
}

// Signals holds the per-signal diagnostics for a selected memory. Every
// component lies in [0, 1].
type Signals struct {
	Importance   float64 `json:"importance"`
	TagRelevance float64 `json:"tag_relevance"`
	Lexical      float64 `json:"lexical"`
	Recency      float64 `json:"recency"`
	Centrality   float64 `json:"centrality"`
	Thompson     float64 `json:"thompson"`
}

// SelectedMemory is one selection result with its composite score and the
// signal breakdown that produced it.
type SelectedMemory struct {
	MemoryID string   `json:"memory_id"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	Score    float64  `json:"score"`
	Signals  Signals  `json:"signals"`
}

// SelectOptions tunes a single selection call.
type SelectOptions struct {
	// Limit is the maximum number of results. When <= 0 the selector's
	// DefaultLimit applies (20 unless configured otherwise).
	Limit int `json:"limit,omitempty"`

	// BypassTagFilter disables the keyword/tag pre-filter.
	BypassTagFilter bool `json:"bypass_tag_filter,omitempty"`

	// QueryTerms are extra terms appended to the lexical query.
	QueryTerms []string `json:"query_terms,omitempty"`
}

// Reward pairs a memory id with an explicit feedback value in {-1, 0, 1}.
type Reward struct {
	MemoryID string `json:"memory_id"`
	Reward   int    `json:"reward"`
}
