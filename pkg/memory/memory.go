// Package memory implements the Sidechain cognitive-memory retrieval core:
// lexical BM25+ scoring, scalar relevance signals, Bayesian per-(memory,
// kernel) utility ratings with Thompson-sampling exploration, and stochastic
// diversity-aware selection.
package memory

import (
	"errors"
)

// Sentinel errors for the memory system.
var (
	ErrInvalidProfileID   = errors.New("memory: invalid profile ID")
	ErrInvalidKernelID    = errors.New("memory: invalid kernel ID")
	ErrEmptyContent       = errors.New("memory: empty chunk content")
	ErrNotFound           = errors.New("memory: entry not found")
	ErrStorageUnavailable = errors.New("memory: storage not configured")
)
