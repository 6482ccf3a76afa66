// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ExpressedAi/Sidechain/pkg/api/events"
	"github.com/ExpressedAi/Sidechain/pkg/api/middleware"
	"github.com/ExpressedAi/Sidechain/pkg/api/response"
	"github.com/ExpressedAi/Sidechain/pkg/memory"
	"github.com/ExpressedAi/Sidechain/pkg/telemetry/tracing"
)

// MemoryHandler handles chunk-registry and selection endpoints.
type MemoryHandler struct {
	engine *memory.Engine
	logger memoryLogger
	events *events.Broadcaster
}

type memoryLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(engine *memory.Engine, log memoryLogger, broadcaster *events.Broadcaster) *MemoryHandler {
	return &MemoryHandler{
		engine: engine,
		logger: log,
		events: broadcaster,
	}
}

// --- Request/Response types ---

type rememberRequest struct {
	Chunks []memory.MemoryChunk `json:"chunks"`
}

type rememberResponse struct {
	IDs []string `json:"ids"`
}

type selectRequest struct {
	Kernel          memory.PromptKernel `json:"kernel"`
	Limit           int                 `json:"limit,omitempty"`
	BypassTagFilter bool                `json:"bypass_tag_filter,omitempty"`
	QueryTerms      []string            `json:"query_terms,omitempty"`
}

type selectResponse struct {
	Memories []memory.SelectedMemory `json:"memories"`
}

type forgetRequest struct {
	IDs []string `json:"ids"`
}

type forgetResponse struct {
	Deleted int `json:"deleted"`
}

// RememberMemories handles POST /api/v1/profiles/{profileID}/memories
func (h *MemoryHandler) RememberMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	requestID := middleware.GetRequestID(ctx)

	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}
	if len(req.Chunks) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "At least one chunk is required", requestID)
		return
	}

	ids, err := h.engine.Remember(ctx, profileID, req.Chunks)
	if err != nil {
		if errors.Is(err, memory.ErrEmptyContent) || errors.Is(err, memory.ErrInvalidProfileID) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), requestID)
			return
		}
		h.logger.Error("Failed to store chunks", "profile_id", profileID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to store chunks", requestID)
		return
	}

	if h.events != nil {
		h.events.BroadcastChunksStored(profileID, len(ids))
	}
	response.JSON(w, http.StatusCreated, rememberResponse{IDs: ids})
}

// ListMemories handles GET /api/v1/profiles/{profileID}/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")

	chunks, err := h.engine.Memories(ctx, profileID)
	if err != nil {
		h.logger.Error("Failed to list chunks", "profile_id", profileID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list chunks", middleware.GetRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"memories": chunks,
		"total":    len(chunks),
	})
}

// ForgetMemories handles DELETE /api/v1/profiles/{profileID}/memories
func (h *MemoryHandler) ForgetMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	requestID := middleware.GetRequestID(ctx)

	var req forgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}
	if len(req.IDs) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "At least one memory ID is required", requestID)
		return
	}

	if err := h.engine.Forget(ctx, profileID, req.IDs); err != nil {
		h.logger.Error("Failed to forget chunks", "profile_id", profileID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to forget chunks", requestID)
		return
	}

	response.JSON(w, http.StatusOK, forgetResponse{Deleted: len(req.IDs)})
}

// SelectMemories handles POST /api/v1/profiles/{profileID}/select
func (h *MemoryHandler) SelectMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	requestID := middleware.GetRequestID(ctx)

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}
	if req.Kernel.ID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Kernel ID is required", requestID)
		return
	}

	ctx, span := tracing.StartProfileSpan(ctx, "memory.select", profileID, req.Kernel.ID)
	defer span.End()

	results, err := h.engine.Select(ctx, profileID, req.Kernel, memory.SelectOptions{
		Limit:           req.Limit,
		BypassTagFilter: req.BypassTagFilter,
		QueryTerms:      req.QueryTerms,
	})
	if err != nil {
		h.logger.Error("Failed to select memories", "profile_id", profileID, "kernel_id", req.Kernel.ID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to select memories", requestID)
		return
	}

	tracing.AnnotateSelection(span, len(results))
	if h.events != nil {
		h.events.BroadcastMemorySelected(profileID, req.Kernel.ID, len(results))
	}
	if results == nil {
		results = []memory.SelectedMemory{}
	}
	response.JSON(w, http.StatusOK, selectResponse{Memories: results})
}
