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

// LearningHandler handles feedback, usage, and learned-state endpoints.
type LearningHandler struct {
	engine *memory.Engine
	logger memoryLogger
	events *events.Broadcaster
}

// NewLearningHandler creates a new learning handler.
func NewLearningHandler(engine *memory.Engine, log memoryLogger, broadcaster *events.Broadcaster) *LearningHandler {
	return &LearningHandler{
		engine: engine,
		logger: log,
		events: broadcaster,
	}
}

type feedbackRequest struct {
	KernelID  string          `json:"kernel_id"`
	ContextID string          `json:"context_id"`
	Rewards   []memory.Reward `json:"rewards"`
}

type usageRequest struct {
	KernelID  string   `json:"kernel_id"`
	ContextID string   `json:"context_id"`
	MemoryIDs []string `json:"memory_ids"`
}

type appliedResponse struct {
	Applied int `json:"applied"`
}

// ApplyFeedback handles POST /api/v1/profiles/{profileID}/feedback
func (h *LearningHandler) ApplyFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	requestID := middleware.GetRequestID(ctx)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}
	if req.KernelID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Kernel ID is required", requestID)
		return
	}
	if len(req.Rewards) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "At least one reward is required", requestID)
		return
	}

	ctx, span := tracing.StartProfileSpan(ctx, "memory.feedback", profileID, req.KernelID)
	defer span.End()
	tracing.AnnotateFeedback(span, len(req.Rewards))

	if err := h.engine.ApplyFeedback(ctx, profileID, req.KernelID, req.ContextID, req.Rewards); err != nil {
		h.handleLearningError(w, err, profileID, requestID, "Failed to apply feedback")
		return
	}

	if h.events != nil {
		h.events.BroadcastFeedbackApplied(profileID, req.KernelID, req.ContextID, len(req.Rewards))
	}
	response.JSON(w, http.StatusOK, appliedResponse{Applied: len(req.Rewards)})
}

// RecordUsage handles POST /api/v1/profiles/{profileID}/usage
func (h *LearningHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	requestID := middleware.GetRequestID(ctx)

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}
	if req.KernelID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Kernel ID is required", requestID)
		return
	}
	if len(req.MemoryIDs) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "At least one memory ID is required", requestID)
		return
	}

	ctx, span := tracing.StartProfileSpan(ctx, "memory.usage", profileID, req.KernelID)
	defer span.End()
	tracing.AnnotateFeedback(span, len(req.MemoryIDs))

	if err := h.engine.RecordUsage(ctx, profileID, req.KernelID, req.ContextID, req.MemoryIDs); err != nil {
		h.handleLearningError(w, err, profileID, requestID, "Failed to record usage")
		return
	}

	if h.events != nil {
		h.events.BroadcastFeedbackApplied(profileID, req.KernelID, req.ContextID, len(req.MemoryIDs))
	}
	response.JSON(w, http.StatusOK, appliedResponse{Applied: len(req.MemoryIDs)})
}

// GetRatings handles GET /api/v1/profiles/{profileID}/ratings
func (h *LearningHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")

	ratings, err := h.engine.Ratings(ctx, profileID)
	if err != nil {
		h.handleLearningError(w, err, profileID, middleware.GetRequestID(ctx), "Failed to load ratings")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"ratings": ratings,
		"total":   len(ratings),
	})
}

// GetInteractions handles GET /api/v1/profiles/{profileID}/interactions
func (h *LearningHandler) GetInteractions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")

	interactions, err := h.engine.Interactions(ctx, profileID)
	if err != nil {
		h.handleLearningError(w, err, profileID, middleware.GetRequestID(ctx), "Failed to load interactions")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"interactions": interactions,
		"total":        len(interactions),
	})
}

func (h *LearningHandler) handleLearningError(w http.ResponseWriter, err error, profileID, requestID, message string) {
	switch {
	case errors.Is(err, memory.ErrInvalidProfileID), errors.Is(err, memory.ErrInvalidKernelID):
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), requestID)
	case errors.Is(err, memory.ErrStorageUnavailable):
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, err.Error(), requestID)
	default:
		h.logger.Error(message, "profile_id", profileID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, message, requestID)
	}
}
