package handlers

import (
	"net/http"
	"time"

	"github.com/ExpressedAi/Sidechain/pkg/api/response"
)

// StatusInfo holds the static service description reported by /status.
type StatusInfo struct {
	AppName     string
	Version     string
	Environment string
	StorageType string
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	info    StatusInfo
	started time.Time
	ready   func() bool
}

// NewHealthHandler creates a new health handler. The ready probe may be nil,
// in which case the service is considered ready once constructed.
func NewHealthHandler(info StatusInfo, ready func() bool) *HealthHandler {
	return &HealthHandler{
		info:    info,
		started: time.Now(),
		ready:   ready,
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe).
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || h.ready() {
		response.JSON(w, http.StatusOK, map[string]bool{
			"ready": true,
		})
		return
	}
	response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
		"ready": false,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"app":            h.info.AppName,
		"version":        h.info.Version,
		"environment":    h.info.Environment,
		"storage":        h.info.StorageType,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}
