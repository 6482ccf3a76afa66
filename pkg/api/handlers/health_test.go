package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(StatusInfo{AppName: "sidechain"}, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_Ready(t *testing.T) {
	ready := false
	h := NewHealthHandler(StatusInfo{}, func() bool { return ready })

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_Status(t *testing.T) {
	h := NewHealthHandler(StatusInfo{
		AppName:     "sidechain",
		Version:     "1.2.3",
		Environment: "production",
		StorageType: "badger",
	}, nil)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "sidechain", status["app"])
	assert.Equal(t, "1.2.3", status["version"])
	assert.Equal(t, "badger", status["storage"])
}
