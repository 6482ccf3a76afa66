package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_DisabledIsNoop(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	assert.False(t, m.Enabled())

	// No panics on a disabled manager.
	m.RecordSelection("p1", 10, 5, time.Millisecond)
	m.RecordFeedback(1)
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	m.IncActiveConnections()
	m.DecActiveConnections()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManager_RecordsAndExposes(t *testing.T) {
	m := NewManager(DefaultConfig())
	require.True(t, m.Enabled())

	m.RecordSelection("p1", 10, 5, 2*time.Millisecond)
	m.RecordFeedback(1)
	m.RecordFeedback(-1)
	m.RecordFeedback(0)
	m.RecordHTTPRequest("POST", "/api/v1/profiles/{profileID}/select", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	for _, metric := range []string{
		"sidechain_selections_total",
		"sidechain_selection_duration_seconds",
		"sidechain_feedback_events_total",
		"sidechain_http_requests_total",
	} {
		assert.True(t, strings.Contains(text, metric), "missing %s", metric)
	}
	assert.Contains(t, text, `reward="positive"`)
	assert.Contains(t, text, `reward="negative"`)
}
