package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almanara-academy/courses-api/internal/tier"
)

func TestMetricsExposesTierCounters(t *testing.T) {
	m := NewMetricsService()
	m.TierServed("courses", tier.File)
	m.TierFailed("courses", tier.MySQL)
	m.ObserveHTTPRequest(http.MethodGet, "/api/courses", http.StatusOK, 5*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `persistence_tier_served_total{entity="courses",tier="file"} 1`)
	assert.Contains(t, body, `persistence_tier_failures_total{entity="courses",tier="mysql"} 1`)
	assert.Contains(t, body, "http_requests_total")
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.TierServed("courses", tier.File)
	m.TierFailed("courses", tier.MySQL)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
