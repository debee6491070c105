package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/almanara-academy/courses-api/internal/tier"
)

// MetricsService encapsulates Prometheus instrumentation. It implements
// tier.Observer so every fallback transition is counted.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	tierServed      *prometheus.CounterVec
	tierFailed      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	tierServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "persistence_tier_served_total",
		Help: "Operations served per entity and persistence tier",
	}, []string{"entity", "tier"})

	tierFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "persistence_tier_failures_total",
		Help: "Tier failures that triggered a fallback",
	}, []string{"entity", "tier"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, tierServed, tierFailed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		tierServed:      tierServed,
		tierFailed:      tierFailed,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// TierServed implements tier.Observer.
func (m *MetricsService) TierServed(entity string, t tier.Tier) {
	if m == nil {
		return
	}
	m.tierServed.WithLabelValues(entity, string(t)).Inc()
}

// TierFailed implements tier.Observer.
func (m *MetricsService) TierFailed(entity string, t tier.Tier) {
	if m == nil {
		return
	}
	m.tierFailed.WithLabelValues(entity, string(t)).Inc()
}
