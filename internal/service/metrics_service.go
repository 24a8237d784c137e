package service

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsService owns the Prometheus registry and in-process counters used
// for the admin metrics snapshot.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	dbQueryTiming  *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	reportsCounter *prometheus.CounterVec

	totalRequests atomic.Int64
	totalHits     atomic.Int64
	totalMisses   atomic.Int64
	startedAt     time.Time
}

// MetricsSnapshot is the JSON view served to admins.
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptimeSeconds"`
	TotalRequests int64   `json:"totalRequests"`
	CacheHits     int64   `json:"cacheHits"`
	CacheMisses   int64   `json:"cacheMisses"`
	CacheHitRate  float64 `json:"cacheHitRate"`
}

// NewMetricsService builds the service with its own registry so tests can
// construct several instances without collector collisions.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distribution.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	dbQueryTiming := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Database query latency distribution.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache hit count.",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache miss count.",
	})

	reportsCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report export jobs by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(httpRequests, httpDuration, dbQueryTiming, cacheHits, cacheMisses, reportsCounter)

	return &MetricsService{
		registry:       registry,
		httpRequests:   httpRequests,
		httpDuration:   httpDuration,
		dbQueryTiming:  dbQueryTiming,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		reportsCounter: reportsCounter,
		startedAt:      time.Now(),
	}
}

// Registry exposes the registry for the /metrics handler.
func (s *MetricsService) Registry() *prometheus.Registry {
	return s.registry
}

// RecordHTTPRequest records one completed HTTP request.
func (s *MetricsService) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	s.httpRequests.WithLabelValues(method, path, status).Inc()
	s.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	s.totalRequests.Add(1)
}

// RecordDBQuery records one database query timing.
func (s *MetricsService) RecordDBQuery(query string, duration time.Duration) {
	s.dbQueryTiming.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordCacheHit increments cache hit counters.
func (s *MetricsService) RecordCacheHit() {
	s.cacheHits.Inc()
	s.totalHits.Add(1)
}

// RecordCacheMiss increments cache miss counters.
func (s *MetricsService) RecordCacheMiss() {
	s.cacheMisses.Inc()
	s.totalMisses.Add(1)
}

// RecordReportJob records a report job outcome (finished, failed).
func (s *MetricsService) RecordReportJob(outcome string) {
	s.reportsCounter.WithLabelValues(outcome).Inc()
}

// Snapshot returns the in-process counters for the admin endpoint.
func (s *MetricsService) Snapshot() MetricsSnapshot {
	hits := s.totalHits.Load()
	misses := s.totalMisses.Load()
	snapshot := MetricsSnapshot{
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		TotalRequests: s.totalRequests.Load(),
		CacheHits:     hits,
		CacheMisses:   misses,
	}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRate = float64(hits) / float64(total)
	}
	return snapshot
}
