package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes recorded by ObserveResolution.
const (
	OutcomeResolved       = "resolved"
	OutcomeNotFound       = "not_found"
	OutcomeConflict       = "conflict"
	OutcomeInvalidPicture = "invalid_picture"
	OutcomeNoGPS          = "no_gps"
	OutcomeTooFar         = "too_far"
	OutcomeError          = "error"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	resolutions          *prometheus.CounterVec
	verifiedDistance     prometheus.Histogram
	pointsAwarded        *prometheus.CounterVec
	pledgesDistributed   prometheus.Counter
	distributionFailures prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issue_resolutions_total",
		Help: "Resolution attempts by outcome",
	}, []string{"outcome"})

	verifiedDistance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "issue_resolution_distance_meters",
		Help:    "Distance between the issue and the resolution photo for accepted resolutions",
		Buckets: []float64{5, 10, 25, 50, 75, 100},
	})

	pointsAwarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Points credited to users by reason",
	}, []string{"reason"})

	pledgesDistributed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pledges_distributed_total",
		Help: "Pledges transitioned to distributed",
	})

	distributionFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pledge_distribution_failures_total",
		Help: "Pledge distributions that failed and were handed to reconciliation",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		resolutions, verifiedDistance, pointsAwarded, pledgesDistributed, distributionFailures,
		goroutines,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:             registry,
		handler:              handler,
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		resolutions:          resolutions,
		verifiedDistance:     verifiedDistance,
		pointsAwarded:        pointsAwarded,
		pledgesDistributed:   pledgesDistributed,
		distributionFailures: distributionFailures,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveResolution counts a resolution attempt. Accepted attempts also record the verified distance.
func (m *MetricsService) ObserveResolution(outcome string, distanceMeters float64) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeResolved {
		m.verifiedDistance.Observe(distanceMeters)
	}
}

// RecordPointsAwarded adds credited points under the award reason.
func (m *MetricsService) RecordPointsAwarded(reason string, points int) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsAwarded.WithLabelValues(reason).Add(float64(points))
}

// RecordPledgesDistributed counts pledges moved to distributed.
func (m *MetricsService) RecordPledgesDistributed(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.pledgesDistributed.Add(float64(count))
}

// RecordDistributionFailure counts a distribution handed over to reconciliation.
func (m *MetricsService) RecordDistributionFailure() {
	if m == nil {
		return
	}
	m.distributionFailures.Inc()
}
