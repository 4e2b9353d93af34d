package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	nimAllocationsTotal  *prometheus.CounterVec
	nimCollisionsTotal   *prometheus.CounterVec
	transcriptCacheTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akademik_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "akademik_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akademik_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		nimAllocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akademik_nim_allocations_total",
			Help: "Student identifiers handed out, by allocation strategy and program.",
		}, []string{"strategy", "program"})

		nimCollisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akademik_nim_collisions_total",
			Help: "Student inserts rejected because the allocated identifier already existed.",
		}, []string{"program"})

		transcriptCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akademik_transcript_cache_total",
			Help: "Transcript cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			nimAllocationsTotal,
			nimCollisionsTotal,
			transcriptCacheTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// NIMAllocations exposes the identifier allocation counter.
func NIMAllocations() *prometheus.CounterVec {
	RegisterMetrics()
	return nimAllocationsTotal
}

// NIMCollisions exposes the duplicate identifier counter.
func NIMCollisions() *prometheus.CounterVec {
	RegisterMetrics()
	return nimCollisionsTotal
}

// TranscriptCache exposes the transcript cache hit/miss counter.
func TranscriptCache() *prometheus.CounterVec {
	RegisterMetrics()
	return transcriptCacheTotal
}

// Handler serves the Prometheus scrape endpoint through Fiber.
func Handler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
