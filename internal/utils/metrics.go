package utils

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector tracks request, error and per-operation latency metrics.
// Counts are kept locally for the health endpoint and mirrored into Prometheus.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64
	userActors   int

	systemStartTime time.Time

	registry  *prometheus.Registry
	requests  prometheus.Counter
	errors    prometheus.Counter
	latencies *prometheus.HistogramVec
	actors    prometheus.Gauge
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		systemStartTime: time.Now(),
		registry:        prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "requests_total",
			Help:      "Total number of handled API requests.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "errors_total",
			Help:      "Total number of failed engine operations.",
		}),
		latencies: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsroom",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		actors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "newsroom",
			Name:      "user_actors",
			Help:      "Per-user actors currently alive.",
		}),
	}
	mc.registry.MustRegister(
		mc.requests,
		mc.errors,
		mc.latencies,
		mc.actors,
		prometheus.NewGoCollector(),
	)
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	mc.requestCount++
	mc.mu.Unlock()
	mc.requests.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	mc.errorCount++
	mc.mu.Unlock()
	mc.errors.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.latencies.WithLabelValues(operationName).Observe(duration.Seconds())
}

// SetUserActors records how many per-user actors are alive.
func (mc *MetricsCollector) SetUserActors(n int) {
	mc.mu.Lock()
	mc.userActors = n
	mc.mu.Unlock()
	mc.actors.Set(float64(n))
}

// Registry exposes the collector's Prometheus registry for the /metrics handler.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Snapshot is the summary reported by the health endpoint.
type Snapshot struct {
	Requests   uint64 `json:"requests"`
	Errors     uint64 `json:"errors"`
	UserActors int    `json:"userActors"`
	Uptime     string `json:"uptime"`
}

func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return Snapshot{
		Requests:   mc.requestCount,
		Errors:     mc.errorCount,
		UserActors: mc.userActors,
		Uptime:     time.Since(mc.systemStartTime).Round(time.Second).String(),
	}
}
