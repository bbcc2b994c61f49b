// Package metrics provides Prometheus metrics for postfilter
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for evaluated items
const (
	OutcomeMatched  = "matched"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics for postfilter
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Evaluation metrics
	ItemsEvaluatedTotal *prometheus.CounterVec
	BlacklistHitsTotal  prometheus.Counter

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		ServerStartTime: time.Now(),
		stop:            make(chan struct{}),
	}

	// gRPC request metrics
	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfilter_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postfilter_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "postfilter_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	// Evaluation metrics
	m.ItemsEvaluatedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfilter_items_evaluated_total",
			Help: "Total number of items evaluated by batch queries",
		},
		[]string{"outcome"},
	)

	m.BlacklistHitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "postfilter_blacklist_hits_total",
			Help: "Total number of blacklist entries triggered",
		},
	)

	// Server metrics
	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "postfilter_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	go m.updateUptime(10 * time.Second)

	return m
}

// updateUptime periodically updates the server uptime metric
func (m *Metrics) updateUptime(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordItem records one evaluated item. It satisfies query.Recorder.
func (m *Metrics) RecordItem(matched bool, blacklistHits int) {
	outcome := OutcomeRejected
	if matched {
		outcome = OutcomeMatched
	}
	m.ItemsEvaluatedTotal.WithLabelValues(outcome).Inc()
	if blacklistHits > 0 {
		m.BlacklistHitsTotal.Add(float64(blacklistHits))
	}
}
