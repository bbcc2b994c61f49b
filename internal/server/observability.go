// Observability middleware and HTTP server for metrics and profiling
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/nainya/postfilter/internal/logger"
	"github.com/nainya/postfilter/internal/metrics"
)

// MetricsInterceptor creates a gRPC interceptor for metrics and logging
func MetricsInterceptor(m *metrics.Metrics, log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		m.GrpcRequestsInFlight.Inc()
		defer m.GrpcRequestsInFlight.Dec()

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		m.RecordGrpcRequest(info.FullMethod, status.Code(err).String(), duration)
		log.LogGrpcRequest(info.FullMethod, duration, err)

		return resp, err
	}
}

// ObservabilityServer provides HTTP endpoints for metrics and profiling
type ObservabilityServer struct {
	server *http.Server
	log    *logger.Logger
	ready  atomic.Bool
}

// NewObservabilityServer creates a new HTTP server for observability.
// Metrics are served from gatherer; nil uses prometheus.DefaultGatherer.
func NewObservabilityServer(port int, gatherer prometheus.Gatherer, log *logger.Logger) *ObservabilityServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	o := &ObservabilityServer{log: log}

	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"postfilter"}`))
	})

	// Readiness check endpoint
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !o.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"starting"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	o.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return o
}

// Handler returns the HTTP handler serving every endpoint
func (o *ObservabilityServer) Handler() http.Handler {
	return o.server.Handler
}

// SetReady flips the /ready endpoint
func (o *ObservabilityServer) SetReady(ready bool) {
	o.ready.Store(ready)
}

// Start starts the observability HTTP server
func (o *ObservabilityServer) Start() error {
	o.log.Info("Starting observability server").
		Str("addr", o.server.Addr).
		Str("metrics", fmt.Sprintf("http://%s/metrics", o.server.Addr)).
		Str("pprof", fmt.Sprintf("http://%s/debug/pprof/", o.server.Addr)).
		Send()

	if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("observability server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the observability server
func (o *ObservabilityServer) Shutdown(ctx context.Context) error {
	o.log.Info("Shutting down observability server").Send()
	o.SetReady(false)
	return o.server.Shutdown(ctx)
}
