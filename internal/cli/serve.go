package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/postfilter/internal/config"
	"github.com/nainya/postfilter/internal/logger"
	"github.com/nainya/postfilter/internal/metrics"
	"github.com/nainya/postfilter/internal/server"
	"github.com/nainya/postfilter/pkg/query"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC filter service",
		Long: `Start the postfilter gRPC service together with an HTTP server exposing
/metrics, /health, /ready and /debug/pprof. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Serve(ctx, GetConfig(cmd.Context()), GetLogger(cmd.Context()))
		},
	}

	cmd.Flags().Int("grpc-port", config.DefaultGRPCPort, "gRPC listen port")
	cmd.Flags().Int("metrics-port", config.DefaultMetricsPort, "Metrics and health port (0 disables)")
	cmd.Flags().String("numeric-policy", config.DefaultNumericPolicy, "Handling of unparseable numbers and dates (lenient|strict)")
	cmd.Flags().Int("concurrency", 0, "Items evaluated in parallel per query (0 = GOMAXPROCS)")

	return cmd
}

// Serve runs the gRPC and observability servers until ctx is cancelled
func Serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.LogServerStart(cfg.GRPCPort, cfg.MetricsPort)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)
	defer m.Close()

	eval := cfg.Evaluator()
	engine := query.NewEngine(
		query.WithEvaluator(eval),
		query.WithConcurrency(cfg.Query.Concurrency),
		query.WithLogger(*log.EngineLogger("query").GetZerolog()),
		query.WithRecorder(m),
	)
	srv := server.NewServer(
		server.WithEvaluator(eval),
		server.WithEngine(engine),
		server.WithLogger(log),
		server.WithBlacklist(cfg.Blacklist.Entries),
		server.WithInvertBlacklist(cfg.Blacklist.Invert),
		server.WithDefaultLimit(cfg.Query.Limit),
	)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.MetricsInterceptor(m, log)),
		grpc.MaxRecvMsgSize(64*1024*1024),
	)
	server.RegisterPostFilterServer(grpcServer, srv)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	var obs *server.ObservabilityServer
	if cfg.MetricsPort != 0 {
		obs = server.NewObservabilityServer(cfg.MetricsPort, reg, log)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.LogServerReady(cfg.GRPCPort)
		if obs != nil {
			obs.SetReady(true)
		}
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	if obs != nil {
		g.Go(obs.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.LogServerShutdown()
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if obs != nil {
			if err := obs.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
