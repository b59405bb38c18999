// Package server exposes the standard gRPC health service, reporting the
// availability of the backing store.
package server

import (
	"context"
	"net"
	"time"

	"crawler-middleware/internal/grpc/interceptors"
	"crawler-middleware/internal/logging"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall status
const ServiceName = "crawler-middleware"

// Pinger reports whether the store answers
type Pinger interface {
	Ready(ctx context.Context) error
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	pinger     Pinger
	metrics    *interceptors.MetricsCollector
	logger     logging.Logger
}

func NewServer(pinger Pinger, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithField("component", "grpc")

	metrics := interceptors.NewMetricsCollector()

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(metrics),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
			interceptors.StreamMetricsInterceptor(metrics),
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable reflection for debugging
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		pinger:     pinger,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start serves on lis until Stop is called
func (s *Server) Start(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// SetServing flips both the overall and the named service status
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// CheckStore pings the store once and updates the serving status
func (s *Server) CheckStore(ctx context.Context) bool {
	err := s.pinger.Ready(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Store ping failed; reporting NOT_SERVING")
	}
	s.SetServing(err == nil)
	return err == nil
}

// WatchStore re-checks the store every interval until ctx is done
func (s *Server) WatchStore(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			s.CheckStore(checkCtx)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// Stop reports NOT_SERVING to watchers and drains in-flight calls, closing
// them forcibly once ctx is done
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down gRPC server...")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("gRPC graceful stop timed out; closing connections")
		s.grpcServer.Stop()
	}

	s.metrics.LogSummary(s.logger)
}

// Metrics returns the per-method call counters
func (s *Server) Metrics() *interceptors.MetricsCollector {
	return s.metrics
}
