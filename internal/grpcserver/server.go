package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
)

const ServiceName = "rentwear.Listings"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health service. The serving status of
// ServiceName and of the overall server follows periodic database pings.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	pinger   Pinger
	logger   *zap.Logger
	interval time.Duration
}

func NewServer(pinger Pinger, logger *zap.Logger, interval time.Duration) *Server {
	s := &Server{
		health:   health.NewServer(),
		pinger:   pinger,
		logger:   logger.Named("grpc"),
		interval: interval,
	}
	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(s.logCall))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) Run(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", port, err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping gRPC server")
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	return nil
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("database ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) logCall(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l := s.logger.With(zap.String("rpc_method", info.FullMethod), zap.Duration("duration", time.Since(start)))
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("grpc").Inc()
		l.Warn("RPC failed", zap.Stringer("code", status.Code(err)), zap.Error(err))
		return resp, err
	}
	l.Debug("RPC served")
	return resp, nil
}
