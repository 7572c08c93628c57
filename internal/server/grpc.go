// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/common"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DefaultHealthInterval is how often dependency health is re-checked.
const DefaultHealthInterval = 10 * time.Second

// HealthCheck is one dependency reported through the gRPC health service.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	port     int
	checks   []HealthCheck
	interval time.Duration
}

// NewGRPCServer creates a new gRPC server instance.
func NewGRPCServer(port int, checks ...HealthCheck) *GRPCServer {
	return &GRPCServer{
		port:     port,
		checks:   checks,
		interval: DefaultHealthInterval,
	}
}

// Setup configures the gRPC server with interceptors and the health service.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// This method sets up:
// 1. Interceptors (logging, auth, rate limiting, etc.)
// 2. Server features (reflection, health checks)
//
// The game client talks to the guard over NATS; gRPC only serves
// health and reflection for Kubernetes health checks and grpcurl.
// ============================================================
func (s *GRPCServer) Setup() error {
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	// Create server with OpenTelemetry instrumentation
	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	s.health = health.NewServer()
	reflection.Register(s.server)
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// Start begins listening and serving gRPC requests.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	go func() {
		logrus.Infof("gRPC server listening on port %d", s.port)
		if err := s.server.Serve(lis); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	return nil
}

// Serve keeps the health service in line with the dependency checks until
// ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.updateHealth(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String implements fmt.Stringer for the supervisor.
func (s *GRPCServer) String() string {
	return "grpc-health"
}

func (s *GRPCServer) updateHealth(ctx context.Context) {
	overall := grpc_health_v1.HealthCheckResponse_SERVING
	for _, check := range s.checks {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if err := check.Check(ctx); err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			overall = status
		}
		s.health.SetServingStatus(check.Name(), status)
	}
	s.health.SetServingStatus("", overall)
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
