// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/specbot/kickbot/pkg/common"
	"github.com/specbot/kickbot/pkg/state"
)

const (
	// BotService is the health service name that follows the bot status.
	BotService = "kickbot.Bot"
	// LedgerService is the health service name of the Redis ledger.
	LedgerService = "kickbot.Ledger"

	ledgerCheckInterval = 15 * time.Second
)

// Pinger is a dependency whose reachability is reported as a health service.
type Pinger interface {
	Check(ctx context.Context) error
}

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	port   int
	status *state.BotStatus
	ledger Pinger
	stop   context.CancelFunc
}

// NewGRPCServer creates a new gRPC server instance. ledger may be nil.
func NewGRPCServer(port int, status *state.BotStatus, ledger Pinger) *GRPCServer {
	return &GRPCServer{
		port:   port,
		status: status,
		ledger: ledger,
	}
}

// Setup configures the gRPC server with interceptors and health checks.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// The bot serves no API of its own. The server exists for:
// 1. Health checks (overall, bot status, ledger)
// 2. Reflection, so grpcurl can list the above
//
// The overall and BotService statuses are NOT_SERVING while the
// game is crashed and SERVING otherwise.
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
	s.setBotStatus(s.status.Get())
	s.status.OnChange(func(_, to state.Status) {
		s.setBotStatus(to)
	})

	reflection.Register(s.server)
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

func (s *GRPCServer) setBotStatus(st state.Status) {
	serving := servingStatus(st)
	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(BotService, serving)
}

func servingStatus(st state.Status) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if st == state.Crashed {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}

// Health returns the health server, for in-process checks.
func (s *GRPCServer) Health() *health.Server {
	return s.health
}

// CheckLedger refreshes the ledger health status once.
func (s *GRPCServer) CheckLedger(ctx context.Context) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Check(ctx); err != nil {
		s.health.SetServingStatus(LedgerService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.health.SetServingStatus(LedgerService, grpc_health_v1.HealthCheckResponse_SERVING)
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

	if s.ledger != nil {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.stop = cancel
		go s.watchLedger(watchCtx)
	}

	return nil
}

func (s *GRPCServer) watchLedger(ctx context.Context) {
	ticker := time.NewTicker(ledgerCheckInterval)
	defer ticker.Stop()

	for {
		s.CheckLedger(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	if s.stop != nil {
		s.stop()
	}
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
