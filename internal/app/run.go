// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/service"
)

// shutdownTimeout bounds the graceful shutdown once a signal arrived.
const shutdownTimeout = 30 * time.Second

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start starts the servers and the bot loops without blocking.
func (a *App) Start(ctx context.Context) error {
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	a.announce(ctx, service.Event{Kind: service.EventMonitoringStarted, At: a.stats.StartedAt()})
	a.startLoops(ctx)

	logrus.Info("application started successfully")
	return nil
}

// Shutdown gracefully shuts down all application components.
//
// ============================================================
// DEVELOPER: Shutdown order is critical
// ============================================================
// Components are shut down in reverse dependency order:
//  1. Stop the bot loops and wait for in-flight perception and
//     kicks, then announce the session totals
//  2. Stop accepting new requests (gRPC + metrics servers)
//  3. Close external connections (ledger, perception, Redis)
//  4. Flush telemetry data (OpenTelemetry)
//
// IMPORTANT: Shutdown errors are logged but don't stop the
// shutdown sequence. Each component gets a chance to clean up.
// ============================================================
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// ============================================================
	// Step 1: Stop the bot
	// ============================================================
	a.stopLoopsAndWait()
	a.announce(ctx, service.Event{
		Kind:          service.EventShutdown,
		Uptime:        time.Since(a.stats.StartedAt()),
		PlayersKicked: a.stats.PlayersKicked(),
	})

	// ============================================================
	// Step 2: Shutdown servers (stop accepting new requests)
	// ============================================================
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("gRPC server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	// ============================================================
	// Step 3: Close external connections
	// ============================================================
	a.closeConnections()

	// ============================================================
	// Step 4: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
