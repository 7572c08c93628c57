// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// Run starts the application and blocks until a shutdown signal is received
// or the supervisor gives up.
func (a *App) Run(ctx context.Context) error {
	// Start servers
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	// The supervisor outlives the signal so Shutdown can stop it last.
	supervisorCtx, stopSupervisor := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSupervisor()
	supervisorErr := a.supervisor.ServeBackground(supervisorCtx)

	logrus.Info("application started successfully")

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Info("shutdown signal received")
	case err := <-supervisorErr:
		logrus.Errorf("supervisor stopped: %v", err)
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	shutdownErr := a.Shutdown(shutdownCtx, func() {
		stopSupervisor()
		select {
		case err := <-supervisorErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logrus.Errorf("supervisor stop error: %v", err)
			}
		case <-shutdownCtx.Done():
			logrus.Warn("supervisor did not stop before the shutdown deadline")
		}
	})
	return errors.Join(runErr, shutdownErr)
}

// Shutdown gracefully shuts down all application components. stopServices
// stops the supervised services; it may be nil.
//
// ============================================================
// DEVELOPER: Shutdown order is critical
// ============================================================
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (gRPC + metrics servers)
// 2. Tear down tenant sessions (emits their terminal events)
// 3. Wait for in-flight enforcement (emits automod-action)
// 4. Stop supervised services (the bus drains queued events)
// 5. Close external connections (NATS, Redis)
// 6. Flush telemetry data (OpenTelemetry)
//
// IMPORTANT: Shutdown errors are logged but don't stop the
// shutdown sequence. Each component gets a chance to clean up.
// ============================================================
func (a *App) Shutdown(ctx context.Context, stopServices func()) error {
	logrus.Info("shutting down application...")

	var errs []error
	record := func(component string, err error) {
		if err != nil {
			logrus.Errorf("%s shutdown error: %v", component, err)
			errs = append(errs, err)
		}
	}

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if a.grpcServer != nil {
		record("gRPC server", a.grpcServer.Shutdown(ctx))
	}
	if a.metricsServer != nil {
		record("metrics server", a.metricsServer.Shutdown(ctx))
	}

	// ============================================================
	// Step 2 and 3: Tenant sessions, then enforcement
	// ============================================================
	if a.connections != nil {
		record("connection manager", a.connections.Shutdown(ctx))
	}
	if a.executor != nil {
		record("action executor", a.executor.Shutdown(ctx))
	}

	// ============================================================
	// Step 4: Stop supervised services
	// ============================================================
	if stopServices != nil {
		stopServices()
	}

	// ============================================================
	// Step 5: Close external connections
	// ============================================================
	// DEVELOPER: Add custom service cleanup here
	// ============================================================
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			logrus.Warnf("NATS drain error: %v", err)
			a.natsConn.Close()
		}
	}
	if a.redisClient != nil {
		record("Redis", a.redisClient.Close())
	}

	// ============================================================
	// Step 6: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		record("telemetry", a.shutdownTelemetry(ctx))
	}

	logrus.Info("application shutdown complete")
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
	return errors.Join(errs...)
}
