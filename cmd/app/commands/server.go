package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/kbsync/internal/app"
	"github.com/allisson/kbsync/internal/config"
)

// RunServer starts the HTTP server, the metrics server and the background
// workers (outbox dispatcher, reconciliation scanner, retention sweeper).
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal server error,
// then shuts everything down gracefully.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	dispatcher, err := container.Dispatcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	reconciler, err := container.Reconciler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize reconciler: %w", err)
	}

	sweeper, err := container.Sweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Servers
	g.Go(func() error {
		if err := server.Start(gCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	// Background workers; each loop exits when the group context is cancelled.
	g.Go(func() error {
		dispatcher.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		sweeper.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		runReconcileLoop(gCtx, reconciler, cfg.ReconcileInterval, logger)
		return nil
	})

	// Shut the servers down once the group context is cancelled, either by a
	// signal or by a failing server.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error

		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}

		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}

// runReconcileLoop runs reconciliation scans on a fixed interval until the
// context is cancelled. Scan failures are logged and the loop keeps going.
func runReconcileLoop(
	ctx context.Context,
	reconciler reconcileRunner,
	interval time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reconciler.Scan(ctx, time.Now().UTC()); err != nil {
				logger.ErrorContext(ctx, "reconciliation scan failed", slog.Any("error", err))
			}
		}
	}
}
