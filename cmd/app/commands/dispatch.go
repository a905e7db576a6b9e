package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/allisson/kbsync/internal/app"
	"github.com/allisson/kbsync/internal/config"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// dispatchRunner is the subset of the dispatcher used by the one-shot command.
type dispatchRunner interface {
	DispatchBatch(ctx context.Context, now time.Time) (*outboxDomain.DispatchReport, error)
}

// RunDispatchEvents claims and processes a single batch of pending outbox
// events, then exits. Useful for cron-style deployments and manual draining.
//
// Requirements: Database must be migrated and accessible.
func RunDispatchEvents(ctx context.Context, format string) error {
	if err := validFormat(format); err != nil {
		return err
	}

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	dispatcher, err := container.Dispatcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	return dispatchEvents(ctx, dispatcher, logger, os.Stdout, format)
}

// dispatchEvents runs one dispatch tick and writes the report to w.
func dispatchEvents(
	ctx context.Context,
	dispatcher dispatchRunner,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	report, err := dispatcher.DispatchBatch(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to dispatch events: %w", err)
	}

	if format == "json" {
		outputDispatchJSON(w, report)
	} else {
		outputDispatchText(w, report)
	}

	logger.InfoContext(ctx, "dispatch tick completed",
		slog.Int("claimed", report.Claimed),
		slog.Int("processed", report.Processed),
		slog.Int("failed", report.Failed),
		slog.Int("dead_lettered", report.DeadLettered),
	)

	return nil
}

// outputDispatchText writes the report in human-readable text format.
func outputDispatchText(w io.Writer, report *outboxDomain.DispatchReport) {
	fmt.Fprintf(w, "Claimed %d event(s): %d processed, %d failed, %d dead-lettered, %d unregistered\n",
		report.Claimed, report.Processed, report.Failed, report.DeadLettered, report.Unregistered)
}

// outputDispatchJSON writes the report in JSON format for machine consumption.
func outputDispatchJSON(w io.Writer, report *outboxDomain.DispatchReport) {
	result := map[string]interface{}{
		"claimed":       report.Claimed,
		"processed":     report.Processed,
		"failed":        report.Failed,
		"dead_lettered": report.DeadLettered,
		"unregistered":  report.Unregistered,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
