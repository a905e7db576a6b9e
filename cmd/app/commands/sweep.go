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

// sweepRunner is the subset of the sweeper used by the one-shot command.
type sweepRunner interface {
	Sweep(ctx context.Context, now time.Time) (*outboxDomain.SweepReport, error)
}

// RunSweepOutbox deletes processed and dead-lettered outbox events past their
// retention windows, then exits.
//
// Requirements: Database must be migrated and accessible.
func RunSweepOutbox(ctx context.Context, format string) error {
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

	sweeper, err := container.Sweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	return sweepOutbox(ctx, sweeper, logger, os.Stdout, format)
}

// sweepOutbox runs one sweep and writes the report to w.
func sweepOutbox(
	ctx context.Context,
	sweeper sweepRunner,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	report, err := sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to sweep outbox: %w", err)
	}

	if format == "json" {
		outputSweepJSON(w, report)
	} else {
		outputSweepText(w, report)
	}

	logger.InfoContext(ctx, "outbox sweep completed",
		slog.Int64("processed_deleted", report.ProcessedDeleted),
		slog.Int64("dead_letter_deleted", report.DeadLetterDeleted),
	)

	return nil
}

// outputSweepText writes the report in human-readable text format.
func outputSweepText(w io.Writer, report *outboxDomain.SweepReport) {
	fmt.Fprintf(w, "Deleted %d processed and %d dead-lettered event(s)\n",
		report.ProcessedDeleted, report.DeadLetterDeleted)
}

// outputSweepJSON writes the report in JSON format for machine consumption.
func outputSweepJSON(w io.Writer, report *outboxDomain.SweepReport) {
	result := map[string]interface{}{
		"processed_deleted":   report.ProcessedDeleted,
		"dead_letter_deleted": report.DeadLetterDeleted,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
