package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/allisson/kbsync/internal/app"
	"github.com/allisson/kbsync/internal/config"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// statsRunner is the subset of the stats use case used by the command.
type statsRunner interface {
	Stats(ctx context.Context, now time.Time) (*outboxDomain.Stats, error)
}

// RunOutboxStats prints a read-only outbox health snapshot and exits.
//
// Requirements: Database must be migrated and accessible.
func RunOutboxStats(ctx context.Context, format string) error {
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

	statsUseCase, err := container.StatsUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize stats use case: %w", err)
	}

	return outboxStats(ctx, statsUseCase, os.Stdout, format)
}

// outboxStats fetches the snapshot and writes it to w.
func outboxStats(ctx context.Context, statsUseCase statsRunner, w io.Writer, format string) error {
	stats, err := statsUseCase.Stats(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to fetch outbox stats: %w", err)
	}

	if format == "json" {
		outputStatsJSON(w, stats)
	} else {
		outputStatsText(w, stats)
	}

	return nil
}

// outputStatsText writes the snapshot in human-readable text format.
func outputStatsText(w io.Writer, stats *outboxDomain.Stats) {
	fmt.Fprintf(w, "Pending events:        %d\n", stats.PendingEvents)
	fmt.Fprintf(w, "Failed events:         %d\n", stats.FailedEvents)
	fmt.Fprintf(w, "Processed last hour:   %d\n", stats.ProcessedLastHour)
	fmt.Fprintf(w, "Processed last 24h:    %d\n", stats.ProcessedLast24h)
	fmt.Fprintf(w, "Queue depth:           %d\n", stats.QueueDepth)
	fmt.Fprintf(w, "Avg processing time:   %.2fms\n", stats.AverageProcessingTimeMs)
}

// outputStatsJSON writes the snapshot in JSON format for machine consumption.
func outputStatsJSON(w io.Writer, stats *outboxDomain.Stats) {
	result := map[string]interface{}{
		"pending_events":             stats.PendingEvents,
		"failed_events":              stats.FailedEvents,
		"processed_last_hour":        stats.ProcessedLastHour,
		"processed_last_24h":         stats.ProcessedLast24h,
		"queue_depth":                stats.QueueDepth,
		"average_processing_time_ms": stats.AverageProcessingTimeMs,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
