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
	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
)

// reconcileRunner is the subset of the reconciler used by the one-shot
// command and the server loop.
type reconcileRunner interface {
	Scan(ctx context.Context, now time.Time) (*knowledgeDomain.ReconciliationReport, error)
}

// RunReconcile runs a single reconciliation scan across the document table,
// the vector store and the object store, then exits.
//
// Requirements: Database must be migrated and accessible.
func RunReconcile(ctx context.Context, format string) error {
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

	reconciler, err := container.Reconciler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize reconciler: %w", err)
	}

	return reconcile(ctx, reconciler, logger, os.Stdout, format)
}

// reconcile runs one scan and writes the report to w.
func reconcile(
	ctx context.Context,
	reconciler reconcileRunner,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	report, err := reconciler.Scan(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to run reconciliation scan: %w", err)
	}

	if format == "json" {
		outputReconcileJSON(w, report)
	} else {
		outputReconcileText(w, report)
	}

	logger.InfoContext(ctx, "reconciliation scan completed",
		slog.Int("anomalies", report.Total()),
		slog.Int("corrections_enqueued", report.CorrectionsEnqueued),
	)

	return nil
}

// outputReconcileText writes the report in human-readable text format.
func outputReconcileText(w io.Writer, report *knowledgeDomain.ReconciliationReport) {
	fmt.Fprintf(w, "Found %d anomal(ies), enqueued %d correction(s)\n",
		report.Total(), report.CorrectionsEnqueued)
	for anomalyType, count := range report.CountByType() {
		fmt.Fprintf(w, "  %s: %d\n", anomalyType, count)
	}
}

// outputReconcileJSON writes the report in JSON format for machine consumption.
func outputReconcileJSON(w io.Writer, report *knowledgeDomain.ReconciliationReport) {
	byType := make(map[string]int)
	for anomalyType, count := range report.CountByType() {
		byType[string(anomalyType)] = count
	}

	result := map[string]interface{}{
		"anomalies":            report.Total(),
		"anomalies_by_type":    byType,
		"corrections_enqueued": report.CorrectionsEnqueued,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
