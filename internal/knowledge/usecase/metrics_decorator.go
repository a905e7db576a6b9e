package usecase

import (
	"context"
	"time"

	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	"github.com/allisson/kbsync/internal/metrics"
)

// reconcilerWithMetrics decorates ReconcilerUseCase with metrics instrumentation.
type reconcilerWithMetrics struct {
	next    ReconcilerUseCase
	metrics metrics.BusinessMetrics
}

// NewReconcilerWithMetrics wraps a ReconcilerUseCase with metrics recording.
func NewReconcilerWithMetrics(useCase ReconcilerUseCase, m metrics.BusinessMetrics) ReconcilerUseCase {
	return &reconcilerWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Scan records metrics for reconciliation scans.
func (r *reconcilerWithMetrics) Scan(ctx context.Context, now time.Time) (*knowledgeDomain.ReconciliationReport, error) {
	start := time.Now()
	report, err := r.next.Scan(ctx, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "reconciliation", "scan", status)
	r.metrics.RecordDuration(ctx, "reconciliation", "scan", time.Since(start), status)

	return report, err
}
