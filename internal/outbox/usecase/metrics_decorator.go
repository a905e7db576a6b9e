package usecase

import (
	"context"
	"time"

	"github.com/allisson/kbsync/internal/metrics"
	"github.com/allisson/kbsync/internal/outbox/domain"
)

// dispatcherWithMetrics decorates DispatcherUseCase with metrics instrumentation.
type dispatcherWithMetrics struct {
	next    DispatcherUseCase
	metrics metrics.BusinessMetrics
}

// NewDispatcherWithMetrics wraps a DispatcherUseCase with metrics recording.
func NewDispatcherWithMetrics(useCase DispatcherUseCase, m metrics.BusinessMetrics) DispatcherUseCase {
	return &dispatcherWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// DispatchBatch records per-outcome counters for each dispatch tick.
func (d *dispatcherWithMetrics) DispatchBatch(ctx context.Context, now time.Time) (*domain.DispatchReport, error) {
	start := time.Now()
	report, err := d.next.DispatchBatch(ctx, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "outbox", "dispatch_batch", status)
	d.metrics.RecordDuration(ctx, "outbox", "dispatch_batch", time.Since(start), status)

	if report != nil {
		recordCount(ctx, d.metrics, "event_processed", report.Processed)
		recordCount(ctx, d.metrics, "event_failed", report.Failed)
		recordCount(ctx, d.metrics, "event_dead_lettered", report.DeadLettered)
		recordCount(ctx, d.metrics, "event_unregistered", report.Unregistered)
	}

	return report, err
}

func (d *dispatcherWithMetrics) Start(ctx context.Context) {
	d.next.Start(ctx)
}

func recordCount(ctx context.Context, m metrics.BusinessMetrics, operation string, count int) {
	for i := 0; i < count; i++ {
		m.RecordOperation(ctx, "outbox", operation, "success")
	}
}

// sweeperWithMetrics decorates SweeperUseCase with metrics instrumentation.
type sweeperWithMetrics struct {
	next    SweeperUseCase
	metrics metrics.BusinessMetrics
}

// NewSweeperWithMetrics wraps a SweeperUseCase with metrics recording.
func NewSweeperWithMetrics(useCase SweeperUseCase, m metrics.BusinessMetrics) SweeperUseCase {
	return &sweeperWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Sweep records metrics for retention sweeps.
func (s *sweeperWithMetrics) Sweep(ctx context.Context, now time.Time) (*domain.SweepReport, error) {
	start := time.Now()
	report, err := s.next.Sweep(ctx, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "outbox", "sweep", status)
	s.metrics.RecordDuration(ctx, "outbox", "sweep", time.Since(start), status)

	return report, err
}

func (s *sweeperWithMetrics) Start(ctx context.Context) {
	s.next.Start(ctx)
}
