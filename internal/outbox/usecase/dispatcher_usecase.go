package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/kbsync/internal/alert"
	"github.com/allisson/kbsync/internal/database"
	"github.com/allisson/kbsync/internal/outbox/domain"
)

// dispatcherUseCase polls the outbox and routes claimed events to their
// handlers. Each tick runs in one transaction: the SKIP LOCKED claim keeps
// concurrent dispatcher instances off each other's rows for the duration.
type dispatcherUseCase struct {
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	handlers       map[string]Handler
	alerter        alert.Alerter
	logger         *slog.Logger
	interval       time.Duration
	batchSize      int
	maxAttempts    int
	handlerTimeout time.Duration
}

// DispatchBatch claims up to the batch size of pending events and processes
// them oldest first. A handler failure never aborts the batch: the failed
// event keeps its incremented attempt count and the loop moves on.
func (d *dispatcherUseCase) DispatchBatch(ctx context.Context, now time.Time) (*domain.DispatchReport, error) {
	report := &domain.DispatchReport{}

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		events, err := d.outboxRepo.ClaimPending(txCtx, d.batchSize, d.maxAttempts)
		if err != nil {
			return err
		}
		report.Claimed = len(events)

		for _, event := range events {
			handler, registered := d.handlers[event.EventType]
			if !registered {
				report.Unregistered++
				d.logger.WarnContext(txCtx, "no handler registered for event type",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType))
				continue
			}

			if handlerErr := d.runHandler(txCtx, handler, event); handlerErr != nil {
				if err := d.recordFailure(txCtx, event, handlerErr, report); err != nil {
					return err
				}
				continue
			}

			if err := d.outboxRepo.MarkProcessed(txCtx, event.ID, now); err != nil {
				return err
			}
			report.Processed++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// runHandler invokes the handler under the per-handler timeout. The handler
// runs inside a savepoint: a timed-out or failed statement aborts only the
// savepoint, so the surrounding batch transaction can still record the
// failure and move on to the next event.
func (d *dispatcherUseCase) runHandler(ctx context.Context, handler Handler, event *domain.OutboxEvent) error {
	return database.WithSavepoint(ctx, "handler_attempt", func(spCtx context.Context) error {
		handlerCtx, cancel := context.WithTimeout(spCtx, d.handlerTimeout)
		defer cancel()
		return handler(handlerCtx, event)
	})
}

// recordFailure increments the event's attempt count and emits the critical
// admin alert exactly when the count crosses the retry budget. ClaimPending
// never selects exhausted events again, so the alert fires once per event.
func (d *dispatcherUseCase) recordFailure(
	ctx context.Context,
	event *domain.OutboxEvent,
	handlerErr error,
	report *domain.DispatchReport,
) error {
	lastError := domain.TruncateError(handlerErr.Error())

	attempts, err := d.outboxRepo.MarkFailed(ctx, event.ID, lastError)
	if err != nil {
		return err
	}
	report.Failed++

	d.logger.ErrorContext(ctx, "event handler failed",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID.String()),
		slog.Int("attempts", attempts),
		slog.String("error", lastError))

	if attempts == d.maxAttempts {
		report.DeadLettered++
		d.alerter.Critical(ctx, alert.AdminInterventionRequired, map[string]any{
			"event_id":     event.ID.String(),
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
			"last_error":   lastError,
		})
	}

	return nil
}

// Start polls on the configured interval until the context is cancelled.
// Tick-level failures (store unavailable, transaction error) are logged and
// dropped: the next tick retries from scratch.
func (d *dispatcherUseCase) Start(ctx context.Context) {
	d.logger.InfoContext(ctx, "outbox dispatcher started",
		slog.Duration("interval", d.interval),
		slog.Int("batch_size", d.batchSize))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(ctx, "outbox dispatcher stopped")
			return
		case <-ticker.C:
			report, err := d.DispatchBatch(ctx, time.Now().UTC())
			if err != nil {
				d.logger.ErrorContext(ctx, "dispatch tick failed", slog.String("error", err.Error()))
				continue
			}
			if report.Claimed > 0 {
				d.logger.InfoContext(ctx, "dispatch tick finished",
					slog.Int("claimed", report.Claimed),
					slog.Int("processed", report.Processed),
					slog.Int("failed", report.Failed),
					slog.Int("dead_lettered", report.DeadLettered),
					slog.Int("unregistered", report.Unregistered))
			}
		}
	}
}

// NewDispatcherUseCase creates the dispatcher with its handler registry. The
// registry is fixed at construction: routing is by exact event-type match.
func NewDispatcherUseCase(
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	handlers map[string]Handler,
	alerter alert.Alerter,
	logger *slog.Logger,
	interval time.Duration,
	batchSize int,
	maxAttempts int,
	handlerTimeout time.Duration,
) DispatcherUseCase {
	return &dispatcherUseCase{
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		handlers:       handlers,
		alerter:        alerter,
		logger:         logger,
		interval:       interval,
		batchSize:      batchSize,
		maxAttempts:    maxAttempts,
		handlerTimeout: handlerTimeout,
	}
}
