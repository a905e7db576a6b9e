package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/kbsync/internal/outbox/domain"
)

// sweeperUseCase deletes outbox rows past their retention window. Processed
// and dead-lettered rows age out on different schedules: dead letters stay
// around longer because an operator may still need them.
type sweeperUseCase struct {
	outboxRepo          OutboxEventRepository
	logger              *slog.Logger
	interval            time.Duration
	maxAttempts         int
	processedRetention  time.Duration
	deadLetterRetention time.Duration
}

// Sweep deletes rows older than each retention cutoff and reports both
// counts separately.
func (s *sweeperUseCase) Sweep(ctx context.Context, now time.Time) (*domain.SweepReport, error) {
	report := &domain.SweepReport{}

	processedDeleted, err := s.outboxRepo.DeleteProcessedBefore(ctx, now.Add(-s.processedRetention))
	if err != nil {
		return nil, err
	}
	report.ProcessedDeleted = processedDeleted

	deadLetterDeleted, err := s.outboxRepo.DeleteDeadLetteredBefore(ctx, s.maxAttempts, now.Add(-s.deadLetterRetention))
	if err != nil {
		return nil, err
	}
	report.DeadLetterDeleted = deadLetterDeleted

	s.logger.InfoContext(ctx, "outbox sweep finished",
		slog.Int64("processed_deleted", report.ProcessedDeleted),
		slog.Int64("dead_letter_deleted", report.DeadLetterDeleted))

	return report, nil
}

// Start sweeps on the configured interval until the context is cancelled.
func (s *sweeperUseCase) Start(ctx context.Context) {
	s.logger.InfoContext(ctx, "outbox sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "outbox sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, time.Now().UTC()); err != nil {
				s.logger.ErrorContext(ctx, "outbox sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// NewSweeperUseCase creates the retention sweeper.
func NewSweeperUseCase(
	outboxRepo OutboxEventRepository,
	logger *slog.Logger,
	interval time.Duration,
	maxAttempts int,
	processedRetention time.Duration,
	deadLetterRetention time.Duration,
) SweeperUseCase {
	return &sweeperUseCase{
		outboxRepo:          outboxRepo,
		logger:              logger,
		interval:            interval,
		maxAttempts:         maxAttempts,
		processedRetention:  processedRetention,
		deadLetterRetention: deadLetterRetention,
	}
}
