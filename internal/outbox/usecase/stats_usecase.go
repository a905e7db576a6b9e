package usecase

import (
	"context"
	"time"

	"github.com/allisson/kbsync/internal/outbox/domain"
)

// statsUseCase serves read-only outbox queries for the admin API.
type statsUseCase struct {
	outboxRepo  OutboxEventRepository
	maxAttempts int
}

// Stats returns the outbox health snapshot.
func (s *statsUseCase) Stats(ctx context.Context, now time.Time) (*domain.Stats, error) {
	return s.outboxRepo.Stats(ctx, now, s.maxAttempts)
}

// List returns events matching the filter, newest first.
func (s *statsUseCase) List(ctx context.Context, filter domain.EventFilter, offset, limit int) ([]*domain.OutboxEvent, error) {
	return s.outboxRepo.List(ctx, filter, s.maxAttempts, offset, limit)
}

// NewStatsUseCase creates the read-only stats reader.
func NewStatsUseCase(outboxRepo OutboxEventRepository, maxAttempts int) StatsUseCase {
	return &statsUseCase{
		outboxRepo:  outboxRepo,
		maxAttempts: maxAttempts,
	}
}
