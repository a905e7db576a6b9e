// Package usecase implements the outbox processing pipeline: the polling
// dispatcher, the retention sweeper and the read-only stats reader.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/outbox/domain"
)

// Handler processes one outbox event. Handlers run inside the dispatch
// transaction and must be idempotent: at-least-once delivery means the same
// event can be handed to them more than once.
type Handler func(ctx context.Context, event *domain.OutboxEvent) error

// OutboxEventRepository defines the outbox persistence operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	ClaimPending(ctx context.Context, limit, maxAttempts int) ([]*domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) (int, error)
	HasPending(ctx context.Context, eventType string, aggregateID uuid.UUID) (bool, error)
	List(ctx context.Context, filter domain.EventFilter, maxAttempts, offset, limit int) ([]*domain.OutboxEvent, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteDeadLetteredBefore(ctx context.Context, maxAttempts int, cutoff time.Time) (int64, error)
	Stats(ctx context.Context, now time.Time, maxAttempts int) (*domain.Stats, error)
}

// DispatcherUseCase drains pending outbox events to their handlers.
type DispatcherUseCase interface {
	// DispatchBatch claims and processes one batch inside a single
	// transaction and reports what happened to it.
	DispatchBatch(ctx context.Context, now time.Time) (*domain.DispatchReport, error)

	// Start runs dispatch ticks until the context is cancelled.
	Start(ctx context.Context)
}

// SweeperUseCase enforces the outbox retention windows.
type SweeperUseCase interface {
	Sweep(ctx context.Context, now time.Time) (*domain.SweepReport, error)

	// Start runs sweeps until the context is cancelled.
	Start(ctx context.Context)
}

// StatsUseCase reads outbox state for operational visibility. It never
// mutates anything.
type StatsUseCase interface {
	Stats(ctx context.Context, now time.Time) (*domain.Stats, error)
	List(ctx context.Context, filter domain.EventFilter, offset, limit int) ([]*domain.OutboxEvent, error)
}
