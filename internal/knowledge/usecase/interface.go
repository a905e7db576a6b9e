// Package usecase implements the knowledge-side business logic driven by the
// outbox: the four event handlers and the reconciliation scanner that keeps
// the relational, vector and object stores consistent with each other.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// DocumentRepository defines the document persistence operations the
// handlers and the reconciler depend on.
type DocumentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*knowledgeDomain.Document, error)
	ListByStatus(ctx context.Context, status knowledgeDomain.DocumentStatus) ([]*knowledgeDomain.Document, error)
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]*knowledgeDomain.Document, error)
	ListLiveIDsByKB(ctx context.Context, kbID uuid.UUID) ([]uuid.UUID, error)
	ResetForReprocess(ctx context.Context, id uuid.UUID) error
	MarkProcessing(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkReady(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Archive(ctx context.Context, id uuid.UUID) error
	ArchiveByKB(ctx context.Context, kbID uuid.UUID) (int64, error)
}

// KnowledgeBaseRepository defines the knowledge-base persistence operations.
type KnowledgeBaseRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*knowledgeDomain.KnowledgeBase, error)
	ListActive(ctx context.Context) ([]*knowledgeDomain.KnowledgeBase, error)
	Archive(ctx context.Context, id uuid.UUID) error
}

// OutboxEventRepository is the subset of the outbox persistence layer used
// here: writing events and checking for undispatched duplicates.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
	HasPending(ctx context.Context, eventType string, aggregateID uuid.UUID) (bool, error)
}

// EventHandlerUseCase exposes one method per outbox event type. Every method
// is idempotent: re-delivery of an already-applied event must succeed without
// new side effects.
type EventHandlerUseCase interface {
	HandleDocumentProcess(ctx context.Context, event *outboxDomain.OutboxEvent) error
	HandleDocumentDelete(ctx context.Context, event *outboxDomain.OutboxEvent) error
	HandleDocumentReprocess(ctx context.Context, event *outboxDomain.OutboxEvent) error
	HandleKBDelete(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// ReconcilerUseCase defines the drift scanner.
type ReconcilerUseCase interface {
	Scan(ctx context.Context, now time.Time) (*knowledgeDomain.ReconciliationReport, error)
}
