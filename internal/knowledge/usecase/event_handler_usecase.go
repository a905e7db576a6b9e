package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/allisson/kbsync/internal/errors"
	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	"github.com/allisson/kbsync/internal/knowledge/service"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// eventHandlerUseCase implements the four outbox event handlers. Deliveries
// may repeat, so every handler treats already-applied work (missing or
// archived rows, absent vectors, absent files) as success.
type eventHandlerUseCase struct {
	documentRepo DocumentRepository
	kbRepo       KnowledgeBaseRepository
	outboxRepo   OutboxEventRepository
	vectorStore  service.VectorStore
	objectStore  service.ObjectStore
	ingestor     service.Ingestor
	logger       *slog.Logger
}

// HandleDocumentProcess runs the ingestion pipeline for one document. A
// missing or archived document means a delete won the race with this
// delivery; that is success, not failure.
func (e *eventHandlerUseCase) HandleDocumentProcess(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	document, err := e.documentRepo.Get(ctx, event.AggregateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			e.logger.InfoContext(ctx, "skipping process for missing document",
				slog.String("document_id", event.AggregateID.String()))
			return nil
		}
		return err
	}
	if document.Status == knowledgeDomain.DocumentStatusArchived {
		return nil
	}

	if err := e.documentRepo.MarkProcessing(ctx, document.ID, time.Now().UTC()); err != nil {
		return err
	}

	if err := e.ingestor.Ingest(ctx, document.KnowledgeBaseID, document.ID); err != nil {
		if markErr := e.documentRepo.MarkFailed(ctx, document.ID, err.Error()); markErr != nil {
			return markErr
		}
		return apperrors.Wrap(err, "ingestion failed")
	}

	return e.documentRepo.MarkReady(ctx, document.ID)
}

// HandleDocumentDelete removes one document's vectors and files and archives
// its row.
func (e *eventHandlerUseCase) HandleDocumentDelete(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	document, err := e.documentRepo.Get(ctx, event.AggregateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := e.vectorStore.DeleteDocumentPoints(ctx, document.KnowledgeBaseID, document.ID); err != nil {
		return err
	}
	if _, err := e.objectStore.DeleteByPrefix(ctx, service.DocumentPrefix(document.KnowledgeBaseID, document.ID)); err != nil {
		return err
	}

	return e.documentRepo.Archive(ctx, document.ID)
}

// HandleDocumentReprocess resets a document to pending and re-enqueues
// document.process. The payload's trigger reason is carried into the log so
// reconciliation-driven corrections are distinguishable from user re-uploads.
func (e *eventHandlerUseCase) HandleDocumentReprocess(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	payload, err := DecodeReprocessPayload(event.Payload)
	if err != nil {
		return err
	}

	document, err := e.documentRepo.Get(ctx, event.AggregateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			e.logger.InfoContext(ctx, "skipping reprocess for missing document",
				slog.String("document_id", event.AggregateID.String()),
				slog.String("reason", payload.Reason))
			return nil
		}
		return err
	}
	if document.Status == knowledgeDomain.DocumentStatusArchived {
		return nil
	}

	if err := e.documentRepo.ResetForReprocess(ctx, document.ID); err != nil {
		return err
	}
	if err := e.outboxRepo.Create(ctx, NewProcessEvent(document.ID)); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "document reprocess enqueued",
		slog.String("document_id", document.ID.String()),
		slog.String("kb_id", document.KnowledgeBaseID.String()),
		slog.String("reason", payload.Reason))

	return nil
}

// HandleKBDelete cascades a knowledge-base deletion: archive every live
// document, drop the vector collection, delete every stored file, and
// confirm the KB row as archived. Each step is a no-op when its work is
// already done, so partial failures can retry safely.
func (e *eventHandlerUseCase) HandleKBDelete(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	kbID := event.AggregateID

	archived, err := e.documentRepo.ArchiveByKB(ctx, kbID)
	if err != nil {
		return err
	}
	if err := e.vectorStore.DeleteCollection(ctx, kbID); err != nil {
		return err
	}
	deletedFiles, err := e.objectStore.DeleteByPrefix(ctx, service.KBPrefix(kbID))
	if err != nil {
		return err
	}
	if err := e.kbRepo.Archive(ctx, kbID); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "knowledge base deletion cascaded",
		slog.String("kb_id", kbID.String()),
		slog.Int64("documents_archived", archived),
		slog.Int("files_deleted", deletedFiles))

	return nil
}

// NewEventHandlerUseCase creates the handler set behind the dispatcher's
// registry.
func NewEventHandlerUseCase(
	documentRepo DocumentRepository,
	kbRepo KnowledgeBaseRepository,
	outboxRepo OutboxEventRepository,
	vectorStore service.VectorStore,
	objectStore service.ObjectStore,
	ingestor service.Ingestor,
	logger *slog.Logger,
) EventHandlerUseCase {
	return &eventHandlerUseCase{
		documentRepo: documentRepo,
		kbRepo:       kbRepo,
		outboxRepo:   outboxRepo,
		vectorStore:  vectorStore,
		objectStore:  objectStore,
		ingestor:     ingestor,
		logger:       logger,
	}
}
