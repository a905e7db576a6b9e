package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/alert"
	apperrors "github.com/allisson/kbsync/internal/errors"
	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	"github.com/allisson/kbsync/internal/knowledge/service"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// reconcilerUseCase diff-scans the relational, vector and object stores for
// drift. Resolvable anomalies get a corrective document.reprocess event;
// orphaned vectors and files are logged in full detail but never deleted,
// since the drift may be ambiguous.
type reconcilerUseCase struct {
	documentRepo   DocumentRepository
	kbRepo         KnowledgeBaseRepository
	outboxRepo     OutboxEventRepository
	vectorStore    service.VectorStore
	objectStore    service.ObjectStore
	alerter        alert.Alerter
	logger         *slog.Logger
	staleThreshold time.Duration
	alertThreshold int
	pageSize       int
}

// Scan runs the four detection passes and returns the combined report. Each
// pass is independent: a failure in one aborts the scan so the next scheduled
// run restarts from scratch.
func (r *reconcilerUseCase) Scan(ctx context.Context, now time.Time) (*knowledgeDomain.ReconciliationReport, error) {
	report := &knowledgeDomain.ReconciliationReport{ScannedAt: now}

	if err := r.scanReadyWithoutVectors(ctx, now, report); err != nil {
		return nil, err
	}
	if err := r.scanOrphanVectors(ctx, now, report); err != nil {
		return nil, err
	}
	if err := r.scanOrphanFiles(ctx, now, report); err != nil {
		return nil, err
	}
	if err := r.scanStaleProcessing(ctx, now, report); err != nil {
		return nil, err
	}

	if report.Total() > r.alertThreshold {
		counts := report.CountByType()
		r.alerter.Warning(ctx, alert.ReconciliationAnomalyThreshold, map[string]any{
			"total_anomalies":       report.Total(),
			"ready_without_vectors": counts[knowledgeDomain.AnomalyReadyWithoutVectors],
			"orphan_vector":         counts[knowledgeDomain.AnomalyOrphanVector],
			"orphan_file":           counts[knowledgeDomain.AnomalyOrphanFile],
			"stale_processing":      counts[knowledgeDomain.AnomalyStaleProcessing],
			"corrections_enqueued":  report.CorrectionsEnqueued,
		})
	}

	r.logger.InfoContext(ctx, "reconciliation scan finished",
		slog.Int("total_anomalies", report.Total()),
		slog.Int("corrections_enqueued", report.CorrectionsEnqueued))

	return report, nil
}

// scanReadyWithoutVectors flags ready documents whose KB collection holds no
// points for them and enqueues a reprocess for each.
func (r *reconcilerUseCase) scanReadyWithoutVectors(
	ctx context.Context,
	now time.Time,
	report *knowledgeDomain.ReconciliationReport,
) error {
	documents, err := r.documentRepo.ListByStatus(ctx, knowledgeDomain.DocumentStatusReady)
	if err != nil {
		return err
	}

	for _, document := range documents {
		hasPoints, err := r.vectorStore.HasDocumentPoints(ctx, document.KnowledgeBaseID, document.ID)
		if err != nil {
			return err
		}
		if hasPoints {
			continue
		}

		r.recordAnomaly(ctx, report, knowledgeDomain.Anomaly{
			Type:            knowledgeDomain.AnomalyReadyWithoutVectors,
			KnowledgeBaseID: document.KnowledgeBaseID,
			DocumentID:      document.ID,
			DetectedAt:      now,
		})
		if err := r.enqueueReprocess(ctx, report, document.ID); err != nil {
			return err
		}
	}

	return nil
}

// scanOrphanVectors pages through every active KB's collection and flags
// document ids with no live document row. The scroll must page to the end:
// a single-page scan silently misses anomalies in large collections.
func (r *reconcilerUseCase) scanOrphanVectors(
	ctx context.Context,
	now time.Time,
	report *knowledgeDomain.ReconciliationReport,
) error {
	kbs, err := r.kbRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, kb := range kbs {
		liveIDs, err := r.documentRepo.ListLiveIDsByKB(ctx, kb.ID)
		if err != nil {
			return err
		}
		live := make(map[uuid.UUID]struct{}, len(liveIDs))
		for _, id := range liveIDs {
			live[id] = struct{}{}
		}

		cursor := uuid.Nil
		for {
			page, err := r.vectorStore.ScrollDocumentIDs(ctx, kb.ID, cursor, r.pageSize)
			if err != nil {
				return err
			}
			for _, documentID := range page {
				if _, ok := live[documentID]; ok {
					continue
				}
				r.recordAnomaly(ctx, report, knowledgeDomain.Anomaly{
					Type:            knowledgeDomain.AnomalyOrphanVector,
					KnowledgeBaseID: kb.ID,
					DocumentID:      documentID,
					DetectedAt:      now,
				})
			}
			if len(page) < r.pageSize {
				break
			}
			cursor = page[len(page)-1]
		}
	}

	return nil
}

// scanOrphanFiles checks every bucket key against the relational store. A
// key is an orphan when it does not parse, its document row is gone or
// archived, or the row belongs to a different KB than the path claims.
func (r *reconcilerUseCase) scanOrphanFiles(
	ctx context.Context,
	now time.Time,
	report *knowledgeDomain.ReconciliationReport,
) error {
	keys, err := r.objectStore.ListKeys(ctx, "kb/")
	if err != nil {
		return err
	}

	for _, key := range keys {
		kbID, documentID, ok := service.ParseObjectKey(key)
		if !ok {
			r.recordAnomaly(ctx, report, knowledgeDomain.Anomaly{
				Type:       knowledgeDomain.AnomalyOrphanFile,
				ObjectKey:  key,
				DetectedAt: now,
			})
			continue
		}

		document, err := r.documentRepo.Get(ctx, documentID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if document != nil && document.Live() && document.KnowledgeBaseID == kbID {
			continue
		}

		r.recordAnomaly(ctx, report, knowledgeDomain.Anomaly{
			Type:            knowledgeDomain.AnomalyOrphanFile,
			KnowledgeBaseID: kbID,
			DocumentID:      documentID,
			ObjectKey:       key,
			DetectedAt:      now,
		})
	}

	return nil
}

// scanStaleProcessing flags documents stuck in processing past the
// threshold, resets them to pending first so the state machine is consistent,
// then enqueues a reprocess.
func (r *reconcilerUseCase) scanStaleProcessing(
	ctx context.Context,
	now time.Time,
	report *knowledgeDomain.ReconciliationReport,
) error {
	cutoff := now.Add(-r.staleThreshold)
	documents, err := r.documentRepo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, document := range documents {
		r.recordAnomaly(ctx, report, knowledgeDomain.Anomaly{
			Type:            knowledgeDomain.AnomalyStaleProcessing,
			KnowledgeBaseID: document.KnowledgeBaseID,
			DocumentID:      document.ID,
			DetectedAt:      now,
		})

		if err := r.documentRepo.ResetForReprocess(ctx, document.ID); err != nil {
			return err
		}
		if err := r.enqueueReprocess(ctx, report, document.ID); err != nil {
			return err
		}
	}

	return nil
}

// enqueueReprocess writes a corrective document.reprocess event unless an
// undispatched one already exists for the document, so back-to-back scans
// cannot stack duplicates.
func (r *reconcilerUseCase) enqueueReprocess(
	ctx context.Context,
	report *knowledgeDomain.ReconciliationReport,
	documentID uuid.UUID,
) error {
	pending, err := r.outboxRepo.HasPending(ctx, outboxDomain.EventTypeDocumentReprocess, documentID)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	if err := r.outboxRepo.Create(ctx, NewReprocessEvent(documentID, ReprocessTriggerReconciliation)); err != nil {
		return err
	}
	report.CorrectionsEnqueued++

	return nil
}

// recordAnomaly appends the anomaly to the report and logs it in full detail.
func (r *reconcilerUseCase) recordAnomaly(
	ctx context.Context,
	report *knowledgeDomain.ReconciliationReport,
	anomaly knowledgeDomain.Anomaly,
) {
	report.Anomalies = append(report.Anomalies, anomaly)

	attrs := []any{
		slog.String("anomaly_type", string(anomaly.Type)),
		slog.Time("detected_at", anomaly.DetectedAt),
	}
	if anomaly.KnowledgeBaseID != uuid.Nil {
		attrs = append(attrs, slog.String("kb_id", anomaly.KnowledgeBaseID.String()))
	}
	if anomaly.DocumentID != uuid.Nil {
		attrs = append(attrs, slog.String("document_id", anomaly.DocumentID.String()))
	}
	if anomaly.ObjectKey != "" {
		attrs = append(attrs, slog.String("object_key", anomaly.ObjectKey))
	}

	r.logger.WarnContext(ctx, "reconciliation anomaly detected", attrs...)
}

// NewReconcilerUseCase creates the drift scanner.
func NewReconcilerUseCase(
	documentRepo DocumentRepository,
	kbRepo KnowledgeBaseRepository,
	outboxRepo OutboxEventRepository,
	vectorStore service.VectorStore,
	objectStore service.ObjectStore,
	alerter alert.Alerter,
	logger *slog.Logger,
	staleThreshold time.Duration,
	alertThreshold int,
	pageSize int,
) ReconcilerUseCase {
	return &reconcilerUseCase{
		documentRepo:   documentRepo,
		kbRepo:         kbRepo,
		outboxRepo:     outboxRepo,
		vectorStore:    vectorStore,
		objectStore:    objectStore,
		alerter:        alerter,
		logger:         logger,
		staleThreshold: staleThreshold,
		alertThreshold: alertThreshold,
		pageSize:       pageSize,
	}
}
