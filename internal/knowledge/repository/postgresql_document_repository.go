// Package repository provides data persistence implementations for knowledge entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/database"
	apperrors "github.com/allisson/kbsync/internal/errors"
	"github.com/allisson/kbsync/internal/knowledge/domain"
)

// PostgreSQLDocumentRepository handles document persistence for PostgreSQL.
type PostgreSQLDocumentRepository struct {
	db *sql.DB
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQLDocumentRepository.
func NewPostgreSQLDocumentRepository(db *sql.DB) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{
		db: db,
	}
}

const documentColumns = `id, kb_id, file_name, status, error_message, retry_count, processing_started_at, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.KnowledgeBaseID, &doc.FileName, &doc.Status,
		&doc.ErrorMessage, &doc.RetryCount, &doc.ProcessingStartedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create inserts a new document.
func (r *PostgreSQLDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO documents (id, kb_id, file_name, status, error_message, retry_count, processing_started_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, doc.ID, doc.KnowledgeBaseID, doc.FileName,
		doc.Status, doc.ErrorMessage, doc.RetryCount, doc.ProcessingStartedAt)

	return err
}

// Get retrieves a document by id.
func (r *PostgreSQLDocumentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "document")
		}
		return nil, err
	}

	return doc, nil
}

// ListByStatus returns all documents in the given status.
func (r *PostgreSQLDocumentRepository) ListByStatus(
	ctx context.Context,
	status domain.DocumentStatus,
) ([]*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents WHERE status = $1 ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectDocuments(rows)
}

// ListStaleProcessing returns documents stuck in "processing" whose
// processing_started_at is older than the cutoff.
func (r *PostgreSQLDocumentRepository) ListStaleProcessing(
	ctx context.Context,
	cutoff time.Time,
) ([]*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE status = $1 AND processing_started_at IS NOT NULL AND processing_started_at < $2
			  ORDER BY processing_started_at ASC`

	rows, err := querier.QueryContext(ctx, query, domain.DocumentStatusProcessing, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectDocuments(rows)
}

// ListLiveIDsByKB returns the ids of all non-archived documents in a KB.
// Used by reconciliation to materialize the relational side of the
// cross-store set comparison.
func (r *PostgreSQLDocumentRepository) ListLiveIDsByKB(ctx context.Context, kbID uuid.UUID) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id FROM documents WHERE kb_id = $1 AND status != $2`

	rows, err := querier.QueryContext(ctx, query, kbID, domain.DocumentStatusArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ResetForReprocess moves a document back to pending and clears its error
// state and retry counter, so the ingestion state machine starts clean.
func (r *PostgreSQLDocumentRepository) ResetForReprocess(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET status = $1, error_message = NULL, retry_count = 0, processing_started_at = NULL, updated_at = NOW()
			  WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, domain.DocumentStatusPending, id)
	return err
}

// MarkProcessing records the start of an ingestion run.
func (r *PostgreSQLDocumentRepository) MarkProcessing(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET status = $1, processing_started_at = $2, updated_at = NOW()
			  WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, domain.DocumentStatusProcessing, now, id)
	return err
}

// MarkReady records a successful ingestion run.
func (r *PostgreSQLDocumentRepository) MarkReady(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET status = $1, error_message = NULL, updated_at = NOW()
			  WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, domain.DocumentStatusReady, id)
	return err
}

// MarkFailed records a failed ingestion run.
func (r *PostgreSQLDocumentRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET status = $1, error_message = $2, retry_count = retry_count + 1, updated_at = NOW()
			  WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, domain.DocumentStatusFailed, message, id)
	return err
}

// Archive soft-deletes a document.
func (r *PostgreSQLDocumentRepository) Archive(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, domain.DocumentStatusArchived, id)
	return err
}

// ArchiveByKB soft-deletes every non-archived document under a KB and returns
// the number of rows changed. Re-running on an already-archived KB affects
// zero rows and is not an error, keeping kb.delete idempotent.
func (r *PostgreSQLDocumentRepository) ArchiveByKB(ctx context.Context, kbID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET status = $1, updated_at = NOW()
			  WHERE kb_id = $2 AND status != $1`

	result, err := querier.ExecContext(ctx, query, domain.DocumentStatusArchived, kbID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func collectDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}
