package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/database"
	apperrors "github.com/allisson/kbsync/internal/errors"
	"github.com/allisson/kbsync/internal/knowledge/domain"
)

// PostgreSQLKnowledgeBaseRepository handles knowledge base persistence for PostgreSQL.
type PostgreSQLKnowledgeBaseRepository struct {
	db *sql.DB
}

// NewPostgreSQLKnowledgeBaseRepository creates a new PostgreSQLKnowledgeBaseRepository.
func NewPostgreSQLKnowledgeBaseRepository(db *sql.DB) *PostgreSQLKnowledgeBaseRepository {
	return &PostgreSQLKnowledgeBaseRepository{
		db: db,
	}
}

const kbColumns = `id, name, status, created_at, updated_at`

// Get retrieves a knowledge base by id.
func (r *PostgreSQLKnowledgeBaseRepository) Get(ctx context.Context, id uuid.UUID) (*domain.KnowledgeBase, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + kbColumns + ` FROM knowledge_bases WHERE id = $1`

	var kb domain.KnowledgeBase
	err := querier.QueryRowContext(ctx, query, id).
		Scan(&kb.ID, &kb.Name, &kb.Status, &kb.CreatedAt, &kb.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "knowledge base")
		}
		return nil, err
	}

	return &kb, nil
}

// ListActive returns all active knowledge bases, the scan universe for
// reconciliation.
func (r *PostgreSQLKnowledgeBaseRepository) ListActive(ctx context.Context) ([]*domain.KnowledgeBase, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + kbColumns + ` FROM knowledge_bases WHERE status = $1 ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, domain.KnowledgeBaseStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var kbs []*domain.KnowledgeBase
	for rows.Next() {
		var kb domain.KnowledgeBase
		if err := rows.Scan(&kb.ID, &kb.Name, &kb.Status, &kb.CreatedAt, &kb.UpdatedAt); err != nil {
			return nil, err
		}
		kbs = append(kbs, &kb)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return kbs, nil
}

// Archive soft-deletes a knowledge base. Archiving an already-archived KB
// affects zero rows and is not an error.
func (r *PostgreSQLKnowledgeBaseRepository) Archive(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE knowledge_bases SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, domain.KnowledgeBaseStatusArchived, id)
	return err
}
