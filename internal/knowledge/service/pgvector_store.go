package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/database"
	"github.com/allisson/kbsync/internal/errors"
)

// PgvectorStore keeps KB collections in a single kb_vectors table, one row
// per embedded chunk, with the embedding in a pgvector column.
type PgvectorStore struct {
	db *sql.DB
}

func (p *PgvectorStore) UpsertPoints(ctx context.Context, kbID, documentID uuid.UUID, points []VectorPoint) error {
	querier := database.GetTx(ctx, p.db)

	deleteQuery := `DELETE FROM kb_vectors WHERE kb_id = $1 AND document_id = $2`
	if _, err := querier.ExecContext(ctx, deleteQuery, kbID, documentID); err != nil {
		return errors.Wrap(err, "failed to clear existing vector points")
	}

	insertQuery := `
		INSERT INTO kb_vectors (id, kb_id, document_id, chunk_index, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	for _, point := range points {
		id := uuid.Must(uuid.NewV7())
		if _, err := querier.ExecContext(ctx, insertQuery, id, kbID, documentID, point.ChunkIndex, point.Content, point.Embedding); err != nil {
			return errors.Wrap(err, "failed to insert vector point")
		}
	}

	return nil
}

func (p *PgvectorStore) HasDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS(SELECT 1 FROM kb_vectors WHERE kb_id = $1 AND document_id = $2)`
	var exists bool
	if err := querier.QueryRowContext(ctx, query, kbID, documentID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check vector points")
	}

	return exists, nil
}

func (p *PgvectorStore) ScrollDocumentIDs(ctx context.Context, kbID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `
		SELECT DISTINCT document_id
		FROM kb_vectors
		WHERE kb_id = $1 AND document_id > $2
		ORDER BY document_id ASC
		LIMIT $3
	`
	rows, err := querier.QueryContext(ctx, query, kbID, after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scroll vector document ids")
	}
	defer rows.Close()

	documentIDs := []uuid.UUID{}
	for rows.Next() {
		var documentID uuid.UUID
		if err := rows.Scan(&documentID); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector document id")
		}
		documentIDs = append(documentIDs, documentID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vector document ids")
	}

	return documentIDs, nil
}

func (p *PgvectorStore) DeleteDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM kb_vectors WHERE kb_id = $1 AND document_id = $2`
	if _, err := querier.ExecContext(ctx, query, kbID, documentID); err != nil {
		return errors.Wrap(err, "failed to delete vector points")
	}

	return nil
}

func (p *PgvectorStore) DeleteCollection(ctx context.Context, kbID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM kb_vectors WHERE kb_id = $1`
	if _, err := querier.ExecContext(ctx, query, kbID); err != nil {
		return errors.Wrap(err, "failed to delete vector collection")
	}

	return nil
}

// NewPgvectorStore returns a new PgvectorStore.
func NewPgvectorStore(db *sql.DB) *PgvectorStore {
	return &PgvectorStore{db: db}
}
