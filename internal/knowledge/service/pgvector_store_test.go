package service

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgvectorStore(t *testing.T) {
	ctx := context.Background()
	kbID := uuid.Must(uuid.NewV7())
	documentID := uuid.Must(uuid.NewV7())

	t.Run("UpsertPoints clears then inserts", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()
		store := NewPgvectorStore(db)

		mock.ExpectExec(`DELETE FROM kb_vectors WHERE kb_id = \$1 AND document_id = \$2`).
			WithArgs(kbID, documentID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO kb_vectors`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO kb_vectors`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		points := []VectorPoint{
			{ChunkIndex: 0, Content: "first chunk", Embedding: pgvector.NewVector([]float32{0.1, 0.2})},
			{ChunkIndex: 1, Content: "second chunk", Embedding: pgvector.NewVector([]float32{0.3, 0.4})},
		}
		err = store.UpsertPoints(ctx, kbID, documentID, points)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("HasDocumentPoints", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()
		store := NewPgvectorStore(db)

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM kb_vectors`).
			WithArgs(kbID, documentID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := store.HasDocumentPoints(ctx, kbID, documentID)
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ScrollDocumentIDs pages after the cursor", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()
		store := NewPgvectorStore(db)

		firstID := uuid.Must(uuid.NewV7())
		secondID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(`SELECT DISTINCT document_id\s+FROM kb_vectors\s+WHERE kb_id = \$1 AND document_id > \$2\s+ORDER BY document_id ASC\s+LIMIT \$3`).
			WithArgs(kbID, uuid.Nil, 100).
			WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow(firstID).AddRow(secondID))

		documentIDs, err := store.ScrollDocumentIDs(ctx, kbID, uuid.Nil, 100)
		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{firstID, secondID}, documentIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteDocumentPoints", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()
		store := NewPgvectorStore(db)

		mock.ExpectExec(`DELETE FROM kb_vectors WHERE kb_id = \$1 AND document_id = \$2`).
			WithArgs(kbID, documentID).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err = store.DeleteDocumentPoints(ctx, kbID, documentID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteCollection", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()
		store := NewPgvectorStore(db)

		mock.ExpectExec(`DELETE FROM kb_vectors WHERE kb_id = \$1`).
			WithArgs(kbID).
			WillReturnResult(sqlmock.NewResult(0, 10))

		err = store.DeleteCollection(ctx, kbID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
