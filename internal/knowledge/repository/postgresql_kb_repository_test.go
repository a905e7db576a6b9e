package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/kbsync/internal/errors"
	"github.com/allisson/kbsync/internal/knowledge/domain"
)

func newMockKBRepo(t *testing.T) (*PostgreSQLKnowledgeBaseRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgreSQLKnowledgeBaseRepository(db), mock
}

func TestPostgreSQLKnowledgeBaseRepository_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockKBRepo(t)

		id := uuid.Must(uuid.NewV7())
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM knowledge_bases WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}).
				AddRow(id, "engineering", "active", now, now))

		kb, err := repo.Get(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, kb.ID)
		assert.True(t, kb.Active())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockKBRepo(t)

		id := uuid.Must(uuid.NewV7())

		mock.ExpectQuery(`SELECT (.+) FROM knowledge_bases WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}))

		kb, err := repo.Get(context.Background(), id)

		assert.Nil(t, kb)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestPostgreSQLKnowledgeBaseRepository_ListActive(t *testing.T) {
	repo, mock := newMockKBRepo(t)

	id1 := uuid.Must(uuid.NewV7())
	id2 := uuid.Must(uuid.NewV7())
	now := time.Now()

	mock.ExpectQuery(`FROM knowledge_bases WHERE status = \$1`).
		WithArgs(domain.KnowledgeBaseStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}).
			AddRow(id1, "engineering", "active", now, now).
			AddRow(id2, "support", "active", now, now))

	kbs, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, kbs, 2)
	assert.Equal(t, id1, kbs[0].ID)
	assert.Equal(t, id2, kbs[1].ID)
}

func TestPostgreSQLKnowledgeBaseRepository_Archive(t *testing.T) {
	repo, mock := newMockKBRepo(t)

	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`UPDATE knowledge_bases SET status = \$1`).
		WithArgs(domain.KnowledgeBaseStatusArchived, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Archive(context.Background(), id)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
