package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	"github.com/allisson/kbsync/internal/knowledge/service"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// mockDocumentRepository is a mock implementation of DocumentRepository.
type mockDocumentRepository struct {
	mock.Mock
}

func (m *mockDocumentRepository) Get(ctx context.Context, id uuid.UUID) (*knowledgeDomain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledgeDomain.Document), args.Error(1)
}

func (m *mockDocumentRepository) ListByStatus(
	ctx context.Context,
	status knowledgeDomain.DocumentStatus,
) ([]*knowledgeDomain.Document, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*knowledgeDomain.Document), args.Error(1)
}

func (m *mockDocumentRepository) ListStaleProcessing(
	ctx context.Context,
	cutoff time.Time,
) ([]*knowledgeDomain.Document, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*knowledgeDomain.Document), args.Error(1)
}

func (m *mockDocumentRepository) ListLiveIDsByKB(ctx context.Context, kbID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, kbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockDocumentRepository) ResetForReprocess(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocumentRepository) MarkProcessing(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *mockDocumentRepository) MarkReady(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocumentRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *mockDocumentRepository) Archive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocumentRepository) ArchiveByKB(ctx context.Context, kbID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kbID)
	return args.Get(0).(int64), args.Error(1)
}

// mockKnowledgeBaseRepository is a mock implementation of KnowledgeBaseRepository.
type mockKnowledgeBaseRepository struct {
	mock.Mock
}

func (m *mockKnowledgeBaseRepository) Get(ctx context.Context, id uuid.UUID) (*knowledgeDomain.KnowledgeBase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledgeDomain.KnowledgeBase), args.Error(1)
}

func (m *mockKnowledgeBaseRepository) ListActive(ctx context.Context) ([]*knowledgeDomain.KnowledgeBase, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*knowledgeDomain.KnowledgeBase), args.Error(1)
}

func (m *mockKnowledgeBaseRepository) Archive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOutboxEventRepository) HasPending(
	ctx context.Context,
	eventType string,
	aggregateID uuid.UUID,
) (bool, error) {
	args := m.Called(ctx, eventType, aggregateID)
	return args.Bool(0), args.Error(1)
}

// mockVectorStore is a mock implementation of service.VectorStore.
type mockVectorStore struct {
	mock.Mock
}

func (m *mockVectorStore) UpsertPoints(
	ctx context.Context,
	kbID, documentID uuid.UUID,
	points []service.VectorPoint,
) error {
	args := m.Called(ctx, kbID, documentID, points)
	return args.Error(0)
}

func (m *mockVectorStore) HasDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, kbID, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockVectorStore) ScrollDocumentIDs(
	ctx context.Context,
	kbID uuid.UUID,
	after uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	args := m.Called(ctx, kbID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockVectorStore) DeleteDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) error {
	args := m.Called(ctx, kbID, documentID)
	return args.Error(0)
}

func (m *mockVectorStore) DeleteCollection(ctx context.Context, kbID uuid.UUID) error {
	args := m.Called(ctx, kbID)
	return args.Error(0)
}

// mockObjectStore is a mock implementation of service.ObjectStore.
type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockObjectStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

// mockAlerter is a mock implementation of alert.Alerter.
type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) Critical(ctx context.Context, alertCode string, details map[string]any) {
	m.Called(ctx, alertCode, details)
}

func (m *mockAlerter) Warning(ctx context.Context, alertCode string, details map[string]any) {
	m.Called(ctx, alertCode, details)
}

// mockIngestor is a mock implementation of service.Ingestor.
type mockIngestor struct {
	mock.Mock
}

func (m *mockIngestor) Ingest(ctx context.Context, kbID, documentID uuid.UUID) error {
	args := m.Called(ctx, kbID, documentID)
	return args.Error(0)
}
