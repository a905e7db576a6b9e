package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/kbsync/internal/outbox/domain"
)

// passthroughTxManager runs the function without a real transaction so
// dispatcher semantics can be tested against the in-memory repository.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

// memoryOutboxRepo is an in-memory OutboxEventRepository with the same
// lifecycle semantics as the PostgreSQL implementation.
type memoryOutboxRepo struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (m *memoryOutboxRepo) Create(_ context.Context, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryOutboxRepo) ClaimPending(_ context.Context, limit, maxAttempts int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := []*domain.OutboxEvent{}
	for _, event := range m.events {
		if event.Pending(maxAttempts) {
			pending = append(pending, event)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *memoryOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.ID == id && event.ProcessedAt == nil {
			processedAt := now
			event.ProcessedAt = &processedAt
			event.LastError = nil
		}
	}
	return nil
}

func (m *memoryOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, lastError string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.ID == id {
			event.Attempts++
			truncated := domain.TruncateError(lastError)
			event.LastError = &truncated
			return event.Attempts, nil
		}
	}
	return 0, nil
}

func (m *memoryOutboxRepo) HasPending(_ context.Context, eventType string, aggregateID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.EventType == eventType && event.AggregateID == aggregateID && event.ProcessedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryOutboxRepo) List(_ context.Context, filter domain.EventFilter, maxAttempts, offset, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := []*domain.OutboxEvent{}
	for _, event := range m.events {
		if filter.AggregateID != uuid.Nil && event.AggregateID != filter.AggregateID {
			continue
		}
		switch filter.State {
		case "pending":
			if !event.Pending(maxAttempts) {
				continue
			}
		case "processed":
			if event.ProcessedAt == nil {
				continue
			}
		case "dead":
			if !event.DeadLettered(maxAttempts) {
				continue
			}
		}
		matches = append(matches, event)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset >= len(matches) {
		return []*domain.OutboxEvent{}, nil
	}
	matches = matches[offset:]
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *memoryOutboxRepo) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	kept := m.events[:0]
	for _, event := range m.events {
		if event.ProcessedAt != nil && event.ProcessedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	m.events = kept
	return deleted, nil
}

func (m *memoryOutboxRepo) DeleteDeadLetteredBefore(_ context.Context, maxAttempts int, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	kept := m.events[:0]
	for _, event := range m.events {
		if event.DeadLettered(maxAttempts) && event.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	m.events = kept
	return deleted, nil
}

func (m *memoryOutboxRepo) Stats(_ context.Context, now time.Time, maxAttempts int) (*domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.Stats{}
	var latencySum float64
	var latencyCount int64
	for _, event := range m.events {
		switch {
		case event.Pending(maxAttempts):
			stats.PendingEvents++
		case event.DeadLettered(maxAttempts):
			stats.FailedEvents++
		case event.ProcessedAt != nil:
			if event.ProcessedAt.After(now.Add(-1 * time.Hour)) {
				stats.ProcessedLastHour++
			}
			if event.ProcessedAt.After(now.Add(-24 * time.Hour)) {
				stats.ProcessedLast24h++
			}
			latencySum += float64(event.ProcessedAt.Sub(event.CreatedAt).Milliseconds())
			latencyCount++
		}
	}
	stats.QueueDepth = stats.PendingEvents
	if latencyCount > 0 {
		stats.AverageProcessingTimeMs = latencySum / float64(latencyCount)
	}
	return stats, nil
}

func (m *memoryOutboxRepo) get(id uuid.UUID) *domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.ID == id {
			return event
		}
	}
	return nil
}
