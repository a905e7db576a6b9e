// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Event types dispatched through the outbox. The set is closed: the dispatcher
// routes by exact match against its handler registry and leaves unknown types
// untouched.
const (
	EventTypeDocumentProcess   = "document.process"
	EventTypeDocumentDelete    = "document.delete"
	EventTypeDocumentReprocess = "document.reprocess"
	EventTypeKBDelete          = "kb.delete"
)

// MaxLastErrorLength bounds the stored failure message so repeated retries
// of a noisy handler cannot grow the row without limit.
const MaxLastErrorLength = 1000

// OutboxEvent is one row of the transactional outbox. It is written by the
// business layer in the same transaction as the entity mutation it accompanies
// and mutated only by the dispatcher (attempts, last_error, processed_at).
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	AggregateID uuid.UUID
	Payload     string
	Attempts    int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Pending reports whether the event still awaits a successful dispatch and
// has retry budget left.
func (e *OutboxEvent) Pending(maxAttempts int) bool {
	return e.ProcessedAt == nil && e.Attempts < maxAttempts
}

// DeadLettered reports whether the event exhausted its retry budget without
// ever succeeding. Dead-lettered events are never retried again.
func (e *OutboxEvent) DeadLettered(maxAttempts int) bool {
	return e.ProcessedAt == nil && e.Attempts >= maxAttempts
}

// TruncateError bounds a failure message to MaxLastErrorLength bytes. The
// cut lands on a rune boundary: the stored value must stay valid UTF-8 or
// PostgreSQL rejects the whole UPDATE.
func TruncateError(message string) string {
	if len(message) <= MaxLastErrorLength {
		return message
	}
	cut := MaxLastErrorLength
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}

// DispatchReport summarizes a single dispatch tick.
type DispatchReport struct {
	Claimed      int
	Processed    int
	Failed       int
	DeadLettered int
	Unregistered int
}

// SweepReport summarizes a retention sweep. The two counts are tracked
// separately because processed and dead-lettered rows have different
// retention windows.
type SweepReport struct {
	ProcessedDeleted  int64
	DeadLetterDeleted int64
}

// EventFilter narrows event listings for the admin API. State is one of
// "pending", "processed", "dead" or empty for all; a zero AggregateID means
// no aggregate filter.
type EventFilter struct {
	State       string
	AggregateID uuid.UUID
}

// Stats is a read-only snapshot of outbox health for operational visibility.
type Stats struct {
	PendingEvents           int64
	FailedEvents            int64
	ProcessedLastHour       int64
	ProcessedLast24h        int64
	QueueDepth              int64
	AverageProcessingTimeMs float64
}
