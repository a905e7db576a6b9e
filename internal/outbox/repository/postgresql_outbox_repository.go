// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/database"
	"github.com/allisson/kbsync/internal/outbox/domain"
)

// PostgreSQLOutboxEventRepository handles outbox event persistence for PostgreSQL.
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a new PostgreSQLOutboxEventRepository.
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event.
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, aggregate_id, payload, attempts, last_error, processed_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.AggregateID,
		event.Payload, event.Attempts, event.LastError, event.ProcessedAt)

	return err
}

// ClaimPending selects up to limit unprocessed events that still have retry
// budget, oldest first. Rows already locked by a concurrent dispatcher are
// skipped rather than waited on, so two dispatchers never claim the same
// event. Must be called inside a transaction; the claim is released when the
// transaction ends.
func (r *PostgreSQLOutboxEventRepository) ClaimPending(
	ctx context.Context,
	limit int,
	maxAttempts int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, aggregate_id, payload, attempts, last_error, processed_at, created_at
			  FROM outbox_events
			  WHERE processed_at IS NULL AND attempts < $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent

		err := rows.Scan(&event.ID, &event.EventType, &event.AggregateID, &event.Payload,
			&event.Attempts, &event.LastError, &event.ProcessedAt, &event.CreatedAt)
		if err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// MarkProcessed records a successful dispatch. processed_at is set exactly
// once: a row that already has it keeps its original timestamp.
func (r *PostgreSQLOutboxEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET processed_at = $1, last_error = NULL
			  WHERE id = $2 AND processed_at IS NULL`

	_, err := querier.ExecContext(ctx, query, now, id)
	return err
}

// MarkFailed records a failed dispatch attempt and returns the new attempt
// count, letting the caller detect the dead-letter boundary atomically.
func (r *PostgreSQLOutboxEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET attempts = attempts + 1, last_error = $1
			  WHERE id = $2
			  RETURNING attempts`

	var attempts int
	err := querier.QueryRowContext(ctx, query, domain.TruncateError(lastError), id).Scan(&attempts)
	return attempts, err
}

// HasPending reports whether an unprocessed event of the given type already
// references the aggregate. Used by the reconciler to keep corrective
// enqueuing idempotent across consecutive scans.
func (r *PostgreSQLOutboxEventRepository) HasPending(
	ctx context.Context,
	eventType string,
	aggregateID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (
				SELECT 1 FROM outbox_events
				WHERE event_type = $1 AND aggregate_id = $2 AND processed_at IS NULL
			  )`

	var exists bool
	err := querier.QueryRowContext(ctx, query, eventType, aggregateID).Scan(&exists)
	return exists, err
}

// List returns events matching the filter for the admin API, newest first.
func (r *PostgreSQLOutboxEventRepository) List(
	ctx context.Context,
	filter domain.EventFilter,
	maxAttempts int,
	offset, limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, aggregate_id, payload, attempts, last_error, processed_at, created_at
			  FROM outbox_events`

	var conditions []string
	var args []any
	switch filter.State {
	case "pending":
		args = append(args, maxAttempts)
		conditions = append(conditions, fmt.Sprintf("processed_at IS NULL AND attempts < $%d", len(args)))
	case "processed":
		conditions = append(conditions, "processed_at IS NOT NULL")
	case "dead":
		args = append(args, maxAttempts)
		conditions = append(conditions, fmt.Sprintf("processed_at IS NULL AND attempts >= $%d", len(args)))
	}
	if filter.AggregateID != uuid.Nil {
		args = append(args, filter.AggregateID)
		conditions = append(conditions, fmt.Sprintf("aggregate_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, offset, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent

		err := rows.Scan(&event.ID, &event.EventType, &event.AggregateID, &event.Payload,
			&event.Attempts, &event.LastError, &event.ProcessedAt, &event.CreatedAt)
		if err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// DeleteProcessedBefore removes processed events older than the cutoff and
// returns the number of rows deleted.
func (r *PostgreSQLOutboxEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM outbox_events
			  WHERE processed_at IS NOT NULL AND processed_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// DeleteDeadLetteredBefore removes dead-lettered events created before the
// cutoff and returns the number of rows deleted. Dead-lettered rows get a
// longer retention window to support postmortem analysis.
func (r *PostgreSQLOutboxEventRepository) DeleteDeadLetteredBefore(
	ctx context.Context,
	maxAttempts int,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM outbox_events
			  WHERE processed_at IS NULL AND attempts >= $1 AND created_at < $2`

	result, err := querier.ExecContext(ctx, query, maxAttempts, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Stats computes queue health counters in a single aggregate pass plus a
// bounded latency sample over the 100 most recently processed events.
func (r *PostgreSQLOutboxEventRepository) Stats(
	ctx context.Context,
	now time.Time,
	maxAttempts int,
) (*domain.Stats, error) {
	querier := database.GetTx(ctx, r.db)

	countsQuery := `SELECT
			COUNT(*) FILTER (WHERE processed_at IS NULL AND attempts < $1),
			COUNT(*) FILTER (WHERE processed_at IS NULL AND attempts >= $1),
			COUNT(*) FILTER (WHERE processed_at IS NOT NULL AND processed_at >= $2),
			COUNT(*) FILTER (WHERE processed_at IS NOT NULL AND processed_at >= $3)
		FROM outbox_events`

	var stats domain.Stats
	err := querier.QueryRowContext(ctx, countsQuery, maxAttempts,
		now.Add(-1*time.Hour), now.Add(-24*time.Hour)).
		Scan(&stats.PendingEvents, &stats.FailedEvents, &stats.ProcessedLastHour, &stats.ProcessedLast24h)
	if err != nil {
		return nil, err
	}

	latencyQuery := `SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (processed_at - created_at)) * 1000), 0)
		FROM (
			SELECT processed_at, created_at
			FROM outbox_events
			WHERE processed_at IS NOT NULL
			ORDER BY processed_at DESC
			LIMIT 100
		) recent`

	if err := querier.QueryRowContext(ctx, latencyQuery).Scan(&stats.AverageProcessingTimeMs); err != nil {
		return nil, err
	}

	stats.QueueDepth = stats.PendingEvents
	return &stats, nil
}
