// Package dto provides data transfer objects for the outbox admin API.
package dto

import (
	"time"

	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// StatsResponse represents outbox health in API responses.
type StatsResponse struct {
	PendingEvents           int64   `json:"pending_events"`
	FailedEvents            int64   `json:"failed_events"`
	ProcessedLastHour       int64   `json:"processed_last_hour"`
	ProcessedLast24h        int64   `json:"processed_last_24h"`
	QueueDepth              int64   `json:"queue_depth"`
	AverageProcessingTimeMs float64 `json:"average_processing_time_ms"`
}

// MapStatsToResponse converts domain stats to an API response.
func MapStatsToResponse(stats *outboxDomain.Stats) StatsResponse {
	return StatsResponse{
		PendingEvents:           stats.PendingEvents,
		FailedEvents:            stats.FailedEvents,
		ProcessedLastHour:       stats.ProcessedLastHour,
		ProcessedLast24h:        stats.ProcessedLast24h,
		QueueDepth:              stats.QueueDepth,
		AverageProcessingTimeMs: stats.AverageProcessingTimeMs,
	}
}

// EventResponse represents an outbox event in API responses.
type EventResponse struct {
	ID          string     `json:"id"`
	EventType   string     `json:"event_type"`
	AggregateID string     `json:"aggregate_id"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListEventsResponse represents a paginated list of outbox events.
type ListEventsResponse struct {
	Data []EventResponse `json:"data"`
}

// MapEventsToListResponse converts domain events to a list response. Payloads
// are omitted: they can hold tenant data the admin surface has no need for.
func MapEventsToListResponse(events []*outboxDomain.OutboxEvent) ListEventsResponse {
	data := make([]EventResponse, 0, len(events))
	for _, event := range events {
		data = append(data, EventResponse{
			ID:          event.ID.String(),
			EventType:   event.EventType,
			AggregateID: event.AggregateID.String(),
			Attempts:    event.Attempts,
			LastError:   event.LastError,
			ProcessedAt: event.ProcessedAt,
			CreatedAt:   event.CreatedAt,
		})
	}

	return ListEventsResponse{
		Data: data,
	}
}
