package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/kbsync/internal/validation"
)

// ListEventsRequest carries the query filters for listing outbox events.
type ListEventsRequest struct {
	State       string `form:"state"`
	AggregateID string `form:"aggregate_id"`
}

// Validate checks the lifecycle state and aggregate filters.
func (r ListEventsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.State, validation.In("", "pending", "processed", "dead")),
		validation.Field(&r.AggregateID, customValidation.UUID),
	)
}
