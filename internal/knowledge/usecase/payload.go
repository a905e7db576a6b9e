package usecase

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/errors"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

// ReprocessTriggerReconciliation tags corrective reprocess events enqueued by
// the scanner, as opposed to user-triggered re-uploads.
const ReprocessTriggerReconciliation = "reconciliation"

// ReprocessPayload is the payload of document.reprocess events. Reason names
// what triggered the reprocess and is carried into the handler's log entry.
type ReprocessPayload struct {
	Reason string `json:"reason"`
}

// DecodeReprocessPayload parses a document.reprocess payload. An empty
// payload is tolerated: older producers enqueued the event without one.
func DecodeReprocessPayload(payload string) (ReprocessPayload, error) {
	decoded := ReprocessPayload{}
	if payload == "" {
		return decoded, nil
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return decoded, errors.Wrap(err, "failed to decode reprocess payload")
	}
	return decoded, nil
}

// NewProcessEvent builds a document.process outbox event.
func NewProcessEvent(documentID uuid.UUID) *outboxDomain.OutboxEvent {
	return &outboxDomain.OutboxEvent{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   outboxDomain.EventTypeDocumentProcess,
		AggregateID: documentID,
		Payload:     "{}",
	}
}

// NewReprocessEvent builds a document.reprocess outbox event tagged with its
// trigger reason.
func NewReprocessEvent(documentID uuid.UUID, reason string) *outboxDomain.OutboxEvent {
	payload, _ := json.Marshal(ReprocessPayload{Reason: reason})
	return &outboxDomain.OutboxEvent{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   outboxDomain.EventTypeDocumentReprocess,
		AggregateID: documentID,
		Payload:     string(payload),
	}
}
