// Package domain defines the knowledge-base domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing state of a document.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
	// DocumentStatusArchived marks a soft-deleted document. Archived rows are
	// excluded from the live document set but kept for audit.
	DocumentStatusArchived DocumentStatus = "archived"
)

// Document represents a document uploaded into a knowledge base.
type Document struct {
	ID                  uuid.UUID
	KnowledgeBaseID     uuid.UUID
	FileName            string
	Status              DocumentStatus
	ErrorMessage        *string
	RetryCount          int
	ProcessingStartedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Live reports whether the document counts toward the live document set used
// by reconciliation (anything not archived).
func (d *Document) Live() bool {
	return d.Status != DocumentStatusArchived
}

// StaleProcessing reports whether the document has been stuck in "processing"
// longer than the threshold, indicating a crashed or lost worker.
func (d *Document) StaleProcessing(now time.Time, threshold time.Duration) bool {
	if d.Status != DocumentStatusProcessing || d.ProcessingStartedAt == nil {
		return false
	}
	return now.Sub(*d.ProcessingStartedAt) > threshold
}
