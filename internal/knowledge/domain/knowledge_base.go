package domain

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeBaseStatus represents the lifecycle state of a knowledge base.
type KnowledgeBaseStatus string

const (
	KnowledgeBaseStatusActive   KnowledgeBaseStatus = "active"
	KnowledgeBaseStatusArchived KnowledgeBaseStatus = "archived"
)

// KnowledgeBase represents a tenant knowledge base. Each KB owns a vector
// collection and an object-storage prefix named by its id.
type KnowledgeBase struct {
	ID        uuid.UUID
	Name      string
	Status    KnowledgeBaseStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the KB participates in reconciliation scans.
func (kb *KnowledgeBase) Active() bool {
	return kb.Status == KnowledgeBaseStatusActive
}
