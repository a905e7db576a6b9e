package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnomalyType classifies one kind of cross-store drift found by a
// reconciliation scan.
type AnomalyType string

const (
	// AnomalyReadyWithoutVectors marks a ready document with no points in its
	// KB's vector collection.
	AnomalyReadyWithoutVectors AnomalyType = "ready-without-vectors"
	// AnomalyOrphanVector marks vector points whose document no longer exists
	// in the relational store.
	AnomalyOrphanVector AnomalyType = "orphan-vector"
	// AnomalyOrphanFile marks an object-store entry with no matching live
	// document.
	AnomalyOrphanFile AnomalyType = "orphan-file"
	// AnomalyStaleProcessing marks a document stuck in processing past the
	// stale threshold, presumed lost to a crashed worker.
	AnomalyStaleProcessing AnomalyType = "stale-processing"
)

// Anomaly is one drift finding. ObjectKey is set only for orphan-file
// anomalies; KnowledgeBaseID and DocumentID are zero when the object key
// could not be parsed.
type Anomaly struct {
	Type            AnomalyType
	KnowledgeBaseID uuid.UUID
	DocumentID      uuid.UUID
	ObjectKey       string
	DetectedAt      time.Time
}

// ReconciliationReport summarizes one scan across all four detection passes.
type ReconciliationReport struct {
	ScannedAt time.Time
	Anomalies []Anomaly
	// CorrectionsEnqueued counts document.reprocess events written for
	// resolvable anomalies during this scan.
	CorrectionsEnqueued int
}

// Total returns the anomaly count across all passes.
func (r *ReconciliationReport) Total() int {
	return len(r.Anomalies)
}

// CountByType breaks the anomaly total down per type.
func (r *ReconciliationReport) CountByType() map[AnomalyType]int {
	counts := map[AnomalyType]int{}
	for _, anomaly := range r.Anomalies {
		counts[anomaly.Type]++
	}
	return counts
}
