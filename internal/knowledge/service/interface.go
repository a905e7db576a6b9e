// Package service provides clients for the external stores the knowledge
// pipeline spans: the vector store and the object store, plus the opaque
// ingestion pipeline.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// VectorPoint is one embedded chunk stored in a KB's vector collection.
type VectorPoint struct {
	ChunkIndex int
	Content    string
	Embedding  pgvector.Vector
}

// VectorStore abstracts the per-KB vector collections. Every point carries
// the owning kb_id and document_id in its payload so reconciliation can
// cross-reference collections against the relational store.
type VectorStore interface {
	// UpsertPoints replaces the points for a document within its KB collection.
	UpsertPoints(ctx context.Context, kbID, documentID uuid.UUID, points []VectorPoint) error

	// HasDocumentPoints reports whether the KB collection contains at least
	// one point tagged with the document id.
	HasDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) (bool, error)

	// ScrollDocumentIDs returns up to limit distinct document ids present in
	// the KB collection, strictly after the cursor in id order. Pass uuid.Nil
	// to start; a result shorter than limit marks the end. Callers must loop:
	// collections do not fit in one page.
	ScrollDocumentIDs(ctx context.Context, kbID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error)

	// DeleteDocumentPoints removes all points for one document. Removing a
	// document with no points is a no-op, not an error.
	DeleteDocumentPoints(ctx context.Context, kbID, documentID uuid.UUID) error

	// DeleteCollection removes the KB's entire collection. Deleting an absent
	// collection is a no-op, not an error.
	DeleteCollection(ctx context.Context, kbID uuid.UUID) error
}

// ObjectStore abstracts the KB storage bucket. Keys are laid out
// "kb/{kb_id}/{document_id}/{file_name}".
type ObjectStore interface {
	// ListKeys returns all object keys under the prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Delete removes one object. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every object under the prefix and returns the
	// number of objects removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Ingestor is the opaque ingestion pipeline (parsing, chunking, embedding).
// The outbox handlers trigger it; its internals live elsewhere.
type Ingestor interface {
	Ingest(ctx context.Context, kbID, documentID uuid.UUID) error
}
