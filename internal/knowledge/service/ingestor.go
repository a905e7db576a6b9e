package service

import (
	"context"
	"hash/fnv"
	"io"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gocloud.dev/blob"

	"github.com/allisson/kbsync/internal/errors"
)

const (
	// EmbeddingDim is the dimensionality of stored embeddings.
	EmbeddingDim = 256

	defaultChunkSize = 1000
)

// BlobIngestor ingests a document from the object store into the vector
// store: it reads every stored file, splits the content into fixed-size
// chunks and embeds each chunk with the feature-hashing trick. Hashed
// embeddings are a deterministic baseline; model-based embedders plug in
// behind the same Ingestor interface.
type BlobIngestor struct {
	bucket      *blob.Bucket
	vectorStore VectorStore
	chunkSize   int
}

// Ingest replaces the document's vector points with freshly embedded chunks.
// A document with no stored files produces zero points, which is an error:
// processing a document whose upload is gone cannot succeed.
func (b *BlobIngestor) Ingest(ctx context.Context, kbID, documentID uuid.UUID) error {
	iter := b.bucket.List(&blob.ListOptions{Prefix: DocumentPrefix(kbID, documentID)})

	points := []VectorPoint{}
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to list document files")
		}
		if obj.IsDir {
			continue
		}

		content, err := b.bucket.ReadAll(ctx, obj.Key)
		if err != nil {
			return errors.Wrap(err, "failed to read document file")
		}

		for _, chunk := range splitChunks(string(content), b.chunkSize) {
			points = append(points, VectorPoint{
				ChunkIndex: len(points),
				Content:    chunk,
				Embedding:  hashEmbedding(chunk),
			})
		}
	}

	if len(points) == 0 {
		return errors.New("no stored files to ingest")
	}

	return b.vectorStore.UpsertPoints(ctx, kbID, documentID, points)
}

// splitChunks cuts text into chunks of at most size bytes without splitting
// a rune. Chunk content is stored in a text column, so every chunk must stay
// valid UTF-8.
func splitChunks(text string, size int) []string {
	if text == "" {
		return nil
	}

	chunks := []string{}
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// Not UTF-8 at all, fall back to a plain byte cut.
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}

// hashEmbedding maps text into a normalized EmbeddingDim-dimensional vector
// via the hashing trick: each byte trigram increments one hashed dimension.
func hashEmbedding(text string) pgvector.Vector {
	values := make([]float32, EmbeddingDim)
	for i := 0; i+3 <= len(text); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text[i : i+3]))
		values[h.Sum32()%EmbeddingDim]++
	}

	var norm float64
	for _, v := range values {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range values {
			values[i] *= scale
		}
	}

	return pgvector.NewVector(values)
}

// NewBlobIngestor returns a new BlobIngestor.
func NewBlobIngestor(bucket *blob.Bucket, vectorStore VectorStore) *BlobIngestor {
	return &BlobIngestor{
		bucket:      bucket,
		vectorStore: vectorStore,
		chunkSize:   defaultChunkSize,
	}
}
