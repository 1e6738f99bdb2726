package vectorindex

import (
	"context"
)

// Document is a passage being ingested into the index.
type Document struct {
	Id     string
	Text   string
	Vector []float32
}

// SearchHit is one nearest-neighbor result. Score is cosine similarity in
// [0, 1] for normalized vectors, higher is closer.
type SearchHit struct {
	Text  string
	Score float32
}

// VectorIndex is the narrow boundary to the vector store. The index name,
// dimension and distance metric are fixed at construction.
type VectorIndex interface {
	// EnsureExists creates the backing index if absent and waits, up to the
	// configured timeout, for it to become queryable. Idempotent.
	EnsureExists(ctx context.Context) error

	// Search returns the k nearest documents to the query vector, best first.
	Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error)

	// Upsert writes documents into the index. Used by the ingest tool.
	Upsert(ctx context.Context, docs []Document) error
}
