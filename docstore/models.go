// Package docstore holds the retrieval index backends: an in-memory
// inner-product index and an optional Chroma-backed one.
package docstore

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a query vector does not match
// the dimensionality of the stored vectors.
var ErrDimensionMismatch = errors.New("query vector dimension mismatch")

// RetrievalResult is one scored chunk from a similarity query.
// Produced per query, never persisted.
type RetrievalResult struct {
	ChunkID string
	Content string
	Score   float64
	Rank    int
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}

// Index serves top-k similarity queries over one indexed document.
type Index interface {
	// Search returns at most topK results ordered by descending
	// similarity. An empty index returns no results and no error.
	Search(ctx context.Context, query string, topK int) ([]RetrievalResult, error)

	// All returns every chunk with similarity pinned to 1.0, capped at
	// limit (0 means no cap). Used when retrieval would under-serve a
	// small document.
	All(ctx context.Context, limit int) ([]RetrievalResult, error)

	// Count reports the number of indexed chunks.
	Count() int
}
