// Package llm wraps the OpenAI API behind small embedding and
// generation interfaces, with a shared retry policy for transient
// failures.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the model answers with no
// choices or blank content.
var ErrEmptyCompletion = errors.New("model returned empty completion")

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into fixed-dimension vectors. Document and
// query embedding are separate calls so backends can batch the former.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}
