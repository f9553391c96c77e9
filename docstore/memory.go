package docstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nkosuri/docqa/chunker"
)

// MemoryIndex is a brute-force inner-product index over one document.
// Vectors are L2-normalized at build time, so the inner product of a
// normalized query equals cosine similarity. Chunks and vectors are
// never mutated after the build.
type MemoryIndex struct {
	embed   Embedder
	chunks  []chunker.Chunk
	vectors [][]float64
	dim     int
}

var _ Index = (*MemoryIndex)(nil)

// BuildMemoryIndex embeds the chunk texts and stores the normalized
// vectors. Building from zero chunks is valid: searches on the result
// return nothing.
func BuildMemoryIndex(ctx context.Context, embed Embedder, chunks []chunker.Chunk) (*MemoryIndex, error) {
	idx := &MemoryIndex{embed: embed, chunks: chunks}
	if len(chunks) == 0 {
		return idx, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	vectors, err := embed.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	idx.dim = len(vectors[0])
	for i, v := range vectors {
		if len(v) != idx.dim {
			return nil, fmt.Errorf("chunk %d: %w: got %d, want %d", i, ErrDimensionMismatch, len(v), idx.dim)
		}
		normalize(v)
	}
	idx.vectors = vectors

	return idx, nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	if len(m.vectors) == 0 || topK <= 0 {
		return nil, nil
	}

	qv, err := m.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return m.SearchVector(qv, topK)
}

// SearchVector ranks chunks against a raw query vector. Ties in score
// are broken by chunk insertion order.
func (m *MemoryIndex) SearchVector(query []float64, topK int) ([]RetrievalResult, error) {
	if len(m.vectors) == 0 || topK <= 0 {
		return nil, nil
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), m.dim)
	}

	q := make([]float64, len(query))
	copy(q, query)
	normalize(q)

	scores := make([]float64, len(m.vectors))
	for i, v := range m.vectors {
		scores[i] = dot(q, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	results := make([]RetrievalResult, 0, topK)
	for rank, i := range order[:topK] {
		results = append(results, RetrievalResult{
			ChunkID: m.chunks[i].ID,
			Content: m.chunks[i].Content,
			Score:   scores[i],
			Rank:    rank + 1,
		})
	}

	return results, nil
}

func (m *MemoryIndex) All(_ context.Context, limit int) ([]RetrievalResult, error) {
	n := len(m.chunks)
	if limit > 0 && limit < n {
		n = limit
	}

	results := make([]RetrievalResult, 0, n)
	for i, ch := range m.chunks[:n] {
		results = append(results, RetrievalResult{
			ChunkID: ch.ID,
			Content: ch.Content,
			Score:   1.0,
			Rank:    i + 1,
		})
	}

	return results, nil
}

func (m *MemoryIndex) Count() int {
	return len(m.chunks)
}

// normalize scales v to unit length in place. Zero vectors are left
// untouched so they score 0 against everything.
func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}

	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}
