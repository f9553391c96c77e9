package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosuri/docqa/chunker"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.vectors[text], nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}

	return out, nil
}

func testChunks() []chunker.Chunk {
	return []chunker.Chunk{
		{ID: "section_0", Content: "alpha", Ordinal: 0},
		{ID: "section_1", Content: "beta", Ordinal: 1},
		{ID: "section_2", Content: "gamma", Ordinal: 2},
	}
}

func testEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
		"gamma": {0, 0, 1},
	}}
}

func Test_MemorySearch_IdenticalVector(t *testing.T) {
	idx, err := BuildMemoryIndex(context.Background(), testEmbedder(), testChunks())
	require.NoError(t, err)

	// Query vector identical to the third chunk's embedding.
	res, err := idx.SearchVector([]float64{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)

	assert.Equal(t, "section_2", res[0].ChunkID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
	assert.Equal(t, 1, res[0].Rank)
}

func Test_MemorySearch_Ordering(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0.6, 0.8},
		"gamma": {0, 1},
		"query": {1, 0.2},
	}}

	idx, err := BuildMemoryIndex(context.Background(), emb, testChunks())
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), "query", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, "section_0", res[0].ChunkID)
	assert.Equal(t, "section_1", res[1].ChunkID)
	assert.Equal(t, "section_2", res[2].ChunkID)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
		assert.Equal(t, i+1, res[i].Rank)
	}
}

func Test_MemorySearch_TieBreaksByInsertionOrder(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"alpha": {0, 1},
		"beta":  {1, 0},
		"gamma": {1, 0},
	}}

	idx, err := BuildMemoryIndex(context.Background(), emb, testChunks())
	require.NoError(t, err)

	res, err := idx.SearchVector([]float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)

	// beta and gamma score identically; beta was inserted first.
	assert.Equal(t, "section_1", res[0].ChunkID)
	assert.Equal(t, "section_2", res[1].ChunkID)
}

func Test_MemorySearch_TopKAboveCount(t *testing.T) {
	idx, err := BuildMemoryIndex(context.Background(), testEmbedder(), testChunks())
	require.NoError(t, err)

	res, err := idx.SearchVector([]float64{1, 1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func Test_MemorySearch_DimensionMismatch(t *testing.T) {
	idx, err := BuildMemoryIndex(context.Background(), testEmbedder(), testChunks())
	require.NoError(t, err)

	_, err = idx.SearchVector([]float64{1, 0}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func Test_MemoryBuild_Empty(t *testing.T) {
	idx, err := BuildMemoryIndex(context.Background(), testEmbedder(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Count())

	res, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func Test_MemoryBuild_EmbedderError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("backend down")}

	_, err := BuildMemoryIndex(context.Background(), emb, testChunks())
	require.Error(t, err)
}

func Test_MemoryBuild_RaggedVectors(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0, 0},
		"beta":  {0, 1},
		"gamma": {0, 0, 1},
	}}

	_, err := BuildMemoryIndex(context.Background(), emb, testChunks())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func Test_MemoryAll(t *testing.T) {
	idx, err := BuildMemoryIndex(context.Background(), testEmbedder(), testChunks())
	require.NoError(t, err)

	res, err := idx.All(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, res, 3)
	for i, r := range res {
		assert.Equal(t, 1.0, r.Score)
		assert.Equal(t, i+1, r.Rank)
	}

	capped, err := idx.All(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}
