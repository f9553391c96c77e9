package docstore

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/nkosuri/docqa/chunker"
)

// Metadata attribute keys stored with every chunk.
const (
	AttrChunkID = "chunk_id"
	AttrSection = "section"
	AttrOrdinal = "ordinal"
)

// ChromaStore builds Chroma-backed indexes, one collection per
// document fingerprint. Embedding happens server-side through the
// configured embedding function, so queries go in as text.
type ChromaStore struct {
	client chroma.Client
	ef     embeddings.EmbeddingFunction
}

type ChromaStoreConfig struct {
	BaseURL       string
	EmbeddingFunc embeddings.EmbeddingFunction
}

func NewChromaStore(cfg ChromaStoreConfig) (*ChromaStore, error) {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	return &ChromaStore{client: client, ef: cfg.EmbeddingFunc}, nil
}

// Build replaces any existing collection for the fingerprint and adds
// the chunk texts. The returned index queries that collection only.
func (s *ChromaStore) Build(ctx context.Context, fingerprint string, chunks []chunker.Chunk) (*ChromaIndex, error) {
	name := collectionName(fingerprint)

	// Stale chunks from a previous build of the same document must not
	// leak into query results.
	_ = s.client.DeleteCollection(ctx, name)

	col, err := s.client.GetOrCreateCollection(ctx, name, chroma.WithEmbeddingFunctionCreate(s.ef))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	idx := &ChromaIndex{col: col, count: len(chunks)}
	if len(chunks) == 0 {
		return idx, nil
	}

	texts := make([]string, 0, len(chunks))
	metadatas := make([]chroma.DocumentMetadata, 0, len(chunks))
	for _, ch := range chunks {
		texts = append(texts, ch.Content)
		metadatas = append(metadatas, chroma.NewDocumentMetadata(
			chroma.NewStringAttribute(AttrChunkID, ch.ID),
			chroma.NewStringAttribute(AttrSection, ch.Section),
			chroma.NewIntAttribute(AttrOrdinal, int64(ch.Ordinal)),
		))
	}

	err = col.Add(ctx,
		chroma.WithTexts(texts...),
		chroma.WithIDGenerator(chroma.NewULIDGenerator()),
		chroma.WithMetadatas(metadatas...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add %d chunks to collection %s: %w", len(chunks), name, err)
	}

	return idx, nil
}

// Drop removes the collection for a fingerprint. Missing collections
// are not an error.
func (s *ChromaStore) Drop(ctx context.Context, fingerprint string) error {
	return s.client.DeleteCollection(ctx, collectionName(fingerprint))
}

func collectionName(fingerprint string) string {
	if len(fingerprint) > 12 {
		fingerprint = fingerprint[:12]
	}

	return "doc_" + fingerprint
}

// ChromaIndex adapts a single Chroma collection to the Index contract.
type ChromaIndex struct {
	col   chroma.Collection
	count int
}

var _ Index = (*ChromaIndex)(nil)

func (ci *ChromaIndex) Search(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	if ci.count == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > ci.count {
		topK = ci.count
	}

	r, err := ci.col.Query(ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	docGroups := r.GetDocumentsGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}
	metaGroups := r.GetMetadatasGroups()
	distGroups := r.GetDistancesGroups()

	docs := docGroups[0]
	results := make([]RetrievalResult, 0, len(docs))
	for i, doc := range docs {
		id := ""
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			id, _ = metaGroups[0][i].GetString(AttrChunkID)
		}
		score := 0.0
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			// Chroma reports cosine distance; flip it back to similarity.
			score = 1 - float64(distGroups[0][i])
		}
		results = append(results, RetrievalResult{
			ChunkID: id,
			Content: doc.ContentString(),
			Score:   score,
			Rank:    i + 1,
		})
	}

	return results, nil
}

func (ci *ChromaIndex) All(ctx context.Context, limit int) ([]RetrievalResult, error) {
	if ci.count == 0 {
		return nil, nil
	}

	r, err := ci.col.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection contents: %w", err)
	}

	docs := r.GetDocuments()
	metadatas := r.GetMetadatas()

	results := make([]RetrievalResult, 0, len(docs))
	for i, doc := range docs {
		if limit > 0 && len(results) >= limit {
			break
		}
		id := ""
		if i < len(metadatas) {
			id, _ = metadatas[i].GetString(AttrChunkID)
		}
		results = append(results, RetrievalResult{
			ChunkID: id,
			Content: doc.ContentString(),
			Score:   1.0,
			Rank:    i + 1,
		})
	}

	return results, nil
}

func (ci *ChromaIndex) Count() int {
	return ci.count
}
