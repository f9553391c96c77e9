package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/nkosuri/docqa/cache"
	"github.com/nkosuri/docqa/chunker"
	"github.com/nkosuri/docqa/docstore"
	"github.com/nkosuri/docqa/readers"
)

var (
	ErrNoDocuments = errors.New("no documents provided")
	ErrNoQuestions = errors.New("no questions provided")
)

// Engine runs the full question answering pipeline: fetch, extract,
// chunk, index (through the cache), retrieve, and synthesize.
type Engine struct {
	log         *slog.Logger
	fetcher     *readers.Fetcher
	extractor   *readers.UniversalReader
	chunker     *chunker.Chunker
	cache       *cache.Cache
	embedder    docstore.Embedder
	chroma      *docstore.ChromaStore
	coordinator *Coordinator
	synth       *Synthesizer

	mu     sync.Mutex
	pathFP map[string]string
}

type EngineConfig struct {
	Log         *slog.Logger
	Fetcher     *readers.Fetcher
	Extractor   *readers.UniversalReader
	Chunker     *chunker.Chunker
	Cache       *cache.Cache
	Embedder    docstore.Embedder
	Chroma      *docstore.ChromaStore
	Coordinator *Coordinator
	Synthesizer *Synthesizer
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		log:         cfg.Log,
		fetcher:     cfg.Fetcher,
		extractor:   cfg.Extractor,
		chunker:     cfg.Chunker,
		cache:       cfg.Cache,
		embedder:    cfg.Embedder,
		chroma:      cfg.Chroma,
		coordinator: cfg.Coordinator,
		synth:       cfg.Synthesizer,
		pathFP:      make(map[string]string),
	}
}

// AnswerQuestions answers every question against the given documents.
// The result always has one answer per question, in question order.
func (e *Engine) AnswerQuestions(ctx context.Context, docs []string, questions []string, docType string) ([]string, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if docType == "" {
		docType = inferDocType(docs)
	}

	chunks, fp, localPaths, err := e.prepare(ctx, docs, docType)
	if err != nil {
		return nil, err
	}
	e.rememberPaths(localPaths, fp)

	idx, hit, err := e.cache.GetOrBuild(ctx, fp, func(ctx context.Context) (docstore.Index, error) {
		return e.buildIndex(ctx, fp, chunks)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("document index ready", "fingerprint", fp, "chunks", idx.Count(), "cache_hit", hit)

	contextText, err := e.coordinator.BuildContext(ctx, idx, questions)
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieval context: %w", err)
	}

	return e.synth.Answer(ctx, contextText, questions)
}

// prepare fetches and chunks every document, returning the combined
// chunk list, the content fingerprint, and any local file paths for
// watcher bookkeeping. The fingerprint covers document bytes and the
// document type, since the type changes how text is chunked.
func (e *Engine) prepare(ctx context.Context, docs []string, docType string) ([]chunker.Chunk, string, []string, error) {
	hash := sha256.New()
	hash.Write([]byte(docType))

	var chunks []chunker.Chunk
	var localPaths []string
	for i, doc := range docs {
		data, contentType, err := e.fetcher.Fetch(ctx, doc)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to fetch document %s: %w", doc, err)
		}
		hash.Write(data)

		text, err := e.extractor.ExtractText(docName(doc), contentType, data)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to extract document %s: %w", doc, err)
		}

		docChunks := e.chunker.Chunk(text, docType)
		if len(docs) > 1 {
			prefixChunkIDs(docChunks, fmt.Sprintf("d%d_", i))
		}
		chunks = append(chunks, docChunks...)

		if p, ok := localPath(doc); ok {
			localPaths = append(localPaths, p)
		}
	}

	return chunks, hex.EncodeToString(hash.Sum(nil)), localPaths, nil
}

func (e *Engine) buildIndex(ctx context.Context, fingerprint string, chunks []chunker.Chunk) (docstore.Index, error) {
	if e.chroma != nil {
		return e.chroma.Build(ctx, fingerprint, chunks)
	}

	return docstore.BuildMemoryIndex(ctx, e.embedder, chunks)
}

// InvalidatePath drops the cached index built from a local file that
// has changed on disk. Unknown paths are ignored.
func (e *Engine) InvalidatePath(p string) {
	e.mu.Lock()
	fp, ok := e.pathFP[p]
	if ok {
		delete(e.pathFP, p)
	}
	e.mu.Unlock()

	if ok {
		e.cache.Invalidate(fp)
		e.log.Info("invalidated cached index for changed file", "path", p)
	}
}

func (e *Engine) rememberPaths(paths []string, fingerprint string) {
	if len(paths) == 0 {
		return
	}

	e.mu.Lock()
	for _, p := range paths {
		e.pathFP[p] = fingerprint
	}
	e.mu.Unlock()
}

func prefixChunkIDs(chunks []chunker.Chunk, prefix string) {
	for i := range chunks {
		chunks[i].ID = prefix + chunks[i].ID
		if chunks[i].Parent != "" {
			chunks[i].Parent = prefix + chunks[i].Parent
		}
	}
}

// inferDocType guesses the document type from its URLs when the
// caller does not state one.
func inferDocType(docs []string) string {
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc), "resume") {
			return "resume"
		}
	}

	return "general"
}

func docName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return path.Base(u.Path)
}

func localPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if u.Scheme == "file" || u.Scheme == "" {
		return u.Path, true
	}

	return "", false
}
