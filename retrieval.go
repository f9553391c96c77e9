package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nkosuri/docqa/docstore"
)

// Coordinator turns a batch of questions into one merged context
// string for the synthesizer. Chunks retrieved for several questions
// are deduplicated, keeping the best score.
type Coordinator struct {
	log            *slog.Logger
	topK           int
	smallDocChunks int
	contextBudget  int
}

func NewCoordinator(log *slog.Logger, topK, smallDocChunks, contextBudget int) *Coordinator {
	return &Coordinator{
		log:            log,
		topK:           topK,
		smallDocChunks: smallDocChunks,
		contextBudget:  contextBudget,
	}
}

// BuildContext retrieves per-question results, merges them, and
// formats the capped context block. A failed search for one question
// degrades to the remaining questions; only total failure is an
// error.
func (c *Coordinator) BuildContext(ctx context.Context, idx docstore.Index, questions []string) (string, error) {
	merged, err := c.Merge(ctx, idx, questions)
	if err != nil {
		return "", err
	}

	return c.Format(merged), nil
}

// Merge collects top-k results for each question and deduplicates
// them by chunk ID, keeping the highest score. Small documents skip
// retrieval and use every chunk.
func (c *Coordinator) Merge(ctx context.Context, idx docstore.Index, questions []string) ([]docstore.RetrievalResult, error) {
	if idx.Count() == 0 {
		return nil, nil
	}

	// Retrieval over a handful of chunks only risks dropping the one
	// that matters.
	if idx.Count() < c.smallDocChunks {
		all, err := idx.All(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load small document chunks: %w", err)
		}

		return all, nil
	}

	// Dedup key is the chunk text: the same chunk retrieved for two
	// questions collapses, and so do distinct chunks with identical
	// content.
	best := make(map[string]docstore.RetrievalResult)
	failed := 0
	for _, q := range questions {
		results, err := idx.Search(ctx, q, c.topK)
		if err != nil {
			failed++
			c.log.Warn("retrieval failed for question", "question", q, "error", err)
			continue
		}

		for _, r := range results {
			if prev, ok := best[r.Content]; !ok || r.Score > prev.Score {
				best[r.Content] = r
			}
		}
	}

	if failed == len(questions) && len(questions) > 0 {
		return nil, fmt.Errorf("retrieval failed for all %d questions", failed)
	}

	// Nothing scored anywhere: serve a capped slice of the document
	// rather than a guaranteed "not found" answer.
	if len(best) == 0 {
		all, err := idx.All(ctx, c.topK)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback chunks: %w", err)
		}

		return all, nil
	}

	merged := make([]docstore.RetrievalResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].Score != merged[b].Score {
			return merged[a].Score > merged[b].Score
		}

		return merged[a].ChunkID < merged[b].ChunkID
	})
	for i := range merged {
		merged[i].Rank = i + 1
	}

	return merged, nil
}

// Format renders results as labeled context sections within the
// character budget. Sections are whole: one that would cross the
// budget is dropped, not truncated mid-chunk.
func (c *Coordinator) Format(results []docstore.RetrievalResult) string {
	var sb strings.Builder
	section := 0
	for _, r := range results {
		header := fmt.Sprintf("--- Context Section %d (Relevance: %.3f, ID: %s) ---\n", section+1, r.Score, r.ChunkID)
		block := header + r.Content + "\n\n"
		if sb.Len() > 0 && sb.Len()+len(block) > c.contextBudget {
			break
		}
		sb.WriteString(block)
		section++
	}

	return strings.TrimSpace(sb.String())
}
