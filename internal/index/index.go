// Package index maintains the incremental vector index: content-addressed
// writes that skip already-present blocks, and similarity queries that
// resolve a question to ranked block hits.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cvrag/internal/core"
	"cvrag/internal/logger"
)

// BlockStatus is the per-block outcome of an upsert batch.
type BlockStatus string

const (
	StatusAdded   BlockStatus = "added"
	StatusSkipped BlockStatus = "skipped"
	StatusFailed  BlockStatus = "failed"
)

// BlockResult records what happened to one block during Upsert.
type BlockResult struct {
	Key    string      `json:"key"`
	Status BlockStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// UpsertReport summarizes an upsert batch. Partial success is normal:
// blocks fail individually, never as one aggregate boolean.
type UpsertReport struct {
	Added   int           `json:"added"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Blocks  []BlockResult `json:"blocks"`
}

// Index is the incremental index handle: an explicit resource composing a
// vector store and an embedding service. It is never ambient; every caller
// receives it explicitly, so tests can substitute an in-memory store with
// identical semantics.
type Index struct {
	store    core.VectorStore
	embedder core.EmbedService

	// locks linearizes the exists-check plus write per key. Concurrent
	// upserts to distinct keys proceed in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an index over the given store and embedder.
func New(store core.VectorStore, embedder core.EmbedService) *Index {
	return &Index{
		store:    store,
		embedder: embedder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Upsert writes each block under its deterministic key, skipping keys that
// already exist. Skipping means no re-embedding and no overwrite, which
// makes repeated runs over the same document a no-op after the first
// successful one. A block failure is recorded and does not stop the batch;
// only context cancellation does. Entries committed before cancellation
// stay committed — idempotence makes the remainder safe to retry.
func (x *Index) Upsert(ctx context.Context, blocks []core.Block) (UpsertReport, error) {
	report := UpsertReport{Blocks: make([]BlockResult, 0, len(blocks))}

	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("upsert interrupted: %w", err)
		}

		key := core.BlockKey(block)
		result := x.upsertOne(ctx, key, block)
		report.Blocks = append(report.Blocks, result)
		switch result.Status {
		case StatusAdded:
			report.Added++
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failed++
		}
	}

	logger.Debug("upsert batch done: %d added, %d skipped, %d failed", report.Added, report.Skipped, report.Failed)
	return report, nil
}

func (x *Index) upsertOne(ctx context.Context, key string, block core.Block) BlockResult {
	lock := x.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	exists, err := x.store.Has(ctx, key)
	if err != nil {
		return BlockResult{Key: key, Status: StatusFailed, Error: fmt.Sprintf("existence check: %v", err)}
	}
	if exists {
		return BlockResult{Key: key, Status: StatusSkipped}
	}

	vector, err := x.embedder.EmbedText(ctx, block.Text)
	if err != nil {
		return BlockResult{Key: key, Status: StatusFailed, Error: fmt.Sprintf("embed: %v", err)}
	}

	if err := x.store.Put(ctx, core.IndexEntry{Block: block, Vector: vector}); err != nil {
		return BlockResult{Key: key, Status: StatusFailed, Error: fmt.Sprintf("store: %v", err)}
	}
	return BlockResult{Key: key, Status: StatusAdded}
}

func (x *Index) keyLock(key string) *sync.Mutex {
	x.mu.Lock()
	defer x.mu.Unlock()
	lock, ok := x.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		x.locks[key] = lock
	}
	return lock
}

// Query embeds the question and returns up to topK hits ordered by
// descending similarity, ties broken by key order. An empty index yields
// an empty slice, not an error: callers treat it as "no evidence".
// Results are deterministic for a fixed index state and question.
func (x *Index) Query(ctx context.Context, question string, topK int) ([]core.RetrievalHit, error) {
	count, err := x.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("index count: %w", err)
	}
	if count == 0 {
		logger.Debug("query against empty index: no evidence")
		return nil, nil
	}

	vector, err := x.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := x.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	// The store already ranks, but tie order is backend-specific; re-sort
	// so score ties break by key everywhere.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return core.BlockKey(hits[i].Block) < core.BlockKey(hits[j].Block)
	})
	return hits, nil
}
