package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cvrag/internal/core"
)

// MemoryStore is a brute-force in-memory VectorStore. It mirrors the
// Milvus-backed store's semantics exactly so tests and small corpora can
// run without a backend. Vectors are expected unit-normalized, so
// similarity is plain inner product.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.IndexEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]core.IndexEntry)}
}

// Ensure is a no-op for the in-memory store.
func (s *MemoryStore) Ensure(ctx context.Context) error { return nil }

// Has reports whether key is present.
func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok, nil
}

// Put stores the entry under its block key.
func (s *MemoryStore) Put(ctx context.Context, entry core.IndexEntry) error {
	key := core.BlockKey(entry.Block)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("memory store: duplicate key %q", key)
	}
	s.entries[key] = entry
	return nil
}

// Search scores every stored entry against the query vector and returns
// the topK best, descending by score with key order breaking ties.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, topK int) ([]core.RetrievalHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		key string
		hit core.RetrievalHit
	}
	all := make([]scored, 0, len(s.entries))
	for key, e := range s.entries {
		all = append(all, scored{key: key, hit: core.RetrievalHit{
			Block: e.Block,
			Score: dot(e.Vector, vector),
		}})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].hit.Score != all[j].hit.Score {
			return all[i].hit.Score > all[j].hit.Score
		}
		return all[i].key < all[j].key
	})

	if topK > len(all) {
		topK = len(all)
	}
	hits := make([]core.RetrievalHit, 0, topK)
	for _, s := range all[:topK] {
		hits = append(hits, s.hit)
	}
	return hits, nil
}

// Count reports the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
