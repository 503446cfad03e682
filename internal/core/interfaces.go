package core

import "context"

// EmbedService maps text to a fixed-length vector. Implementations must be
// deterministic for identical input within one process lifetime and return
// unit-normalized vectors so that similarity reduces to inner product.
type EmbedService interface {
	// EmbedText generates an embedding for the given text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the index backend: keyed persistence of embedded blocks
// plus nearest-neighbor search. Implementations own their read consistency;
// callers own the skip-if-exists upsert protocol.
type VectorStore interface {
	// Ensure prepares the backing collection/namespace. Safe to call
	// repeatedly.
	Ensure(ctx context.Context) error

	// Has reports whether an entry with the given key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Put persists an entry under BlockKey(entry.Block). Callers never Put
	// the same key twice; duplicate keys reaching the backend are a bug.
	Put(ctx context.Context, entry IndexEntry) error

	// Search returns up to topK entries ranked by descending similarity to
	// the query vector.
	Search(ctx context.Context, vector []float32, topK int) ([]RetrievalHit, error)

	// Count reports the number of stored entries.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// LLMService is the generative-model collaborator: one synchronous
// completion per prompt, no streaming.
type LLMService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
