package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvrag/internal/core"
)

func hit(docID string, blockID int, score float64) core.RetrievalHit {
	return core.RetrievalHit{
		Block: core.Block{DocID: docID, Page: 1, BlockID: blockID, Text: "text"},
		Score: score,
	}
}

func TestAggregate_GroupsByFirstSeenDocID(t *testing.T) {
	hits := []core.RetrievalHit{
		hit("cv_b", 0, 0.9),
		hit("cv_a", 2, 0.8),
		hit("cv_b", 5, 0.7),
		hit("cv_a", 1, 0.6),
	}

	contexts := Aggregate(hits)

	require.Len(t, contexts, 2)
	assert.Equal(t, "cv_b", contexts[0].DocID, "candidate with the best hit comes first")
	assert.Equal(t, "cv_a", contexts[1].DocID)
}

func TestAggregate_PreservesRankOrderWithinCandidate(t *testing.T) {
	hits := []core.RetrievalHit{
		hit("cv_a", 7, 0.9), // later block ranked higher
		hit("cv_a", 2, 0.5),
	}

	contexts := Aggregate(hits)

	require.Len(t, contexts, 1)
	require.Len(t, contexts[0].Hits, 2)
	assert.Equal(t, 7, contexts[0].Hits[0].Block.BlockID, "hits are not re-sorted by page/block")
	assert.Equal(t, 2, contexts[0].Hits[1].Block.BlockID)
}

func TestAggregate_PartitionsWithoutLossOrDuplication(t *testing.T) {
	hits := []core.RetrievalHit{
		hit("cv_a", 0, 0.9),
		hit("cv_b", 0, 0.8),
		hit("cv_c", 0, 0.7),
		hit("cv_b", 1, 0.6),
		hit("cv_a", 1, 0.5),
	}

	contexts := Aggregate(hits)

	total := 0
	seen := make(map[string]bool)
	for _, cc := range contexts {
		assert.False(t, seen[cc.DocID], "each doc_id maps to exactly one context")
		seen[cc.DocID] = true
		total += len(cc.Hits)
		for _, h := range cc.Hits {
			assert.Equal(t, cc.DocID, h.Block.DocID)
		}
	}
	assert.Equal(t, len(hits), total, "union of contexts equals the input hit set")
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
