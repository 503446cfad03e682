// Package answer turns ranked retrieval hits into grounded per-candidate
// answers: stable grouping by source document, one constrained prompt and
// one model call per candidate.
package answer

import "cvrag/internal/core"

// Aggregate groups hits by doc_id. Candidate order follows the first
// appearance of each doc_id in the ranked input, so the candidate whose
// best hit ranked highest comes first. Within a candidate, hits keep their
// original global rank order; they are not re-sorted by page or block.
// Every input hit lands in exactly one context, none are dropped.
func Aggregate(hits []core.RetrievalHit) []core.CandidateContext {
	var contexts []core.CandidateContext
	byDoc := make(map[string]int)

	for _, hit := range hits {
		i, ok := byDoc[hit.Block.DocID]
		if !ok {
			i = len(contexts)
			byDoc[hit.Block.DocID] = i
			contexts = append(contexts, core.CandidateContext{DocID: hit.Block.DocID})
		}
		contexts[i].Hits = append(contexts[i].Hits, hit)
	}

	return contexts
}
