package answer

import (
	"context"
	"sync"

	"cvrag/internal/core"
	"cvrag/internal/logger"
)

// DefaultMaxConcurrent bounds simultaneous generative-model calls.
const DefaultMaxConcurrent = 3

// Synthesizer produces one grounded answer per candidate.
type Synthesizer struct {
	llm           core.LLMService
	maxConcurrent int
}

// NewSynthesizer creates a synthesizer over the given model service.
// Non-positive maxConcurrent falls back to DefaultMaxConcurrent.
func NewSynthesizer(llm core.LLMService, maxConcurrent int) *Synthesizer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Synthesizer{llm: llm, maxConcurrent: maxConcurrent}
}

// Synthesize asks the model the question once per candidate, each call
// restricted to that candidate's aggregated context. Calls are independent
// and dispatched concurrently up to the configured bound; output order
// matches candidate order regardless of completion order. A failed call
// yields an answer record carrying the error, not a batch failure.
//
// With no candidates at all the model is never called and the single fixed
// not-found result is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, contexts []core.CandidateContext, question string) []core.CandidateAnswer {
	if len(contexts) == 0 {
		return []core.CandidateAnswer{{Answer: NoCandidatesAnswer}}
	}

	answers := make([]core.CandidateAnswer, len(contexts))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, cc := range contexts {
		wg.Add(1)
		go func(i int, cc core.CandidateContext) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			answers[i] = s.answerCandidate(ctx, cc, question)
		}(i, cc)
	}
	wg.Wait()

	return answers
}

func (s *Synthesizer) answerCandidate(ctx context.Context, cc core.CandidateContext, question string) core.CandidateAnswer {
	texts := make([]string, len(cc.Hits))
	for i, hit := range cc.Hits {
		texts[i] = hit.Block.Text
	}

	prompt := BuildPrompt(texts, question)
	logger.Debug("synthesizing answer for candidate %s (%d context blocks)", cc.DocID, len(texts))

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		logger.Error("completion failed for candidate %s: %v", cc.DocID, err)
		return core.CandidateAnswer{DocID: cc.DocID, Err: err}
	}
	return core.CandidateAnswer{DocID: cc.DocID, Answer: text}
}
