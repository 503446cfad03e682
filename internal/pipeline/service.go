// Package pipeline wires the processing stages into the two operations
// the rest of the program calls: ingesting OCR documents into the vector
// index, and answering a question against everything indexed so far.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"cvrag/internal/answer"
	"cvrag/internal/clean"
	"cvrag/internal/core"
	"cvrag/internal/docio"
	"cvrag/internal/index"
	"cvrag/internal/logger"
	"cvrag/internal/segment"
)

// DefaultTopK is the number of block hits retrieved per question.
const DefaultTopK = 3

// Document is one OCR document queued for ingestion.
type Document struct {
	DocID string
	Pages []docio.RawPage
}

// IngestResult is the per-document outcome of a batch ingest.
type IngestResult struct {
	DocID  string
	Report index.UpsertReport
	Err    error
}

// Service composes cleaning, segmentation, indexing and answering.
type Service struct {
	index         *index.Index
	segmenter     *segment.Segmenter
	synthesizer   *answer.Synthesizer
	minConfidence float64
	topK          int
}

// Options tune the service. Zero values fall back to defaults.
type Options struct {
	MinConfidence float64
	MaxWords      int
	TopK          int
	MaxConcurrent int
}

// New creates a pipeline service over the given index and model service.
func New(idx *index.Index, llm core.LLMService, opts Options) *Service {
	minConf := opts.MinConfidence
	if minConf <= 0 {
		minConf = clean.DefaultMinConfidence
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		index:         idx,
		segmenter:     segment.New(opts.MaxWords),
		synthesizer:   answer.NewSynthesizer(llm, opts.MaxConcurrent),
		minConfidence: minConf,
		topK:          topK,
	}
}

// CleanPages normalizes raw OCR pages: per-line text cleanup, the
// confidence gate, and reading-order assembly. Pages that lose every line
// to the gate survive as empty pages so page numbering stays intact.
func (s *Service) CleanPages(raw []docio.RawPage) []core.Page {
	pages := make([]core.Page, 0, len(raw))
	for _, rp := range raw {
		cleaned := make([]core.CleanedLine, 0, len(rp.Lines))
		for _, line := range rp.Lines {
			cl, ok := clean.Normalize(line, s.minConfidence)
			if !ok {
				continue
			}
			cleaned = append(cleaned, cl)
		}
		pages = append(pages, clean.Assemble(rp.PageNum, cleaned))
	}
	return pages
}

// Segment turns cleaned pages into retrieval blocks for the document.
func (s *Service) Segment(pages []core.Page, docID string) []core.Block {
	return s.segmenter.Blocks(pages, docID)
}

// IngestDocument runs one document through the full ingest path:
// clean, segment, upsert. Re-ingesting the same document is a no-op for
// unchanged blocks.
func (s *Service) IngestDocument(ctx context.Context, docID string, raw []docio.RawPage) (index.UpsertReport, error) {
	if docID == "" {
		return index.UpsertReport{}, fmt.Errorf("doc id must not be empty")
	}
	pages := s.CleanPages(raw)
	blocks := s.segmenter.Blocks(pages, docID)
	logger.Info("Ingesting %s: %d pages, %d blocks", docID, len(pages), len(blocks))
	return s.index.Upsert(ctx, blocks)
}

// IngestBatch ingests documents concurrently with at most workers in
// flight. A failing document never aborts the batch; its error is carried
// in its result. Results come back in input order.
func (s *Service) IngestBatch(ctx context.Context, docs []Document, workers int) []IngestResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(docs) {
		workers = len(docs)
	}

	runID := uuid.NewString()
	logger.Info("Ingest run %s: %d documents, %d workers", runID, len(docs), workers)

	results := make([]IngestResult, len(docs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				doc := docs[i]
				report, err := s.IngestDocument(ctx, doc.DocID, doc.Pages)
				if err != nil {
					logger.Error("Ingest run %s: document %s failed: %v", runID, doc.DocID, err)
				}
				results[i] = IngestResult{DocID: doc.DocID, Report: report, Err: err}
			}
		}()
	}

	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Ask answers a question against the index: retrieve the top blocks,
// group them by candidate, and synthesize one grounded answer per
// candidate. An empty index yields the single fixed not-found answer.
func (s *Service) Ask(ctx context.Context, question string) ([]core.CandidateAnswer, error) {
	hits, err := s.index.Query(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	contexts := answer.Aggregate(hits)
	return s.synthesizer.Synthesize(ctx, contexts, question), nil
}
