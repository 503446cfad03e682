// Package segment merges ordered page lines into retrieval-sized blocks.
//
// OCR output is fragmented into many short lines; line-level retrieval
// units are too small for embedding quality. The segmenter absorbs that
// fragmentation into word-bounded blocks while keeping page and block
// identity in metadata rather than in the block text.
package segment

import (
	"strings"

	"cvrag/internal/core"
)

// DefaultMaxWords is the word budget per block.
const DefaultMaxWords = 120

// Segmenter accumulates page lines into blocks of at most maxWords words.
type Segmenter struct {
	maxWords int
}

// New creates a segmenter. Non-positive maxWords falls back to
// DefaultMaxWords.
func New(maxWords int) *Segmenter {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Segmenter{maxWords: maxWords}
}

// MaxWords returns the configured word budget.
func (s *Segmenter) MaxWords() int { return s.maxWords }

// Blocks walks the pages in order, greedily accumulating words and
// flushing a block whenever the buffer reaches the word budget. Lines are
// never split, so a line that carries the buffer past the budget flushes
// with it and the block may exceed the budget by up to one line's words.
// A page ending with a non-empty buffer flushes a final, possibly short,
// block: no block ever spans two pages. The block counter is document-scoped, so
// block ids stay unique and contiguous across the whole document. Empty
// pages contribute nothing and do not perturb the counter.
func (s *Segmenter) Blocks(pages []core.Page, docID string) []core.Block {
	var blocks []core.Block
	blockID := 0

	for _, page := range pages {
		var words []string

		for _, line := range page.Lines {
			lineWords := strings.Fields(line.Text)
			if len(lineWords) == 0 {
				continue
			}
			words = append(words, lineWords...)

			if len(words) >= s.maxWords {
				blocks = append(blocks, core.Block{
					DocID:   docID,
					Page:    page.Number,
					BlockID: blockID,
					Text:    strings.Join(words, " "),
				})
				blockID++
				words = nil
			}
		}

		if len(words) > 0 {
			blocks = append(blocks, core.Block{
				DocID:   docID,
				Page:    page.Number,
				BlockID: blockID,
				Text:    strings.Join(words, " "),
			})
			blockID++
		}
	}

	return blocks
}
