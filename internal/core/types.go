package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BBox is the axis-aligned position of an OCR line on its page.
// (X0, Y0) is the top-left corner, (X1, Y1) the bottom-right.
type BBox struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// UnmarshalJSON accepts the two shapes OCR engines emit for a bounding box:
// a flat rectangle [x0, y0, x1, y1] or a polygon [[x, y], [x, y], ...],
// which is reduced to its envelope.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		if len(flat) != 4 {
			return fmt.Errorf("bbox: expected 4 coordinates, got %d", len(flat))
		}
		b.X0, b.Y0, b.X1, b.Y1 = flat[0], flat[1], flat[2], flat[3]
		return nil
	}

	var poly [][]float64
	if err := json.Unmarshal(data, &poly); err != nil {
		return fmt.Errorf("bbox: unrecognized shape: %w", err)
	}
	if len(poly) == 0 {
		return fmt.Errorf("bbox: empty polygon")
	}
	for i, pt := range poly {
		if len(pt) < 2 {
			return fmt.Errorf("bbox: polygon point %d has %d coordinates", i, len(pt))
		}
		x, y := pt[0], pt[1]
		if i == 0 {
			b.X0, b.Y0, b.X1, b.Y1 = x, y, x, y
			continue
		}
		if x < b.X0 {
			b.X0 = x
		}
		if y < b.Y0 {
			b.Y0 = y
		}
		if x > b.X1 {
			b.X1 = x
		}
		if y > b.Y1 {
			b.Y1 = y
		}
	}
	return nil
}

// MarshalJSON writes the rectangle form.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{b.X0, b.Y0, b.X1, b.Y1})
}

// Line is one raw OCR line as produced by the OCR engine.
// Confidence and BBox are nil when the engine did not report them.
type Line struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	BBox       *BBox    `json:"bbox"`
}

// CleanedLine is a Line that survived normalization. Its text is never
// empty or whitespace-only; confidence and position pass through unchanged.
type CleanedLine struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	BBox       *BBox    `json:"bbox"`
}

// Page is an ordered set of cleaned lines for one page. Order is reading
// order when every line carried a position, extraction order otherwise.
type Page struct {
	Number int           `json:"page_num"`
	Lines  []CleanedLine `json:"lines"`
}

// Block is the atomic retrieval unit: a bounded run of normalized words
// from a single page. BlockID is monotonic per document across all pages.
type Block struct {
	DocID   string `json:"doc_id"`
	Page    int    `json:"page"`
	BlockID int    `json:"block_id"`
	Text    string `json:"text"`
}

// WordCount reports the number of whitespace-separated words in the block.
func (b Block) WordCount() int {
	return len(strings.Fields(b.Text))
}

// BlockKey is the deterministic index key for a block. Two pipeline runs
// over the same document produce the same keys, which is what makes the
// index upsert idempotent.
func BlockKey(b Block) string {
	return fmt.Sprintf("%s_p%d_b%d", b.DocID, b.Page, b.BlockID)
}

// IndexEntry is a block plus its embedding, stored under BlockKey.
type IndexEntry struct {
	Block
	Vector []float32
}

// RetrievalHit is one nearest-neighbor result.
type RetrievalHit struct {
	Block Block
	Score float64
}

// CandidateContext is the evidence set for one candidate (doc_id), with
// hits in their original global rank order.
type CandidateContext struct {
	DocID string
	Hits  []RetrievalHit
}

// CandidateAnswer is the synthesized answer for one candidate. Err is set
// when the generative model call for this candidate failed; Answer is then
// empty.
type CandidateAnswer struct {
	DocID  string
	Answer string
	Err    error
}
