// Package docio reads and writes the pipeline's file artifacts: the raw
// OCR document produced by the OCR step, the cleaned-pages document, and
// the blocks document. All are UTF-8 JSON.
package docio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cvrag/internal/core"
)

// RawPage is one page of the raw OCR document: engine-emitted lines in
// engine order, not necessarily reading order.
type RawPage struct {
	PageNum int         `json:"page_num"`
	Lines   []core.Line `json:"lines"`
}

// rawDocument is the step-2 OCR output wrapper shape.
type rawDocument struct {
	Pages []RawPage `json:"pages"`
}

// ReadRawPages loads an OCR document. Both the wrapped shape
// {"pages": [...]} and a bare page array are accepted.
func ReadRawPages(path string) ([]RawPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR document: %w", err)
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Pages != nil {
		return doc.Pages, nil
	}

	var pages []RawPage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse OCR document %s: %w", path, err)
	}
	return pages, nil
}

// ReadCleanedPages loads a cleaned-pages document: an ordered array of
// pages, each with ordered cleaned lines.
func ReadCleanedPages(path string) ([]core.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cleaned pages: %w", err)
	}
	var pages []core.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse cleaned pages %s: %w", path, err)
	}
	return pages, nil
}

// WriteCleanedPages writes a cleaned-pages document, creating parent
// directories as needed.
func WriteCleanedPages(path string, pages []core.Page) error {
	return writeJSON(path, pages)
}

// ReadBlocks loads a blocks document.
func ReadBlocks(path string) ([]core.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocks: %w", err)
	}
	var blocks []core.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("failed to parse blocks %s: %w", path, err)
	}
	return blocks, nil
}

// WriteBlocks writes a blocks document, creating parent directories as
// needed.
func WriteBlocks(path string, blocks []core.Block) error {
	return writeJSON(path, blocks)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
