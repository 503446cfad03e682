// Package clean turns raw OCR lines into ordered, normalized page content.
// It is the first stage of the pipeline: confidence filtering and text
// normalization per line, then spatial ordering per page.
package clean

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cvrag/internal/core"
)

// DefaultMinConfidence is the default OCR confidence threshold. Lines
// reported below it are dropped; lines with no reported confidence are
// always kept.
const DefaultMinConfidence = 0.3

// foldAccents decomposes characters, strips combining marks and recomposes,
// so "Jérôme" matches "Jerome" downstream. Characters with no Latin
// decomposition pass through unchanged.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize cleans a single OCR line. It returns ok=false when the line is
// filtered out: confidence reported below minConfidence, or no text left
// after whitespace collapsing. Filtering is a decision, not an error.
func Normalize(line core.Line, minConfidence float64) (core.CleanedLine, bool) {
	if line.Confidence != nil && *line.Confidence < minConfidence {
		return core.CleanedLine{}, false
	}

	text := NormalizeText(line.Text)
	if text == "" {
		return core.CleanedLine{}, false
	}

	return core.CleanedLine{
		Text:       text,
		Confidence: line.Confidence,
		BBox:       line.BBox,
	}, true
}

// NormalizeText collapses whitespace runs to single spaces, trims, and
// strips diacritics.
func NormalizeText(text string) string {
	folded, _, err := transform.String(foldAccents, text)
	if err != nil {
		// Transformation failures leave the original text in place; the
		// accent fold is best-effort, whitespace collapsing is not.
		folded = text
	}
	return strings.Join(strings.Fields(folded), " ")
}
