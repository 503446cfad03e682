package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cvrag/internal/core"
)

func positioned(text string, y, x float64) core.CleanedLine {
	return core.CleanedLine{Text: text, BBox: &core.BBox{X0: x, Y0: y, X1: x + 100, Y1: y + 20}}
}

func texts(p core.Page) []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.Text
	}
	return out
}

func TestAssemble_SortsByPosition(t *testing.T) {
	lines := []core.CleanedLine{
		positioned("third", 200, 10),
		positioned("first", 50, 10),
		positioned("second right", 100, 300),
		positioned("second left", 100, 10),
	}

	page := Assemble(1, lines)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, []string{"first", "second left", "second right", "third"}, texts(page))
}

func TestAssemble_MixedPositionsKeepExtractionOrder(t *testing.T) {
	lines := []core.CleanedLine{
		positioned("bottom", 500, 10),
		{Text: "no position"},
		positioned("top", 10, 10),
	}

	page := Assemble(2, lines)

	assert.Equal(t, []string{"bottom", "no position", "top"}, texts(page))
}

func TestAssemble_NoPositionsKeepExtractionOrder(t *testing.T) {
	lines := []core.CleanedLine{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, texts(Assemble(1, lines)))
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	lines := []core.CleanedLine{
		positioned("second", 100, 10),
		positioned("first", 10, 10),
	}

	_ = Assemble(1, lines)

	assert.Equal(t, "second", lines[0].Text)
}

func TestAssemble_Deterministic(t *testing.T) {
	lines := []core.CleanedLine{
		positioned("a", 100, 10),
		positioned("b", 100, 10), // identical position, stable order
		positioned("c", 10, 10),
	}

	first := Assemble(1, lines)
	second := Assemble(1, lines)

	assert.Equal(t, texts(first), texts(second))
	assert.Equal(t, []string{"c", "a", "b"}, texts(first))
}

func TestAssemble_EmptyPage(t *testing.T) {
	page := Assemble(3, nil)
	assert.Equal(t, 3, page.Number)
	assert.Empty(t, page.Lines)
}
