package docio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvrag/internal/core"
)

func TestReadRawPagesWrappedShape(t *testing.T) {
	path := writeTemp(t, `{
		"pages": [
			{"page_num": 1, "lines": [
				{"text": "Jean Dupont", "confidence": 0.98, "bbox": [10, 10, 200, 30]}
			]}
		]
	}`)

	pages, err := ReadRawPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].PageNum)
	require.Len(t, pages[0].Lines, 1)
	assert.Equal(t, "Jean Dupont", pages[0].Lines[0].Text)
	require.NotNil(t, pages[0].Lines[0].Confidence)
	assert.InDelta(t, 0.98, *pages[0].Lines[0].Confidence, 1e-9)
}

func TestReadRawPagesBareArray(t *testing.T) {
	path := writeTemp(t, `[
		{"page_num": 1, "lines": [{"text": "hello"}]},
		{"page_num": 2, "lines": []}
	]`)

	pages, err := ReadRawPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 2, pages[1].PageNum)
	assert.Nil(t, pages[0].Lines[0].Confidence)
	assert.Nil(t, pages[0].Lines[0].BBox)
}

func TestReadRawPagesPolygonBBox(t *testing.T) {
	// Some OCR engines emit four-corner polygons instead of rectangles.
	path := writeTemp(t, `[
		{"page_num": 1, "lines": [
			{"text": "tilted", "bbox": [[12, 8], [198, 11], [199, 29], [11, 27]]}
		]}
	]`)

	pages, err := ReadRawPages(path)
	require.NoError(t, err)
	box := pages[0].Lines[0].BBox
	require.NotNil(t, box)
	assert.InDelta(t, 11, box.X0, 1e-9)
	assert.InDelta(t, 8, box.Y0, 1e-9)
	assert.InDelta(t, 199, box.X1, 1e-9)
	assert.InDelta(t, 29, box.Y1, 1e-9)
}

func TestCleanedPagesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cleaned.json")
	conf := 0.91
	pages := []core.Page{
		{Number: 1, Lines: []core.CleanedLine{
			{Text: "Jean Dupont", Confidence: &conf},
			{Text: "Software Engineer"},
		}},
	}

	require.NoError(t, WriteCleanedPages(path, pages))

	got, err := ReadCleanedPages(path)
	require.NoError(t, err)
	assert.Equal(t, pages, got)
}

func TestBlocksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.json")
	blocks := []core.Block{
		{DocID: "cv_jean", Page: 1, BlockID: 0, Text: "Jean Dupont"},
		{DocID: "cv_jean", Page: 2, BlockID: 1, Text: "Software Engineer"},
	}

	require.NoError(t, WriteBlocks(path, blocks))

	got, err := ReadBlocks(path)
	require.NoError(t, err)
	assert.Equal(t, blocks, got)
}

func TestReadRawPagesMissingFile(t *testing.T) {
	_, err := ReadRawPages(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestReadBlocksMalformed(t *testing.T) {
	path := writeTemp(t, `{"not": "an array"}`)
	_, err := ReadBlocks(path)
	assert.Error(t, err)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
