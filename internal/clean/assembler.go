package clean

import (
	"sort"

	"cvrag/internal/core"
)

// Assemble orders cleaned lines into a page. When every line carries a
// position, lines are sorted top-to-bottom then left-to-right to
// approximate reading order. When any line lacks a position, the original
// extraction order is kept as-is: mixed presence is not reconciled, since
// any synthetic coordinate for the position-less lines would silently sort
// them somewhere surprising.
func Assemble(pageNumber int, lines []core.CleanedLine) core.Page {
	page := core.Page{
		Number: pageNumber,
		Lines:  append([]core.CleanedLine(nil), lines...),
	}

	if !allPositioned(page.Lines) {
		return page
	}

	sort.SliceStable(page.Lines, func(i, j int) bool {
		a, b := page.Lines[i].BBox, page.Lines[j].BBox
		if a.Y0 != b.Y0 {
			return a.Y0 < b.Y0
		}
		return a.X0 < b.X0
	})
	return page
}

func allPositioned(lines []core.CleanedLine) bool {
	for _, l := range lines {
		if l.BBox == nil {
			return false
		}
	}
	return len(lines) > 0
}
