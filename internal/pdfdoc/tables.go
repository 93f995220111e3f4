package pdfdoc

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	xBucket = 5.0
	yBucket = 3.0
	// minColumnMembers is how many vertically aligned words a shared X
	// position needs before it counts as a column.
	minColumnMembers = 3
	minRowMembers    = 2
	// spacingTolerance bounds how far each column or row gap may deviate
	// from the mean gap.
	spacingTolerance = 0.3
)

// listMarkerPattern matches bullet glyphs and enumerators such as "3." or
// "7)". A column made of these marks a list, not a table.
var listMarkerPattern = regexp.MustCompile(`^(?:[•◦▪‣·*–—-]|\d{1,3}[.)])$`)

// TableRegion is a grid of cell text recovered from aligned word positions,
// with the page-space box covering every word assigned to a cell.
type TableRegion struct {
	BBox  BBox
	Cells [][]string
}

// detectTables looks for a grid of mutually aligned words: at least two X
// positions each shared by three or more words, at least two Y positions
// each shared by two or more words, with near-uniform spacing on both axes.
// Body text fails the column spacing check; bullet lists lose their marker
// column and fall below the two-column minimum.
func detectTables(words []Word) []TableRegion {
	if len(words) < 4 {
		return nil
	}

	xPositions := make(map[int][]Word)
	yPositions := make(map[int][]Word)
	for _, w := range words {
		xKey := int(w.BBox.X / xBucket)
		yKey := int(w.BBox.Y / yBucket)
		xPositions[xKey] = append(xPositions[xKey], w)
		yPositions[yKey] = append(yPositions[yKey], w)
	}

	var columnXs []float64
	for xKey, aligned := range xPositions {
		if len(aligned) >= minColumnMembers && !markerColumn(aligned) {
			columnXs = append(columnXs, float64(xKey)*xBucket)
		}
	}
	var rowYs []float64
	for yKey, aligned := range yPositions {
		if len(aligned) >= minRowMembers {
			rowYs = append(rowYs, float64(yKey)*yBucket)
		}
	}
	if len(columnXs) < 2 || len(rowYs) < 2 {
		return nil
	}

	sort.Float64s(columnXs)
	sort.Float64s(rowYs)
	// Top row first: larger Y is higher on the page.
	for i, j := 0, len(rowYs)-1; i < j; i, j = i+1, j-1 {
		rowYs[i], rowYs[j] = rowYs[j], rowYs[i]
	}

	if !consistentSpacing(columnXs, spacingTolerance) || !consistentSpacing(rowYs, spacingTolerance) {
		return nil
	}

	cells := make([][]string, len(rowYs))
	for r := range cells {
		cells[r] = make([]string, len(columnXs))
	}

	var box BBox
	assigned := 0
	for _, w := range words {
		rowIdx := -1
		for r, rowY := range rowYs {
			if math.Abs(w.BBox.Y-rowY) < yBucket*2 {
				rowIdx = r
				break
			}
		}
		if rowIdx == -1 {
			continue
		}
		colIdx := -1
		for c, colX := range columnXs {
			if math.Abs(w.BBox.X-colX) < xBucket*2 {
				colIdx = c
				break
			}
		}
		if colIdx == -1 {
			continue
		}
		if cells[rowIdx][colIdx] != "" {
			cells[rowIdx][colIdx] += " "
		}
		cells[rowIdx][colIdx] += w.Text
		if assigned == 0 {
			box = w.BBox
		} else {
			box = box.Union(w.BBox)
		}
		assigned++
	}

	cells = dropEmptyRows(cells)
	if len(cells) < 2 {
		return nil
	}
	return []TableRegion{{BBox: box, Cells: cells}}
}

// markerColumn reports whether nearly every word in a column candidate is a
// bullet glyph or an enumerator.
func markerColumn(words []Word) bool {
	markers := 0
	for _, w := range words {
		if listMarkerPattern.MatchString(strings.TrimSpace(w.Text)) {
			markers++
		}
	}
	return float64(markers) > 0.8*float64(len(words))
}

func dropEmptyRows(cells [][]string) [][]string {
	kept := cells[:0]
	for _, row := range cells {
		for _, c := range row {
			if c != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

// consistentSpacing reports whether consecutive gaps stay within tolerance
// of their mean gap.
func consistentSpacing(positions []float64, tolerance float64) bool {
	if len(positions) < 2 {
		return false
	}
	spacings := make([]float64, len(positions)-1)
	var sum float64
	for i := 0; i < len(positions)-1; i++ {
		spacings[i] = math.Abs(positions[i+1] - positions[i])
		sum += spacings[i]
	}
	mean := sum / float64(len(spacings))
	if mean == 0 {
		return false
	}
	for _, s := range spacings {
		if math.Abs(s-mean)/mean > tolerance {
			return false
		}
	}
	return true
}
