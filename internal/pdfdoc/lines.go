package pdfdoc

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// wordGapMultiplier scales the font size to the widest horizontal gap
	// still considered part of the same word.
	wordGapMultiplier = 0.3
	// fallbackWordGap applies when a character carries no font size.
	fallbackWordGap = 3.0
)

// Word is a horizontal run of characters merged by proximity on one
// baseline row.
type Word struct {
	Text     string
	BBox     BBox
	FontSize float64
}

// Line is one baseline row of words joined left to right.
type Line struct {
	Text string
	BBox BBox
}

// assembleWords groups positioned characters into baseline rows, then merges
// adjacent characters within each row into words. Rows come back top to
// bottom, words within a row left to right.
func assembleWords(chars []pdf.Text, rowTolerance float64) [][]Word {
	var printable []pdf.Text
	for _, c := range chars {
		if strings.TrimSpace(c.S) != "" {
			printable = append(printable, c)
		}
	}
	if len(printable) == 0 {
		return nil
	}

	type rowBucket struct {
		yMin, yMax float64
		chars      []pdf.Text
	}

	var buckets []rowBucket
	for _, c := range printable {
		placed := false
		for i := range buckets {
			if c.Y >= buckets[i].yMin-rowTolerance && c.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].chars = append(buckets[i].chars, c)
				if c.Y < buckets[i].yMin {
					buckets[i].yMin = c.Y
				}
				if c.Y > buckets[i].yMax {
					buckets[i].yMax = c.Y
				}
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, rowBucket{yMin: c.Y, yMax: c.Y, chars: []pdf.Text{c}})
		}
	}

	// Top of page first: larger Y is higher in PDF user space.
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]Word, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.chars, func(i, j int) bool { return b.chars[i].X < b.chars[j].X })

		var words []Word
		var cur *Word
		for _, c := range b.chars {
			box := BBox{X: c.X, Y: c.Y, W: c.W, H: c.FontSize}
			if cur != nil {
				gap := wordGapMultiplier * cur.FontSize
				if cur.FontSize == 0 {
					gap = fallbackWordGap
				}
				if c.X-cur.BBox.Right() <= gap {
					cur.Text += c.S
					cur.BBox = cur.BBox.Union(box)
					if c.FontSize > cur.FontSize {
						cur.FontSize = c.FontSize
					}
					continue
				}
				words = append(words, *cur)
			}
			cur = &Word{Text: c.S, BBox: box, FontSize: c.FontSize}
		}
		if cur != nil {
			words = append(words, *cur)
		}
		if len(words) > 0 {
			rows = append(rows, words)
		}
	}
	return rows
}

// assembleLines joins each row of words into a single line with one space
// between words. The line box covers every word in the row.
func assembleLines(rows [][]Word) []Line {
	lines := make([]Line, 0, len(rows))
	for _, words := range rows {
		if len(words) == 0 {
			continue
		}
		box := words[0].BBox
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = w.Text
			box = box.Union(w.BBox)
		}
		lines = append(lines, Line{Text: strings.Join(parts, " "), BBox: box})
	}
	return lines
}

func flattenWords(rows [][]Word) []Word {
	var all []Word
	for _, row := range rows {
		all = append(all, row...)
	}
	return all
}
