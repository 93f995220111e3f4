package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"manuscript-extractor/internal/domain"
	"manuscript-extractor/internal/pdfdoc"
)

var (
	pdfCaptionRe     = regexp.MustCompile(`(?i)^fig\s*\d*\s*:`)
	pdfCaptionTextRe = regexp.MustCompile(`(?i)^fig\s*\d*\s*:\s*(.+)`)
	emailTokenRe     = regexp.MustCompile(`\S+@\S+`)
	bulletPrefixRe   = regexp.MustCompile(`^[•\-]\s*`)
	filenameSafeRe   = regexp.MustCompile(`[^\w\-_. ]`)
)

// PDFExtractor flattens a paginated document into the structured model.
// Each page's table regions and text lines merge into one top-to-bottom
// stream; lines inside a table's vertical span are dropped in favor of the
// region's cells, figure captions claim the page's embedded images, email
// fragments are isolated onto their own lines, and everything left becomes
// a flat paragraph body with the first line as the title.
type PDFExtractor struct {
	figures *FigureWriter
	logger  domain.Logger
}

// NewPDFExtractor creates a new paginated-document extractor.
func NewPDFExtractor(figures *FigureWriter, logger domain.Logger) *PDFExtractor {
	return &PDFExtractor{
		figures: figures,
		logger:  logger,
	}
}

// Extract builds a structured document from the paginated read.
func (e *PDFExtractor) Extract(doc *pdfdoc.Document) (*domain.StructuredDocument, error) {
	out := domain.NewStructuredDocument()
	var output []string

	for _, page := range doc.Pages {
		images := doc.Images[page.Number]
		used := make([]bool, len(images))

		for _, item := range mergePageItems(page) {
			if item.table != nil {
				e.appendPageTable(item.table, out)
				continue
			}

			if insideAnyTable(item.line.BBox, page.Tables) {
				continue
			}
			text := strings.TrimSpace(item.line.Text)
			if text == "" {
				continue
			}

			if loc := emailTokenRe.FindStringIndex(text); loc != nil && !strings.HasPrefix(text, "Email:") {
				if before := strings.TrimSpace(text[:loc[0]]); before != "" {
					output = append(output, before)
				}
				output = append(output, text[loc[0]:loc[1]])
				if after := strings.TrimSpace(text[loc[1]:]); after != "" {
					output = append(output, after)
				}
				continue
			}

			text = bulletPrefixRe.ReplaceAllString(text, "- ")

			if pdfCaptionRe.MatchString(text) {
				if e.bindPageImage(text, page.Number, images, used, out) {
					continue
				}
			}
			output = append(output, text)
		}

		e.flushLeftoverImages(page.Number, images, used, out)
	}

	cleaned := collapseBlankLines(output)
	if len(cleaned) > 0 {
		out.Metadata.Title = cleaned[0]
		for _, line := range cleaned[1:] {
			if line != "" {
				out.Body = append(out.Body, &domain.Paragraph{Text: line})
			}
		}
	}
	return out, nil
}

// pageItem is one entry of the merged page stream: a table region or a
// text line, never both.
type pageItem struct {
	top   float64
	table *pdfdoc.TableRegion
	line  *pdfdoc.Line
}

// mergePageItems interleaves table regions and text lines by their top
// edge, regions first on ties, so the page reads top to bottom.
func mergePageItems(page pdfdoc.Page) []pageItem {
	items := make([]pageItem, 0, len(page.Tables)+len(page.Lines))
	for i := range page.Tables {
		items = append(items, pageItem{top: page.Tables[i].BBox.Top(), table: &page.Tables[i]})
	}
	for i := range page.Lines {
		items = append(items, pageItem{top: page.Lines[i].BBox.Top(), line: &page.Lines[i]})
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].top > items[b].top })
	return items
}

// appendPageTable records a detected region in the flat table list. The
// first cell row is the header. Paginated tables do not join the body; the
// label numbers them in encounter order across the whole document.
func (e *PDFExtractor) appendPageTable(region *pdfdoc.TableRegion, out *domain.StructuredDocument) {
	if len(region.Cells) == 0 {
		return
	}
	out.Tables = append(out.Tables, &domain.Table{
		Label:  fmt.Sprintf("Table%d", len(out.Tables)+1),
		Header: region.Cells[0],
		Rows:   region.Cells[1:],
	})
}

// insideAnyTable reports whether the line's vertical span falls inside any
// detected table region on the page.
func insideAnyTable(box pdfdoc.BBox, tables []pdfdoc.TableRegion) bool {
	for i := range tables {
		if box.VerticallyInside(tables[i].BBox) {
			return true
		}
	}
	return false
}

// bindPageImage saves the first unused page image under a filename derived
// from the caption and records it in the figure metadata. It reports false
// when no image is available or the save fails, leaving the caption to fall
// through as body text.
func (e *PDFExtractor) bindPageImage(caption string, pageNum int, images []pdfdoc.EmbeddedImage, used []bool, out *domain.StructuredDocument) bool {
	for idx := range images {
		if used[idx] {
			continue
		}
		filename, path, err := e.figures.Save(captionFilename(caption), images[idx].Ext, images[idx].Data)
		if err != nil {
			e.logger.Warn("Failed to save figure image", "page", pageNum, "error", err)
			return false
		}
		used[idx] = true
		out.Metadata.Figures = append(out.Metadata.Figures, domain.FigureRecord{
			ID:       fmt.Sprintf("fig_%d", len(out.Metadata.Figures)+1),
			Filename: filename,
			Caption:  caption,
			Path:     path,
		})
		return true
	}
	return false
}

// flushLeftoverImages saves the page images no caption claimed, named after
// their page and position, captioned by their own filename.
func (e *PDFExtractor) flushLeftoverImages(pageNum int, images []pdfdoc.EmbeddedImage, used []bool, out *domain.StructuredDocument) {
	for idx := range images {
		if used[idx] {
			continue
		}
		filename, path, err := e.figures.Save(fmt.Sprintf("image_%d_%d", pageNum, idx+1), images[idx].Ext, images[idx].Data)
		if err != nil {
			e.logger.Warn("Failed to save page image", "page", pageNum, "error", err)
			continue
		}
		out.Metadata.Figures = append(out.Metadata.Figures, domain.FigureRecord{
			ID:       fmt.Sprintf("fig_%d", len(out.Metadata.Figures)+1),
			Filename: filename,
			Caption:  filename,
			Path:     path,
		})
	}
}

// captionFilename derives a filesystem-safe stem from a figure caption:
// the text after the "Fig N:" marker, lowercased, stripped of unsafe
// characters, spaces as underscores.
func captionFilename(caption string) string {
	base := caption
	if m := pdfCaptionTextRe.FindStringSubmatch(caption); m != nil {
		base = m[1]
	}
	base = strings.ToLower(strings.TrimSpace(base))
	base = filenameSafeRe.ReplaceAllString(base, "")
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" {
		return "image"
	}
	return base
}

// collapseBlankLines squeezes runs of blank lines down to one.
func collapseBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	prevEmpty := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !prevEmpty {
				out = append(out, "")
			}
			prevEmpty = true
		} else {
			out = append(out, line)
			prevEmpty = false
		}
	}
	return out
}
