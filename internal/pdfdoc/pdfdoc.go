// Package pdfdoc reads paginated documents into positioned text lines,
// alignment-detected table regions, and embedded page images.
package pdfdoc

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"manuscript-extractor/internal/domain"
)

// Page holds one page's assembled lines and detected table regions, both in
// top-to-bottom reading order.
type Page struct {
	Number int
	Lines  []Line
	Tables []TableRegion
}

// Document is the positioned view of a paginated file.
type Document struct {
	Pages  []Page
	Images map[int][]EmbeddedImage
}

// Open reads the file at path into pages of lines and table regions, plus
// embedded images keyed by page number. rowTolerance is the Y distance in
// points under which two characters share a baseline row.
func Open(path string, rowTolerance float64, log domain.Logger) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return nil, domain.ErrNoPages
	}

	doc := &Document{Images: make(map[int][]EmbeddedImage)}
	for i := 1; i <= r.NumPage(); i++ {
		page := Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			rows := assembleWords(pageChars(p, i, log), rowTolerance)
			page.Lines = assembleLines(rows)
			page.Tables = detectTables(flattenWords(rows))
		}
		doc.Pages = append(doc.Pages, page)
	}

	images, err := extractImages(path, log)
	if err != nil {
		// Text still stands on its own when image streams are broken.
		log.Warn("embedded image pass failed", "error", err)
	} else {
		doc.Images = images
	}
	return doc, nil
}

// pageChars reads the page's positioned characters. The content stream
// parser panics on malformed operators, so a bad page degrades to an empty
// one instead of aborting the whole document.
func pageChars(p pdf.Page, number int, log domain.Logger) (chars []pdf.Text) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("page content unreadable", "page", number, "panic", fmt.Sprint(r))
			chars = nil
		}
	}()
	return p.Content().Text
}
