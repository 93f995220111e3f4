package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"manuscript-extractor/internal/docx"
	"manuscript-extractor/internal/domain"
)

var (
	abstractRe     = regexp.MustCompile(`(?i)^abstract`)
	keywordsRe     = regexp.MustCompile(`(?i)^(?:keywords|key terms|index terms)\s*[:.]?`)
	referencesRe   = regexp.MustCompile(`(?i)^references?`)
	emailRe        = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	headingLevelRe = regexp.MustCompile(`^heading\s*(\d+)`)
	figCaptionRe   = regexp.MustCompile(`(?i)^(?:figure|fig)[\s.]*(\d+)[\s:.\-]+(.*)`)
	partSplitRe    = regexp.MustCompile(`[,;]`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// DocxExtractor turns a parsed styled container into the structured document
// model. One sequential pass over the paragraphs drives a small state
// machine: title, author block, abstract, keywords, then the body tree.
// Tables and references are collected in trailing passes, and figure
// captions are bound to image relationships after the body is assembled so
// a declared figure number can claim its matching image file.
type DocxExtractor struct {
	figures *FigureWriter
	logger  domain.Logger
}

// NewDocxExtractor creates a new styled-document extractor.
func NewDocxExtractor(figures *FigureWriter, logger domain.Logger) *DocxExtractor {
	return &DocxExtractor{
		figures: figures,
		logger:  logger,
	}
}

// figureCandidate is a caption seen during the body pass, waiting for an
// image. parent is nil when no section was open at the caption; the node is
// then not part of the body and only the metadata record survives a bind.
type figureCandidate struct {
	number string
	node   *domain.Figure
	parent *domain.NodeList
}

// Extract builds a structured document from the styled container.
func (e *DocxExtractor) Extract(doc *docx.Document) (*domain.StructuredDocument, error) {
	out := domain.NewStructuredDocument()
	paras := doc.Paragraphs

	i := 0
	for i < len(paras) && cleanText(paras[i].Text) == "" {
		i++
	}
	if i >= len(paras) {
		return nil, domain.ErrEmptyDocument
	}
	out.Metadata.Title = cleanText(paras[i].Text)
	i++

	i = e.parseAuthors(paras, i, out)
	i = e.parseAbstractKeywords(paras, i, out)
	candidates := e.parseBody(paras, i, out)

	e.bindFigures(doc, candidates, out)
	e.appendTables(doc, out)
	e.collectReferences(paras, out)

	return out, nil
}

// parseAuthors consumes the author block: every non-blank paragraph between
// the title and the first abstract marker or heading is one author line.
func (e *DocxExtractor) parseAuthors(paras []docx.Paragraph, i int, out *domain.StructuredDocument) int {
	for i < len(paras) {
		text := cleanText(paras[i].Text)
		if text == "" {
			i++
			continue
		}
		if abstractRe.MatchString(text) || isHeadingStyle(paras[i].Style) {
			break
		}
		out.Metadata.Authors = append(out.Metadata.Authors, parseAuthorLine(text))
		i++
	}
	return i
}

// parseAuthorLine splits one author line into name, role, affiliation and
// email. The email is lifted out first; the remainder splits on commas and
// semicolons. Two parts mean name plus affiliation, three or more mean the
// second part is a role and the rest joins into the affiliation.
func parseAuthorLine(line string) domain.Author {
	email := emailRe.FindString(line)
	cleaned := strings.TrimSpace(emailRe.ReplaceAllString(line, ""))

	parts := partSplitRe.Split(cleaned, -1)
	for j := range parts {
		parts[j] = strings.TrimSpace(parts[j])
	}

	author := domain.Author{Email: email}
	if len(parts) >= 2 {
		author.Name = parts[0]
		if len(parts) > 2 {
			author.Role = parts[1]
			author.Affiliation = strings.Join(parts[2:], ", ")
		} else {
			author.Affiliation = parts[1]
		}
	} else {
		author.Name = cleaned
	}
	return author
}

// parseAbstractKeywords runs the abstract and keyword states. An abstract
// marker arms collection, a keyword marker flushes the abstract and switches
// states, and a heading hands control back to the body parser unconsumed.
// The keyword marker line itself is consumed whole; terms are read from the
// lines that follow it.
func (e *DocxExtractor) parseAbstractKeywords(paras []docx.Paragraph, i int, out *domain.StructuredDocument) int {
	var (
		inAbstract    bool
		inKeywords    bool
		abstractLines []string
		keywords      []string
	)

	for i < len(paras) {
		text := cleanText(paras[i].Text)
		if text == "" {
			i++
			continue
		}

		if abstractRe.MatchString(text) {
			inAbstract = true
			i++
			continue
		}
		if inAbstract && keywordsRe.MatchString(text) {
			out.Metadata.Abstract = strings.Join(abstractLines, " ")
			inAbstract = false
			inKeywords = true
			i++
			continue
		}
		if inAbstract {
			if isHeadingStyle(paras[i].Style) {
				out.Metadata.Abstract = strings.Join(abstractLines, " ")
				inAbstract = false
			} else {
				abstractLines = append(abstractLines, text)
				i++
			}
			continue
		}
		if inKeywords {
			if isHeadingStyle(paras[i].Style) {
				inKeywords = false
			} else {
				for _, kw := range partSplitRe.Split(text, -1) {
					if kw = strings.TrimSpace(kw); kw != "" {
						keywords = append(keywords, kw)
					}
				}
				i++
			}
			continue
		}
		break
	}

	// A document that ends inside the abstract still keeps it.
	if inAbstract {
		out.Metadata.Abstract = strings.Join(abstractLines, " ")
	}
	if len(keywords) > 0 {
		out.Metadata.Keywords = keywords
	}
	return i
}

// parseBody assembles the section tree. Heading level 1 opens a section,
// level 2 a subsection, deeper levels are dropped. Figure captions become
// placeholder nodes returned as binding candidates; consecutive bullet
// paragraphs merge into one list; loose paragraphs ahead of any heading get
// a synthesized Introduction section.
func (e *DocxExtractor) parseBody(paras []docx.Paragraph, i int, out *domain.StructuredDocument) []figureCandidate {
	var (
		curSection *domain.Section
		curSub     *domain.Subsection
		candidates []figureCandidate
	)

	for i < len(paras) {
		para := paras[i]
		text := cleanText(para.Text)
		if text == "" {
			i++
			continue
		}

		if isHeadingStyle(para.Style) {
			switch headingLevel(para.Style) {
			case 1:
				if curSection != nil {
					out.Body = append(out.Body, curSection)
				}
				curSection = &domain.Section{Heading: text, Content: domain.NodeList{}}
				curSub = nil
			case 2:
				curSub = &domain.Subsection{Heading: text, Content: domain.NodeList{}}
				if curSection == nil {
					curSection = &domain.Section{Heading: "Untitled Section", Content: domain.NodeList{}}
				}
				curSection.Content = append(curSection.Content, curSub)
			}
			i++
			continue
		}

		if m := figCaptionRe.FindStringSubmatch(text); m != nil {
			node := &domain.Figure{
				Label:   "Fig" + m[1],
				Caption: strings.TrimSpace(m[2]),
			}
			var parent *domain.NodeList
			if curSub != nil {
				curSub.Content = append(curSub.Content, node)
				parent = &curSub.Content
			} else if curSection != nil {
				curSection.Content = append(curSection.Content, node)
				parent = &curSection.Content
			}
			candidates = append(candidates, figureCandidate{number: m[1], node: node, parent: parent})
			i++
			continue
		}

		var container *domain.NodeList
		if curSub != nil {
			container = &curSub.Content
		} else {
			if curSection == nil {
				curSection = &domain.Section{Heading: "Introduction", Content: domain.NodeList{}}
			}
			container = &curSection.Content
		}

		if isListParagraph(para.Style, text) {
			item := strings.TrimSpace(strings.TrimLeft(text, "•-* "))
			if n := len(*container); n > 0 {
				if last, ok := (*container)[n-1].(*domain.List); ok {
					last.Items = append(last.Items, item)
					i++
					continue
				}
			}
			*container = append(*container, &domain.List{Items: []string{item}})
		} else {
			*container = append(*container, &domain.Paragraph{Text: text})
		}
		i++
	}

	if curSection != nil {
		out.Body = append(out.Body, curSection)
	}
	return candidates
}

// bindFigures resolves caption candidates against the container's image
// relationships. A candidate first claims the unused relationship whose
// filename number matches its declared figure number, then falls back to
// the first unused one. Candidates left without an image are removed from
// the body.
func (e *DocxExtractor) bindFigures(doc *docx.Document, candidates []figureCandidate, out *domain.StructuredDocument) {
	used := make([]bool, len(doc.Images))
	bound := 0

	for _, cand := range candidates {
		idx := -1
		if num, err := strconv.Atoi(cand.number); err == nil {
			for j, rel := range doc.Images {
				if !used[j] && rel.Index == num {
					idx = j
					break
				}
			}
		}
		if idx == -1 {
			for j := range doc.Images {
				if !used[j] {
					idx = j
					break
				}
			}
		}
		if idx == -1 {
			e.logger.Warn("No image available for figure caption", "figure", cand.number)
			removeNode(cand.parent, cand.node)
			continue
		}

		rel := doc.Images[idx]
		used[idx] = true

		data, ok := doc.ImageData(rel.Target)
		if !ok {
			e.logger.Warn("Image payload missing for relationship", "rel_id", rel.ID, "target", rel.Target)
			removeNode(cand.parent, cand.node)
			continue
		}

		filename, path, err := e.figures.Save(fmt.Sprintf("figure_%d", bound+1), "", data)
		if err != nil {
			e.logger.Warn("Failed to save figure image", "target", rel.Target, "error", err)
			removeNode(cand.parent, cand.node)
			continue
		}

		bound++
		out.Metadata.Figures = append(out.Metadata.Figures, domain.FigureRecord{
			ID:       fmt.Sprintf("fig_%d", bound),
			Filename: filename,
			Caption:  fmt.Sprintf("Figure %s: %s", cand.number, cand.node.Caption),
			Path:     path,
		})
		cand.node.Content = path
	}
}

// removeNode drops node from the list it was provisionally appended to.
func removeNode(parent *domain.NodeList, node domain.Node) {
	if parent == nil {
		return
	}
	list := *parent
	for i, n := range list {
		if n == node {
			*parent = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// appendTables converts the container's tables. The first row becomes the
// header; zero-row tables are skipped without consuming a label. Each table
// lands in the flat list and in the content of the last section, or in a
// synthesized Tables section when the body is empty.
func (e *DocxExtractor) appendTables(doc *docx.Document, out *domain.StructuredDocument) {
	count := 1
	for _, tbl := range doc.Tables {
		if len(tbl.Rows) == 0 {
			continue
		}
		t := &domain.Table{
			Label:  fmt.Sprintf("Table%d", count),
			Header: cleanRow(tbl.Rows[0]),
			Rows:   [][]string{},
		}
		for _, row := range tbl.Rows[1:] {
			t.Rows = append(t.Rows, cleanRow(row))
		}
		out.Tables = append(out.Tables, t)

		placed := false
		if n := len(out.Body); n > 0 {
			if sec, ok := out.Body[n-1].(*domain.Section); ok {
				sec.Content = append(sec.Content, t)
				placed = true
			}
		}
		if !placed {
			out.Body = append(out.Body, &domain.Section{
				Heading: "Tables",
				Content: domain.NodeList{t},
			})
		}
		count++
	}
}

// collectReferences scans for the first paragraph opening with "Reference"
// and records every following non-blank paragraph as a citation until the
// next heading. IDs run densely from "1" regardless of any numbering inside
// the citation text.
func (e *DocxExtractor) collectReferences(paras []docx.Paragraph, out *domain.StructuredDocument) {
	start := -1
	for j, para := range paras {
		if referencesRe.MatchString(cleanText(para.Text)) {
			start = j
			break
		}
	}
	if start == -1 {
		return
	}

	id := 1
	for _, para := range paras[start+1:] {
		text := cleanText(para.Text)
		if text == "" {
			continue
		}
		if isHeadingStyle(para.Style) {
			break
		}
		out.References = append(out.References, domain.Reference{
			ID:       strconv.Itoa(id),
			Citation: text,
		})
		id++
	}
}

// cleanText collapses whitespace runs to single spaces and trims the ends.
func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func cleanRow(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cleanText(c)
	}
	return out
}

func isHeadingStyle(style string) bool {
	return strings.HasPrefix(strings.ToLower(style), "heading")
}

// headingLevel reads the numeric suffix of a heading style name. Styles
// named just "Heading" count as level 1.
func headingLevel(style string) int {
	m := headingLevelRe.FindStringSubmatch(strings.ToLower(style))
	if m == nil {
		return 1
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return level
}

func isListParagraph(style, text string) bool {
	if strings.HasPrefix(strings.ToLower(style), "list") {
		return true
	}
	return strings.HasPrefix(text, "•") || strings.HasPrefix(text, "-") || strings.HasPrefix(text, "*")
}
