// Package docx reads styled .docx containers: paragraph text with resolved
// style display names, table cell grids, and image relationships with their
// media payloads. It exposes the container surface the styled-document
// extractor consumes and performs no content heuristics itself.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"manuscript-extractor/internal/domain"
)

// Paragraph is one body paragraph: concatenated run text plus the resolved
// paragraph style display name (e.g. "Heading 1", "List Bullet", "Normal").
type Paragraph struct {
	Text  string
	Style string
}

// Table is one body table as a row-major grid of cell text.
type Table struct {
	Rows [][]string
}

// ImageRel is one image relationship from the document part, in rels-file
// order. Index carries the digits embedded in the target filename
// ("media/image3.png" -> 3), or 0 when the name carries none.
type ImageRel struct {
	ID     string
	Target string
	Index  int
}

// Document is the parsed container consumed by the extractor. Paragraphs and
// Tables preserve document order within their own sequences; paragraphs
// inside table cells are folded into cell text and do not appear in
// Paragraphs.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
	Images     []ImageRel

	media map[string][]byte
}

// Open parses a .docx container from r.
func Open(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	return parse(zr)
}

// OpenFile parses the .docx container at filename.
func OpenFile(filename string) (*Document, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer zr.Close()
	return parse(&zr.Reader)
}

// ImageData returns the media payload referenced by an image relationship
// target.
func (d *Document) ImageData(target string) ([]byte, bool) {
	data, ok := d.media[resolveTarget(target)]
	return data, ok
}

func parse(zr *zip.Reader) (*Document, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	docFile, ok := files["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("word/document.xml: %w", domain.ErrMissingPart)
	}

	doc := &Document{media: make(map[string][]byte)}

	styles := parseStyles(files["word/styles.xml"])

	for _, rel := range parseRelationships(files["word/_rels/document.xml.rels"]) {
		if !strings.HasSuffix(rel.Type, "/image") {
			continue
		}
		doc.Images = append(doc.Images, ImageRel{
			ID:     rel.ID,
			Target: rel.Target,
			Index:  targetIndex(rel.Target),
		})
	}

	for name, f := range files {
		if !strings.HasPrefix(name, "word/media/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		doc.media[name] = data
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	if err := doc.parseBody(xml.NewDecoder(rc), styles); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseBody walks the document part, dispatching top-level paragraphs and
// tables. Table-internal paragraphs are consumed by parseTable and never
// reach this loop.
func (d *Document) parseBody(dec *xml.Decoder, styles map[string]string) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode document part: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "p":
			text, styleID, err := parseParagraph(dec)
			if err != nil {
				return err
			}
			d.Paragraphs = append(d.Paragraphs, Paragraph{
				Text:  text,
				Style: resolveStyle(styleID, styles),
			})
		case "tbl":
			table, err := parseTable(dec)
			if err != nil {
				return err
			}
			d.Tables = append(d.Tables, table)
		}
	}
}

// parseParagraph consumes tokens until the paragraph closes, collecting run
// text in document order. Tabs and soft breaks become single spaces;
// hyperlink and smart-tag runs are picked up through their nested w:t
// elements.
func parseParagraph(dec *xml.Decoder) (text, styleID string, err error) {
	var sb strings.Builder
	depth := 1
	inText := false
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", "", fmt.Errorf("decode paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				if styleID == "" {
					styleID = attrVal(t, "val")
				}
			case "t":
				inText = true
			case "tab", "br":
				sb.WriteByte(' ')
			}
			depth++
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), styleID, nil
}

// parseTable consumes tokens until the table closes. Rows and cells are
// recognized only at their expected nesting depth so a nested table folds
// into its host cell's text instead of corrupting the outer grid.
func parseTable(dec *xml.Decoder) (Table, error) {
	var (
		table    Table
		row      []string
		cell     strings.Builder
		cellOpen bool
		inText   bool
		depth    = 1
	)
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return Table{}, fmt.Errorf("decode table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "tr" && depth == 1:
				row = []string{}
			case t.Name.Local == "tc" && depth == 2:
				cellOpen = true
				cell.Reset()
			case t.Name.Local == "p" && cellOpen && cell.Len() > 0:
				cell.WriteByte(' ')
			case t.Name.Local == "t" && cellOpen:
				inText = true
			case (t.Name.Local == "tab" || t.Name.Local == "br") && cellOpen:
				cell.WriteByte(' ')
			}
			depth++
		case xml.EndElement:
			depth--
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "tc" && depth == 2:
				row = append(row, cell.String())
				cellOpen = false
			case t.Name.Local == "tr" && depth == 1 && row != nil:
				table.Rows = append(table.Rows, row)
				row = nil
			}
		case xml.CharData:
			if inText {
				cell.Write(t)
			}
		}
	}
	return table, nil
}

// stylesXML mirrors the parts of word/styles.xml we consume.
type stylesXML struct {
	Styles []styleDefXML `xml:"style"`
}

type styleDefXML struct {
	StyleID string       `xml:"styleId,attr"`
	Name    styleNameXML `xml:"name"`
}

type styleNameXML struct {
	Val string `xml:"val,attr"`
}

// parseStyles builds the style ID -> display name map. A missing or
// malformed styles part degrades to an empty map.
func parseStyles(f *zip.File) map[string]string {
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	var parsed stylesXML
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil
	}
	names := make(map[string]string, len(parsed.Styles))
	for _, s := range parsed.Styles {
		if s.StyleID != "" && s.Name.Val != "" {
			names[s.StyleID] = s.Name.Val
		}
	}
	return names
}

// relationshipsXML mirrors word/_rels/document.xml.rels.
type relationshipsXML struct {
	Rels []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// parseRelationships returns the document relationships in file order. A
// missing or malformed rels part degrades to none.
func parseRelationships(f *zip.File) []relationshipXML {
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	var parsed relationshipsXML
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil
	}
	return parsed.Rels
}

func resolveStyle(styleID string, names map[string]string) string {
	if styleID == "" {
		return "Normal"
	}
	if name, ok := names[styleID]; ok {
		return name
	}
	return styleID
}

func attrVal(el xml.StartElement, local string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

var digitRunRe = regexp.MustCompile(`\d+`)

// targetIndex parses the declared image number out of a relationship target
// filename, taking the last digit run in the stem.
func targetIndex(target string) int {
	stem := strings.TrimSuffix(path.Base(target), path.Ext(target))
	runs := digitRunRe.FindAllString(stem, -1)
	if len(runs) == 0 {
		return 0
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return 0
	}
	return n
}

// resolveTarget maps a relationship target onto its zip entry name.
// Relative targets resolve against word/; absolute targets against the
// package root.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Join("word", target)
}
