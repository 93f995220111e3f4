package service

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"manuscript-extractor/internal/domain"
	"manuscript-extractor/internal/pdfdoc"
)

// pdfLine positions one text line by its visual top edge.
func pdfLine(text string, top float64) pdfdoc.Line {
	return pdfdoc.Line{Text: text, BBox: pdfdoc.BBox{X: 72, Y: top - 10, W: 300, H: 10}}
}

// pdfTable positions one detected region spanning top down to bottom.
func pdfTable(cells [][]string, top, bottom float64) pdfdoc.TableRegion {
	return pdfdoc.TableRegion{
		BBox:  pdfdoc.BBox{X: 72, Y: bottom, W: 300, H: top - bottom},
		Cells: cells,
	}
}

func newPDFExtractor(t *testing.T) (*PDFExtractor, string) {
	t.Helper()
	dir := t.TempDir()
	logger := NewMockLogger()
	return NewPDFExtractor(NewFigureWriter(dir, logger), logger), dir
}

func bodyTexts(t *testing.T, out *domain.StructuredDocument) []string {
	t.Helper()
	texts := make([]string, 0, len(out.Body))
	for _, node := range out.Body {
		p, ok := node.(*domain.Paragraph)
		if !ok {
			t.Fatalf("body node = %T, want flat *domain.Paragraph", node)
		}
		texts = append(texts, p.Text)
	}
	return texts
}

func TestPDFExtractorTitleAndBody(t *testing.T) {
	// Lines arrive in arbitrary order; the merge reads the page top down.
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{{
			Number: 1,
			Lines: []pdfdoc.Line{
				pdfLine("First paragraph.", 650),
				pdfLine("A Study of Things", 700),
				pdfLine("Second paragraph.", 600),
			},
		}},
		Images: map[int][]pdfdoc.EmbeddedImage{},
	}

	extractor, _ := newPDFExtractor(t)
	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if out.Metadata.Title != "A Study of Things" {
		t.Errorf("title = %q, want the topmost line", out.Metadata.Title)
	}
	want := []string{"First paragraph.", "Second paragraph."}
	if got := bodyTexts(t, out); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestPDFExtractorTableSuppression(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{{
			Number: 1,
			Lines: []pdfdoc.Line{
				pdfLine("Title line", 700),
				pdfLine("Bolt 12", 650), // inside the region's vertical span
				pdfLine("After the table.", 550),
			},
			Tables: []pdfdoc.TableRegion{
				pdfTable([][]string{{"Name", "Qty"}, {"Bolt", "12"}}, 660, 600),
			},
		}},
		Images: map[int][]pdfdoc.EmbeddedImage{},
	}

	extractor, _ := newPDFExtractor(t)
	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(out.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(out.Tables))
	}
	table := out.Tables[0]
	if table.Label != "Table1" {
		t.Errorf("label = %q, want Table1", table.Label)
	}
	if !reflect.DeepEqual(table.Header, []string{"Name", "Qty"}) {
		t.Errorf("header = %v", table.Header)
	}
	if !reflect.DeepEqual(table.Rows, [][]string{{"Bolt", "12"}}) {
		t.Errorf("rows = %v", table.Rows)
	}

	// The suppressed line survives only through the region's cells, and the
	// region itself never joins the body.
	want := []string{"After the table."}
	if got := bodyTexts(t, out); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestPDFExtractorEmailIsolation(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{{
			Number: 1,
			Lines: []pdfdoc.Line{
				pdfLine("The Paper", 700),
				pdfLine("John Smith john@lab.org Dept of X", 650),
				pdfLine("Email: admin@lab.org", 600),
			},
		}},
		Images: map[int][]pdfdoc.EmbeddedImage{},
	}

	extractor, _ := newPDFExtractor(t)
	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"John Smith", "john@lab.org", "Dept of X", "Email: admin@lab.org"}
	if got := bodyTexts(t, out); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestPDFExtractorBulletNormalization(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{{
			Number: 1,
			Lines: []pdfdoc.Line{
				pdfLine("Title", 700),
				pdfLine("•   first item", 650),
				pdfLine("- already dashed", 600),
			},
		}},
		Images: map[int][]pdfdoc.EmbeddedImage{},
	}

	extractor, _ := newPDFExtractor(t)
	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"- first item", "- already dashed"}
	if got := bodyTexts(t, out); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestPDFExtractorCaptionBinding(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{{
			Number: 1,
			Lines: []pdfdoc.Line{
				pdfLine("Doc Title", 700),
				pdfLine("Fig 1: Test Pipeline!", 650),
				pdfLine("fig: spare caption", 600),
				pdfLine("figure 2: spelled out", 550),
			},
		}},
		Images: map[int][]pdfdoc.EmbeddedImage{
			1: {{Name: "Im1", Ext: "png", Data: []byte("payload")}},
		},
	}

	dir := t.TempDir()
	logger := NewMockLogger()
	extractor := NewPDFExtractor(NewFigureWriter(dir, logger), logger)

	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(out.Metadata.Figures) != 1 {
		t.Fatalf("got %d figure records, want 1", len(out.Metadata.Figures))
	}
	rec := out.Metadata.Figures[0]
	if rec.ID != "fig_1" || rec.Filename != "test_pipeline.png" || rec.Caption != "Fig 1: Test Pipeline!" {
		t.Errorf("record = %+v", rec)
	}
	saved, err := os.ReadFile(filepath.Join(dir, "test_pipeline.png"))
	if err != nil {
		t.Fatalf("read saved figure: %v", err)
	}
	if !bytes.Equal(saved, []byte("payload")) {
		t.Errorf("saved payload = %q", saved)
	}

	// The second marker finds no image left and falls through to body text;
	// "figure 2:" is not a caption marker on this path at all.
	want := []string{"fig: spare caption", "figure 2: spelled out"}
	if got := bodyTexts(t, out); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestPDFExtractorLeftoverImages(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{
			{Number: 1, Lines: []pdfdoc.Line{pdfLine("Title", 700)}},
			{Number: 2},
		},
		Images: map[int][]pdfdoc.EmbeddedImage{
			2: {
				{Name: "X", Ext: "jpg", Data: []byte("a")},
				{Name: "Y", Ext: "png", Data: []byte("b")},
			},
		},
	}

	dir := t.TempDir()
	logger := NewMockLogger()
	extractor := NewPDFExtractor(NewFigureWriter(dir, logger), logger)

	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(out.Metadata.Figures) != 2 {
		t.Fatalf("got %d figure records, want 2", len(out.Metadata.Figures))
	}
	first := out.Metadata.Figures[0]
	if first.ID != "fig_1" || first.Filename != "image_2_1.jpg" || first.Caption != "image_2_1.jpg" {
		t.Errorf("first record = %+v, want page/position name used as caption", first)
	}
	second := out.Metadata.Figures[1]
	if second.Filename != "image_2_2.png" {
		t.Errorf("second record = %+v", second)
	}
	for _, rec := range out.Metadata.Figures {
		if _, err := os.Stat(filepath.Join(dir, rec.Filename)); err != nil {
			t.Errorf("saved image %s: %v", rec.Filename, err)
		}
	}
}

func TestPDFExtractorTableNumberingAcrossPages(t *testing.T) {
	doc := &pdfdoc.Document{
		Pages: []pdfdoc.Page{
			{
				Number: 1,
				Tables: []pdfdoc.TableRegion{
					pdfTable([][]string{{"A", "B"}, {"1", "2"}}, 660, 600),
					pdfTable(nil, 500, 450), // no cells, consumes no label
				},
			},
			{
				Number: 2,
				Tables: []pdfdoc.TableRegion{
					pdfTable([][]string{{"C", "D"}, {"3", "4"}}, 660, 600),
				},
			},
		},
		Images: map[int][]pdfdoc.EmbeddedImage{},
	}

	extractor, _ := newPDFExtractor(t)
	out, err := extractor.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(out.Tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(out.Tables))
	}
	if out.Tables[0].Label != "Table1" || out.Tables[1].Label != "Table2" {
		t.Errorf("labels = %q, %q, want run-wide Table1, Table2", out.Tables[0].Label, out.Tables[1].Label)
	}
	if out.Tables[1].Header[0] != "C" {
		t.Errorf("second table header = %v, want the page-2 region", out.Tables[1].Header)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	got := collapseBlankLines([]string{"a", "", "  ", "b", ""})
	want := []string{"a", "", "b", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collapseBlankLines = %v, want %v", got, want)
	}
}

func TestCaptionFilename(t *testing.T) {
	tests := []struct {
		caption string
		want    string
	}{
		{"Fig 3: My Setup!", "my_setup"},
		{"Fig 12 : v2.0 Pipeline", "v2.0_pipeline"},
		{"fig: !!!", "image"},
		{"no marker here", "no_marker_here"},
	}
	for _, tt := range tests {
		if got := captionFilename(tt.caption); got != tt.want {
			t.Errorf("captionFilename(%q) = %q, want %q", tt.caption, got, tt.want)
		}
	}
}
