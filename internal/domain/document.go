package domain

// StructuredDocument is the common output of every extractor: manuscript
// metadata, the body content tree, the reference list, and the flat table
// list. It is built in one pass per extraction call and not mutated after
// return.
type StructuredDocument struct {
	Metadata   Metadata    `json:"metadata"`
	Body       NodeList    `json:"body"`
	References []Reference `json:"references"`
	Tables     []*Table    `json:"tables"`
}

// Metadata holds the manuscript front matter recovered by an extractor.
// Figures is populated lazily as images are discovered during the pass.
type Metadata struct {
	Title    string         `json:"title"`
	Authors  []Author       `json:"authors"`
	Abstract string         `json:"abstract"`
	Keywords []string       `json:"keywords"`
	Figures  []FigureRecord `json:"figures"`
}

// Author is one parsed author-block line. Role and Affiliation may be empty
// when the source line had fewer than three comma-separated parts.
type Author struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
}

// FigureRecord is the metadata-side record of a saved figure image. It is
// correlated with a body Figure node by path/caption, not by shared identity.
type FigureRecord struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
	Path     string `json:"path"`
}

// Reference is one bibliography entry. IDs are assigned densely starting at
// "1" in encounter order, independent of any numbering embedded in the
// citation text. De-duplication is the renderer's responsibility.
type Reference struct {
	ID       string `json:"id"`
	Citation string `json:"citation"`
}

// Table is an extracted table: first source row as header, the rest as data
// rows. Row lengths are not forced to match the header; partially merged
// extractions are tolerated. A Table is simultaneously an entry of
// StructuredDocument.Tables and, for the styled path, a content node of its
// section; both slots hold the same pointer.
type Table struct {
	Label  string     `json:"label"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewStructuredDocument returns a document with all collections initialized
// so JSON output carries empty arrays rather than nulls.
func NewStructuredDocument() *StructuredDocument {
	return &StructuredDocument{
		Metadata: Metadata{
			Authors:  []Author{},
			Keywords: []string{},
			Figures:  []FigureRecord{},
		},
		Body:       NodeList{},
		References: []Reference{},
		Tables:     []*Table{},
	}
}
