package service

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"manuscript-extractor/internal/domain"
	apperrors "manuscript-extractor/pkg/errors"
)

// LatexRenderer fills a LaTeX template with fields derived from a structured
// document: title, author block, abstract, keywords, formatted body markup
// and a de-duplicated bibliography. Templates are plain text/template sources
// keyed on the field names below; body and author fields arrive as finished
// LaTeX fragments, free-text fields are escaped before insertion.
type LatexRenderer struct {
	logger domain.Logger
}

// NewLatexRenderer creates a new LaTeX renderer.
func NewLatexRenderer(logger domain.Logger) *LatexRenderer {
	return &LatexRenderer{logger: logger}
}

// Render executes templateText over the fields derived from doc and returns
// the LaTeX source. An empty templateText falls back to DefaultTemplate.
func (r *LatexRenderer) Render(doc *domain.StructuredDocument, templateText string) (string, error) {
	if templateText == "" {
		templateText = DefaultTemplate
	}

	tmpl, err := template.New("latex").Parse(templateText)
	if err != nil {
		return "", apperrors.NewProcessingError("failed to parse LaTeX template", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, r.templateData(doc)); err != nil {
		return "", apperrors.NewProcessingError("failed to fill LaTeX template", err)
	}

	r.logger.Debug("Rendered LaTeX document", "bytes", sb.Len())
	return sb.String(), nil
}

// templateData flattens the document into the fixed field set templates are
// written against. The empty fields are front-matter placeholders with no
// extraction source yet; they stay in the contract so journal templates can
// reference them.
func (r *LatexRenderer) templateData(doc *domain.StructuredDocument) map[string]string {
	title := doc.Metadata.Title
	if title == "" {
		title = "Untitled"
	}

	return map[string]string{
		"title":                 title,
		"short_title":           truncateRunes(title, 30),
		"abstract":              doc.Metadata.Abstract,
		"keywords":              strings.Join(doc.Metadata.Keywords, ", "),
		"author_block":          formatAuthors(doc.Metadata.Authors),
		"credit_roles":          formatRoles(doc.Metadata.Authors),
		"content":               formatBody(doc.Body),
		"bibliography":          formatReferences(doc.References),
		"non_technical_summary": "",
		"acknowledgements":      "",
		"data_availability":     "",
		"competing_interests":   "",
		"methods_content":       "",
		"doi":                   "",
		"editor_name":           "",
		"received_date":         "",
		"accepted_date":         "",
		"published_date":        "",
		"year":                  strconv.Itoa(time.Now().Year()),
		"volume":                "1",
		"paper_number":          "001",
		"bib_file":              "references.bib",
	}
}

// formatAuthors renders one \author line per author and one \address line
// per distinct affiliation, with institute keys numbered in first-seen
// order so co-located authors share an address entry.
func formatAuthors(authors []domain.Author) string {
	if len(authors) == 0 {
		return "Unknown Author"
	}

	affilKeys := make(map[string]int)
	var affilOrder []string
	lines := make([]string, 0, len(authors))
	for _, author := range authors {
		key, ok := affilKeys[author.Affiliation]
		if !ok {
			key = len(affilKeys) + 1
			affilKeys[author.Affiliation] = key
			affilOrder = append(affilOrder, author.Affiliation)
		}
		lines = append(lines, fmt.Sprintf("\\author[inst%d]{%s}", key, author.Name))
	}
	for _, affil := range affilOrder {
		lines = append(lines, fmt.Sprintf("\\address[inst%d]{%s}", affilKeys[affil], affil))
	}
	return strings.Join(lines, "\n")
}

// formatRoles builds the credit line pairing each role-carrying author with
// their declared role. Authors without a role are left out.
func formatRoles(authors []domain.Author) string {
	var roles []string
	for _, author := range authors {
		if author.Role != "" {
			roles = append(roles, fmt.Sprintf("%s (%s)", author.Name, author.Role))
		}
	}
	return strings.Join(roles, `\\`)
}

// formatBody renders the top-level sections. Flat paragraph nodes, as the
// paginated path emits, carry no heading to hang content on and are skipped.
func formatBody(body domain.NodeList) string {
	var parts []string
	for _, node := range body {
		section, ok := node.(*domain.Section)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("\\section{%s}", section.Heading))
		for _, item := range section.Content {
			parts = append(parts, formatContentItem(item))
		}
	}
	return strings.Join(parts, "\n\n")
}

// formatContentItem renders one content node. Subsections recurse one level;
// their content holds only leaf nodes.
func formatContentItem(node domain.Node) string {
	switch n := node.(type) {
	case *domain.Paragraph:
		return escapeLatex(n.Text)
	case *domain.Figure:
		return formatFigure(n)
	case *domain.List:
		return formatList(n)
	case *domain.Table:
		return formatTable(n)
	case *domain.Subsection:
		parts := make([]string, 0, len(n.Content)+1)
		parts = append(parts, fmt.Sprintf("\\subsection{%s}", n.Heading))
		for _, item := range n.Content {
			parts = append(parts, formatContentItem(item))
		}
		return strings.Join(parts, "\n\n")
	}
	return ""
}

// formatFigure emits an [H] float around the saved image. Spaces are dropped
// from the label and Windows path separators normalized for TeX.
func formatFigure(figure *domain.Figure) string {
	caption := escapeLatex(figure.Caption)
	label := strings.ReplaceAll(figure.Label, " ", "")
	path := strings.ReplaceAll(figure.Content, `\`, "/")

	return "\\begin{figure}[H]\n" +
		"\\centering\n" +
		fmt.Sprintf("\\includegraphics[width=0.8\\textwidth]{%s}\n", path) +
		fmt.Sprintf("\\caption{%s}\n", caption) +
		fmt.Sprintf("\\label{%s}\n", label) +
		"\\end{figure}"
}

func formatList(list *domain.List) string {
	items := make([]string, len(list.Items))
	for i, item := range list.Items {
		items[i] = "  \\item " + escapeLatex(item)
	}
	return "\\begin{itemize}\n" + strings.Join(items, "\n") + "\n\\end{itemize}"
}

// formatTable emits an [H] float with a fully ruled left-aligned tabular.
// Row lengths are taken as extracted; a short row simply renders fewer
// cells than the header declares columns.
func formatTable(table *domain.Table) string {
	headers := make([]string, len(table.Header))
	cols := make([]string, len(table.Header))
	for i, h := range table.Header {
		headers[i] = escapeLatex(h)
		cols[i] = "l"
	}

	rows := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = escapeLatex(cell)
		}
		rows[i] = strings.Join(cells, " & ") + ` \\`
	}

	var sb strings.Builder
	sb.WriteString("\\begin{table}[H]\n\\centering\n")
	fmt.Fprintf(&sb, "\\caption{%s}\n", table.Label)
	fmt.Fprintf(&sb, "\\label{tab:%s}\n", strings.ToLower(table.Label))
	fmt.Fprintf(&sb, "\\begin{tabular}{|%s|}\n\\hline\n", strings.Join(cols, " | "))
	sb.WriteString(strings.Join(headers, " & ") + " \\\\\n\\hline\n")
	sb.WriteString(strings.Join(rows, "\n") + "\n\\hline\n")
	sb.WriteString("\\end{tabular}\n\\end{table}")
	return sb.String()
}

// formatReferences renders \bibitem lines, dropping references whose
// citation text already appeared. The first occurrence wins and keeps its
// assigned ID.
func formatReferences(refs []domain.Reference) string {
	if len(refs) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(refs))
	var lines []string
	for _, ref := range refs {
		if seen[ref.Citation] {
			continue
		}
		seen[ref.Citation] = true
		lines = append(lines, fmt.Sprintf("\\bibitem{ref%s} %s", ref.ID, escapeLatex(ref.Citation)))
	}
	return strings.Join(lines, "\n")
}

// latexEscaper rewrites LaTeX-reserved characters in a single pass, so the
// backslashes and braces it emits are never themselves re-escaped.
var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// escapeLatex makes free text safe for insertion into a LaTeX body.
func escapeLatex(text string) string {
	return latexEscaper.Replace(text)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// DefaultTemplate is the built-in article skeleton used when the caller
// supplies no template of their own.
const DefaultTemplate = `\documentclass{llncs}

% PACKAGES
\usepackage[utf8]{inputenc}
\usepackage{amsmath,amsfonts,amssymb}
\usepackage{graphicx}
\usepackage{cite}
\usepackage{hyperref}
\usepackage{url}
\usepackage{float}
\usepackage{caption}
\usepackage{booktabs}

% TITLE
\title{ {{.title}} }

% AUTHORS BLOCK
\author{ {{.author_block}} }

\begin{document}

\maketitle

% ABSTRACT
\begin{abstract}
{{.abstract}}
\end{abstract}

% KEYWORDS
{{if .keywords}}\keywords{ {{.keywords}} }
{{end}}
% MAIN CONTENT
{{.content}}

% REFERENCES
\bibliographystyle{splncs04}
\begin{thebibliography}{99}
{{.bibliography}}
\end{thebibliography}

\end{document}
`
