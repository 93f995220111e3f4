package domain

import (
	"encoding/json"
	"fmt"
)

// NodeType discriminates content node variants on the wire.
type NodeType string

const (
	NodeTypeSection    NodeType = "section"
	NodeTypeSubsection NodeType = "subsection"
	NodeTypeParagraph  NodeType = "paragraph"
	NodeTypeFigure     NodeType = "figure"
	NodeTypeList       NodeType = "list"
	NodeTypeTable      NodeType = "table"
)

// Node is one element of the body content tree. The closed variant set is
// Section, Subsection, Paragraph, Figure, List and Table; consumers switch
// over the concrete types.
type Node interface {
	Type() NodeType
}

// NodeList is an ordered sequence of content nodes that knows how to decode
// itself from type-tagged JSON.
type NodeList []Node

// Section is a top-level body division. Content depth is exactly two levels:
// a Section may contain Subsections, but Subsections contain only leaf nodes.
type Section struct {
	Heading string   `json:"heading"`
	Content NodeList `json:"content"`
}

// Subsection is a Section-shaped node nested inside a Section.
type Subsection struct {
	Heading string   `json:"heading"`
	Content NodeList `json:"content"`
}

// Paragraph is a run of whitespace-normalized prose.
type Paragraph struct {
	Text string `json:"text"`
}

// Figure is an inline figure bound to a saved image file; Content is the
// file path.
type Figure struct {
	Label   string `json:"label"`
	Caption string `json:"caption"`
	Content string `json:"content"`
}

// List is a run of consecutive bullet items.
type List struct {
	Items []string `json:"items"`
}

func (*Section) Type() NodeType    { return NodeTypeSection }
func (*Subsection) Type() NodeType { return NodeTypeSubsection }
func (*Paragraph) Type() NodeType  { return NodeTypeParagraph }
func (*Figure) Type() NodeType     { return NodeTypeFigure }
func (*List) Type() NodeType       { return NodeTypeList }
func (*Table) Type() NodeType      { return NodeTypeTable }

func (s *Section) MarshalJSON() ([]byte, error) {
	type alias Section
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{s.Type(), (*alias)(s)})
}

func (s *Subsection) MarshalJSON() ([]byte, error) {
	type alias Subsection
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{s.Type(), (*alias)(s)})
}

func (p *Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{p.Type(), (*alias)(p)})
}

func (f *Figure) MarshalJSON() ([]byte, error) {
	type alias Figure
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{f.Type(), (*alias)(f)})
}

func (l *List) MarshalJSON() ([]byte, error) {
	type alias List
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{l.Type(), (*alias)(l)})
}

// MarshalJSON tags the table so the same value serializes identically as a
// flat-list entry and as a content node.
func (t *Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{t.Type(), (*alias)(t)})
}

// UnmarshalJSON decodes a JSON array of type-tagged nodes.
func (nl *NodeList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(NodeList, 0, len(raws))
	for _, raw := range raws {
		node, err := UnmarshalNode(raw)
		if err != nil {
			return err
		}
		out = append(out, node)
	}
	*nl = out
	return nil
}

// UnmarshalNode decodes a single type-tagged content node.
func UnmarshalNode(data []byte) (Node, error) {
	var probe struct {
		Type NodeType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case NodeTypeSection:
		var n Section
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case NodeTypeSubsection:
		var n Subsection
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case NodeTypeParagraph:
		var n Paragraph
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case NodeTypeFigure:
		var n Figure
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case NodeTypeList:
		var n List
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case NodeTypeTable:
		var n Table
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("unknown content node type %q", probe.Type)
	}
}
