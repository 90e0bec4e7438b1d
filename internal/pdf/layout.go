package pdf

import "strings"

// Kind identifies a layout node.
type Kind int

const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindList
	KindListItem
	KindTable
	KindImage
	KindCode
	KindQuote
	KindRule
	// KindGroup wraps nodes that are laid out together.
	KindGroup
)

var kindNames = map[Kind]string{
	KindHeading:   "heading",
	KindParagraph: "paragraph",
	KindList:      "list",
	KindListItem:  "list_item",
	KindTable:     "table",
	KindImage:     "image",
	KindCode:      "code",
	KindQuote:     "quote",
	KindRule:      "rule",
	KindGroup:     "group",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Span is a run of inline text sharing one style.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Link   string
}

// Node is one element of the layout tree.
type Node struct {
	Kind  Kind
	Level int
	Spans []Span
	// Children holds list items, nested lists, quote content and group members.
	Children []*Node
	Ordered  bool
	Start    int
	// Nested marks a list that lives inside another list item.
	Nested bool
	Table  *Table
	Image  *Image
	// Unbreakable groups are moved to the next page instead of being split,
	// unless they are taller than a page.
	Unbreakable bool
	Align       string
	Text        string
}

// Table is a grid of cells. The first HeaderRows rows repeat on every page
// the table spans.
type Table struct {
	Rows       [][]Cell
	HeaderRows int
}

// Cell is a table cell.
type Cell struct {
	Spans  []Span
	Header bool
	Align  string
}

// Image references an image by source.
type Image struct {
	Src    string
	Alt    string
	Width  float64
	Height float64
}

// PlainText concatenates the text of spans.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}

// ContainsTable reports whether n or one of its children is a table.
func (n *Node) ContainsTable() bool {
	if n == nil {
		return false
	}
	if n.Kind == KindTable {
		return true
	}
	for _, child := range n.Children {
		if child.ContainsTable() {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth first.
func Walk(nodes []*Node, visit func(*Node)) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		visit(node)
		Walk(node.Children, visit)
	}
}
