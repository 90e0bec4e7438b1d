package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BuildLayout is the second pipeline stage. It parses an HTML fragment into
// layout nodes and applies keep-together grouping.
func BuildLayout(fragment string) ([]*Node, error) {
	nodes, err := ParseHTML(fragment)
	if err != nil {
		return nil, err
	}
	return Group(nodes), nil
}

// ParseHTML converts an HTML fragment into ungrouped layout nodes.
func ParseHTML(fragment string) ([]*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("pdf: parse html: %w", err)
	}

	b := &treeBuilder{}
	for _, n := range parsed {
		b.block(n, false)
	}
	b.flush()
	return b.out, nil
}

type treeBuilder struct {
	out []*Node
	// pending collects loose inline content between blocks.
	pending []Span
}

func (b *treeBuilder) emit(node *Node) {
	b.flush()
	if node != nil {
		b.out = append(b.out, node)
	}
}

func (b *treeBuilder) flush() {
	spans := trimSpans(b.pending)
	b.pending = nil
	if len(spans) == 0 {
		return
	}
	b.out = append(b.out, &Node{Kind: KindParagraph, Spans: spans})
}

func (b *treeBuilder) block(n *html.Node, nested bool) {
	switch n.Type {
	case html.TextNode:
		b.pending = append(b.pending, Span{Text: StripEmoji(collapseWhitespace(n.Data))})
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level, _ := strconv.Atoi(n.Data[1:])
		b.emit(&Node{Kind: KindHeading, Level: level, Spans: trimSpans(inline(n, Span{}))})
	case atom.P:
		b.flush()
		b.paragraph(n)
	case atom.Ul, atom.Ol:
		b.emit(list(n, nested))
	case atom.Table:
		b.emit(table(n))
	case atom.Pre:
		b.emit(&Node{Kind: KindCode, Text: StripEmoji(strings.TrimRight(textContent(n), "\n"))})
	case atom.Blockquote:
		inner := &treeBuilder{}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			inner.block(c, nested)
		}
		inner.flush()
		b.emit(&Node{Kind: KindQuote, Children: inner.out})
	case atom.Hr:
		b.emit(&Node{Kind: KindRule})
	case atom.Img:
		b.emit(imageNode(n))
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Body, atom.Details:
		b.flush()
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.block(c, nested)
		}
		b.flush()
	default:
		b.pending = append(b.pending, inline(n, Span{})...)
	}
}

// paragraph emits the inline content of a <p>, splitting it around images so
// every image becomes its own node.
func (b *treeBuilder) paragraph(n *html.Node) {
	var spans []Span
	var walk func(*html.Node, Span)
	walk = func(node *html.Node, style Span) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Img {
				if trimmed := trimSpans(spans); len(trimmed) > 0 {
					b.out = append(b.out, &Node{Kind: KindParagraph, Spans: trimmed})
				}
				spans = nil
				b.out = append(b.out, imageNode(c))
				continue
			}
			if c.Type == html.ElementNode && hasElement(c, atom.Img) {
				walk(c, styleFor(c, style))
				continue
			}
			spans = append(spans, inline(c, style)...)
		}
	}
	walk(n, Span{})
	if trimmed := trimSpans(spans); len(trimmed) > 0 {
		b.out = append(b.out, &Node{Kind: KindParagraph, Spans: trimmed})
	}
}

// inline flattens n into styled spans.
func inline(n *html.Node, style Span) []Span {
	switch n.Type {
	case html.TextNode:
		text := StripEmoji(collapseWhitespace(n.Data))
		if text == "" {
			return nil
		}
		span := style
		span.Text = text
		return []Span{span}
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Br:
		span := style
		span.Text = "\n"
		return []Span{span}
	case atom.Input:
		if !strings.EqualFold(attr(n, "type"), "checkbox") {
			return nil
		}
		return []Span{{Text: Checkbox(hasAttr(n, "checked")), Bold: true}}
	case atom.Img:
		alt := strings.TrimSpace(attr(n, "alt"))
		if alt == "" {
			return nil
		}
		span := style
		span.Text = alt
		span.Italic = true
		return []Span{span}
	case atom.Ul, atom.Ol, atom.Table, atom.Pre:
		return nil
	}

	next := styleFor(n, style)
	var spans []Span
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		spans = append(spans, inline(c, next)...)
	}
	return spans
}

func styleFor(n *html.Node, style Span) Span {
	switch n.DataAtom {
	case atom.Strong, atom.B, atom.Th:
		style.Bold = true
	case atom.Em, atom.I:
		style.Italic = true
	case atom.Code, atom.Kbd, atom.Samp:
		style.Code = true
	case atom.A:
		style.Link = attr(n, "href")
	}
	return style
}

func list(n *html.Node, nested bool) *Node {
	node := &Node{
		Kind:    KindList,
		Ordered: n.DataAtom == atom.Ol,
		Nested:  nested,
		Start:   1,
	}
	if start, err := strconv.Atoi(attr(n, "start")); err == nil {
		node.Start = start
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		node.Children = append(node.Children, listItem(c))
	}
	return node
}

func listItem(n *html.Node) *Node {
	item := &Node{Kind: KindListItem}
	var spans []Span
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
			item.Children = append(item.Children, list(c, true))
			continue
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.P && len(spans) > 0 {
			spans = append(spans, Span{Text: "\n"})
		}
		spans = append(spans, inline(c, Span{})...)
	}
	item.Spans = trimSpans(spans)
	return item
}

func table(n *html.Node) *Node {
	t := &Table{}
	headerRows := 0
	var collect func(*html.Node, bool)
	collect = func(node *html.Node, inHead bool) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				collect(c, true)
			case atom.Tbody, atom.Tfoot:
				collect(c, false)
			case atom.Tr:
				row, allHeader := tableRow(c, inHead)
				if len(row) == 0 {
					continue
				}
				if allHeader && len(t.Rows) == headerRows {
					headerRows++
				}
				t.Rows = append(t.Rows, row)
			}
		}
	}
	collect(n, false)

	// Only the first header row repeats on continuation pages.
	t.HeaderRows = min(headerRows, 1)
	return &Node{Kind: KindTable, Table: t}
}

func tableRow(tr *html.Node, inHead bool) ([]Cell, bool) {
	var cells []Cell
	allHeader := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		header := inHead || c.DataAtom == atom.Th
		if !header {
			allHeader = false
		}
		style := Span{Bold: header}
		var spans []Span
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			spans = append(spans, inline(child, style)...)
		}
		cells = append(cells, Cell{
			Spans:  trimSpans(spans),
			Header: header,
			Align:  cellAlign(c),
		})
	}
	return cells, allHeader && len(cells) > 0
}

func cellAlign(n *html.Node) string {
	if align := strings.ToLower(strings.TrimSpace(attr(n, "align"))); align != "" {
		return align
	}
	style := strings.ToLower(attr(n, "style"))
	for _, decl := range strings.Split(style, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(key) == "text-align" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func imageNode(n *html.Node) *Node {
	img := &Image{
		Src: strings.TrimSpace(attr(n, "src")),
		Alt: strings.TrimSpace(attr(n, "alt")),
	}
	if w, err := strconv.ParseFloat(attr(n, "width"), 64); err == nil {
		img.Width = w
	}
	if h, err := strconv.ParseFloat(attr(n, "height"), 64); err == nil {
		img.Height = h
	}
	return &Node{Kind: KindImage, Image: img, Align: "center"}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasElement(n *html.Node, a atom.Atom) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == a || hasElement(c, a)) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}
