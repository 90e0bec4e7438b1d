package pdf

import (
	"strings"
	"testing"
)

func TestBuildLayoutGroupsHeadingWithTable(t *testing.T) {
	nodes, err := BuildLayout(`<h2>Approvals</h2>
<table><thead><tr><th>Domain</th><th>Status</th></tr></thead>
<tbody><tr><td>Finance</td><td>Pending</td></tr><tr><td>Legal</td><td>Approved</td></tr></tbody></table>`)
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected a single group, got %d nodes", len(nodes))
	}
	group := nodes[0]
	if group.Kind != KindGroup || !group.Unbreakable {
		t.Fatalf("expected unbreakable group, got %s", group.Kind)
	}
	if len(group.Children) != 2 || group.Children[0].Kind != KindHeading || group.Children[1].Kind != KindTable {
		t.Fatalf("unexpected group children: %+v", group.Children)
	}
	table := group.Children[1].Table
	if len(table.Rows) != 3 || table.HeaderRows != 1 {
		t.Fatalf("expected 3 rows with 1 header row, got %d/%d", len(table.Rows), table.HeaderRows)
	}
	if !table.Rows[0][0].Header || table.Rows[1][0].Header {
		t.Fatalf("header flags not set from thead")
	}
}

func TestBuildLayoutHeadingRunJoinsNextGroup(t *testing.T) {
	nodes, err := BuildLayout(`<h1>Policy</h1><h2>Scope</h2><p>Applies to all staff.</p><hr>`)
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected group and rule, got %d nodes", len(nodes))
	}
	if got := len(nodes[0].Children); got != 3 {
		t.Fatalf("expected both headings and the paragraph in one group, got %d children", got)
	}
	if nodes[1].Kind != KindRule {
		t.Fatalf("expected trailing rule, got %s", nodes[1].Kind)
	}
}

func TestBuildLayoutHeadingBeforeCodeStaysLoose(t *testing.T) {
	nodes, err := BuildLayout("<h3>Example</h3><pre><code>make build\n</code></pre>")
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Kind != KindHeading || nodes[1].Kind != KindCode {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	if nodes[1].Text != "make build" {
		t.Fatalf("unexpected code text %q", nodes[1].Text)
	}
}

func TestParseHTMLNestedListsStayInsideItem(t *testing.T) {
	nodes, err := BuildLayout(`<ul><li>Parent<ul><li>Child</li></ul></li><li>Sibling</li></ul>`)
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Kind != KindGroup {
		t.Fatalf("expected top-level list group, got %+v", nodes)
	}
	list := nodes[0].Children[0]
	if list.Kind != KindList || list.Nested {
		t.Fatalf("expected top-level list")
	}
	if len(list.Children) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list.Children))
	}
	nested := list.Children[0].Children
	if len(nested) != 1 || nested[0].Kind != KindList || !nested[0].Nested {
		t.Fatalf("expected nested list on first item, got %+v", nested)
	}
	if got := PlainText(list.Children[0].Spans); got != "Parent" {
		t.Fatalf("unexpected item text %q", got)
	}
}

func TestParseHTMLTaskCheckboxes(t *testing.T) {
	nodes, err := ParseHTML(`<ul><li><input type="checkbox" checked disabled> Done</li><li><input type="checkbox" disabled> Todo</li></ul>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	items := nodes[0].Children
	if got := PlainText(items[0].Spans); got != "[x] Done" {
		t.Fatalf("unexpected checked item %q", got)
	}
	if got := PlainText(items[1].Spans); got != "[  ] Todo" {
		t.Fatalf("unexpected unchecked item %q", got)
	}
	if !items[0].Spans[0].Bold {
		t.Fatalf("expected checkbox marker to be bold")
	}
}

func TestParseHTMLSplitsImagesOutOfParagraphs(t *testing.T) {
	nodes, err := ParseHTML(`<p>Before <img src="a.png" alt="Chart"> after</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected paragraph, image, paragraph; got %d nodes", len(nodes))
	}
	if nodes[1].Kind != KindImage || nodes[1].Image.Src != "a.png" || nodes[1].Align != "center" {
		t.Fatalf("unexpected image node %+v", nodes[1])
	}
	if PlainText(nodes[0].Spans) != "Before" || PlainText(nodes[2].Spans) != "after" {
		t.Fatalf("unexpected paragraph text")
	}
}

func TestParseHTMLInlineStyles(t *testing.T) {
	nodes, err := ParseHTML(`<p>See <a href="https://example.com">the <strong>site</strong></a> and <code>cfg</code>.</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	spans := nodes[0].Spans
	var link, bold, code bool
	for _, span := range spans {
		if span.Link == "https://example.com" {
			link = true
			if span.Text == "site" && span.Bold {
				bold = true
			}
		}
		if span.Code && span.Text == "cfg" {
			code = true
		}
	}
	if !link || !bold || !code {
		t.Fatalf("missing inline styles in %+v", spans)
	}
}

func TestStripEmoji(t *testing.T) {
	cases := map[string]string{
		"Ready 🚀 to ship":   "Ready to ship",
		"No emoji here":     "No emoji here",
		"✅ Done":            " Done",
		"Flag 🇩🇪 text":      "Flag text",
		"Joined 👩‍💻 worker": "Joined worker",
	}
	for in, want := range cases {
		if got := StripEmoji(in); got != want {
			t.Fatalf("StripEmoji(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseHTMLDropsEmptyBlocks(t *testing.T) {
	nodes, err := BuildLayout("<p>   </p><p>🚀</p><ul></ul><p>Kept</p>")
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one node, got %d", len(nodes))
	}
	if got := PlainText(nodes[0].Children[0].Spans); !strings.Contains(got, "Kept") {
		t.Fatalf("unexpected text %q", got)
	}
}
