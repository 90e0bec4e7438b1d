package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// GoldmarkParser renders policy markdown to HTML fragments.
type GoldmarkParser struct {
	engine goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser builds a parser. Without extensions it uses GFM with
// linkify and task lists, and raw HTML passes through unless SafeMode is set
// since documents embed <img> tags.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{engine: buildEngine(defaults)}
}

var pageParser = NewGoldmarkParser(interfaces.ParseOptions{})

// ToHTML converts a document body to the HTML published on pages and fed to
// the PDF layout.
func ToHTML(markdown string) (string, error) {
	out, err := pageParser.Parse([]byte(markdown))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return render(p.engine, markdown)
}

// ParseWithOptions renders with a one-off engine built from opts.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	return render(buildEngine(opts), markdown)
}

func render(engine goldmark.Markdown, source []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := engine.Convert(source, &out); err != nil {
		return nil, fmt.Errorf("markdown: render: %w", err)
	}
	return out.Bytes(), nil
}

func buildEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	var rendering []renderer.Option
	if opts.HardWraps {
		rendering = append(rendering, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendering = append(rendering, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendering...),
		goldmark.WithExtensions(extensionsFor(opts.Extensions)...),
	)
}

// Extension names accepted in ParseOptions. Unknown names are skipped.
var knownExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"definition":    extension.DefinitionList,
}

func extensionsFor(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}
	picked := make([]goldmark.Extender, 0, len(names))
	used := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := knownExtensions[key]
		if !ok || used[key] {
			continue
		}
		used[key] = true
		picked = append(picked, ext)
	}
	return picked
}
