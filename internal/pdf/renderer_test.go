package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// countShown counts text-show operators for text in uncompressed output.
// fpdf writes "(text)Tj" for cells and "(text) Tj" for free text.
func countShown(data []byte, text string) int {
	pattern := regexp.MustCompile(`\(` + regexp.QuoteMeta(text) + `\)\s*Tj`)
	return len(pattern.FindAllIndex(data, -1))
}

func newTestRenderer(t *testing.T, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(cfg)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	r.compress = false
	return r
}

func TestNewRendererFailsOnMissingAsset(t *testing.T) {
	_, err := NewRenderer(Config{Assets: map[string]string{"logo": "testdata/missing.png"}})
	if !errors.Is(err, ErrMissingAsset) {
		t.Fatalf("expected ErrMissingAsset, got %v", err)
	}

	_, err = NewRenderer(Config{FontFamily: "Brand", FontFiles: map[string]string{"B": "testdata/missing.ttf"}})
	if !errors.Is(err, ErrMissingAsset) {
		t.Fatalf("expected ErrMissingAsset for font without regular style, got %v", err)
	}
}

func TestRenderMarkdownWithBands(t *testing.T) {
	r := newTestRenderer(t, Config{Assets: map[string]string{"logo": "testdata/logo.png"}})

	opts := DefaultOptions()
	opts.Title = "Travel Policy"
	opts.Header = &Band{
		Left:          &Section{Image: "logo", ImageWidth: 80},
		Right:         &Section{Text: []string{"Travel Policy"}},
		VerticalAlign: AlignCenter,
	}
	opts.Footer = &Band{
		Center: &Section{Text: []string{"Page {currentPage} of {totalPages}"}},
	}

	result, err := r.RenderMarkdown(context.Background(), "# Travel Policy\n\nBook through the portal.\n\n- [x] Approved\n- [ ] Reviewed\n", opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(result.Data, []byte("%PDF-")) {
		t.Fatalf("expected PDF output")
	}
	if result.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", result.PageCount)
	}
	out := string(result.Data)
	if countShown(result.Data, "Page 1 of 1") != 1 {
		t.Fatalf("expected resolved footer placeholders")
	}
	if strings.Contains(out, "{currentPage}") {
		t.Fatalf("current page placeholder left in output")
	}
}

func TestRenderLongTableRepeatsHeader(t *testing.T) {
	r := newTestRenderer(t, Config{})

	var md strings.Builder
	md.WriteString("## Register\n\n| Domain | Owner |\n|---|---|\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&md, "| area-%d | owner-%d |\n", i, i)
	}

	result, err := r.RenderMarkdown(context.Background(), md.String(), DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.PageCount < 2 {
		t.Fatalf("expected the table to span pages, got %d", result.PageCount)
	}
	if got := countShown(result.Data, "Domain"); got != result.PageCount {
		t.Fatalf("expected header on each of %d pages, found %d", result.PageCount, got)
	}
	if countShown(result.Data, "owner-499") != 1 {
		t.Fatalf("expected last row in output")
	}
}

func TestGroupMovesToNextPageWhenItDoesNotFit(t *testing.T) {
	r := newTestRenderer(t, Config{})
	doc := fpdf.New("P", "pt", "A4", "")
	w := newWriter(context.Background(), doc, r, DefaultOptions())
	doc.AddPage()
	doc.SetY(w.limit() - 30)

	nodes, err := BuildLayout(`<h2>Approvals</h2><table><tr><th>Domain</th></tr><tr><td>Finance</td></tr><tr><td>Legal</td></tr></table>`)
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	w.block(nodes[0], w.bodyFrame())
	if doc.Err() {
		t.Fatalf("render: %v", doc.Error())
	}
	if doc.PageNo() != 2 {
		t.Fatalf("expected group on page 2, got page %d", doc.PageNo())
	}
}

func TestRenderImages(t *testing.T) {
	logo, err := os.ReadFile("testdata/logo.png")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	r := newTestRenderer(t, Config{})

	opts := DefaultOptions()
	var requested []string
	opts.Images = func(_ context.Context, src string) ([]byte, error) {
		requested = append(requested, src)
		if src == "images/logo.png" {
			return logo, nil
		}
		return nil, errors.New("unavailable")
	}

	result, err := r.RenderMarkdown(context.Background(), "![Logo](images/logo.png)\n\n![Diagram](images/diagram.png)\n", opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(requested) != 2 {
		t.Fatalf("expected both images requested once, got %v", requested)
	}
	if countShown(result.Data, "Diagram") == 0 {
		t.Fatalf("expected alt text placeholder for failed image")
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	r := newTestRenderer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.RenderMarkdown(ctx, "# Title", DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
