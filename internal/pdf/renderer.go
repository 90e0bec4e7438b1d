package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/markdown"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

var (
	// ErrMissingAsset is returned when a configured font or image file cannot be read.
	ErrMissingAsset = errors.New("pdf: missing asset")
	// ErrUnsupportedImage is returned for image bytes that are not PNG, JPEG or GIF.
	ErrUnsupportedImage = errors.New("pdf: unsupported image format")
)

const coreFontFamily = "Helvetica"

// Config names the brand resources a Renderer embeds into every document.
type Config struct {
	// FontFamily is the family name registered for FontFiles. Empty selects
	// the core Helvetica font.
	FontFamily string `yaml:"font_family" json:"font_family,omitempty"`
	// FontFiles maps a style ("", "B", "I", "BI") to a TrueType file.
	FontFiles map[string]string `yaml:"font_files" json:"font_files,omitempty"`
	// Assets maps a name referenced by band sections to an image file.
	Assets map[string]string `yaml:"assets" json:"assets,omitempty"`
}

// Result is a rendered document.
type Result struct {
	Data      []byte
	PageCount int
}

// Renderer is the third pipeline stage. It paginates layout nodes into a PDF.
// A Renderer is safe for concurrent use; each Render builds its own document.
type Renderer struct {
	family   string
	fonts    map[string][]byte
	assets   map[string]asset
	logger   interfaces.Logger
	compress bool
}

type asset struct {
	data      []byte
	imageType string
}

// RendererOption customises a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer loads every configured font and asset up front and fails when
// one is unreadable.
func NewRenderer(cfg Config, opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		family:   coreFontFamily,
		fonts:    map[string][]byte{},
		assets:   map[string]asset{},
		logger:   logging.NoOp(),
		compress: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if family := strings.TrimSpace(cfg.FontFamily); family != "" && len(cfg.FontFiles) > 0 {
		if _, ok := cfg.FontFiles[""]; !ok {
			return nil, fmt.Errorf("%w: font family %q has no regular style", ErrMissingAsset, family)
		}
		for style, path := range cfg.FontFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: font %s: %v", ErrMissingAsset, path, err)
			}
			r.fonts[strings.ToUpper(style)] = data
		}
		r.family = family
	}

	for name, path := range cfg.Assets {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: asset %s: %v", ErrMissingAsset, name, err)
		}
		imageType, err := detectImageType(data, path)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", name, err)
		}
		r.assets[name] = asset{data: data, imageType: imageType}
	}
	return r, nil
}

// RenderMarkdown runs all three stages over markdown.
func (r *Renderer) RenderMarkdown(ctx context.Context, source string, opts Options) (*Result, error) {
	html, err := markdown.ToHTML(source)
	if err != nil {
		return nil, fmt.Errorf("pdf: markdown: %w", err)
	}
	nodes, err := BuildLayout(html)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, nodes, opts)
}

// Render paginates nodes. The context is checked between top level nodes.
func (r *Renderer) Render(ctx context.Context, nodes []*Node, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	doc := fpdf.New(opts.orientationCode(), "pt", opts.sizeName(), "")
	doc.SetCompression(r.compress)
	doc.SetCreator("docbot", true)
	if opts.Title != "" {
		doc.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		doc.SetAuthor(opts.Author, true)
	}

	w := newWriter(ctx, doc, r, opts)
	doc.AddPage()
	if doc.Err() {
		return nil, fmt.Errorf("pdf: setup: %w", doc.Error())
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.block(node, w.bodyFrame())
		if doc.Err() {
			return nil, fmt.Errorf("pdf: render %s: %w", node.Kind, doc.Error())
		}
	}

	pages := doc.PageCount()
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: output: %w", err)
	}
	r.logger.Debug("pdf.render.completed", "pages", pages, "bytes", buf.Len(), "title", opts.Title)
	return &Result{Data: buf.Bytes(), PageCount: pages}, nil
}

func detectImageType(data []byte, name string) (string, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "PNG", nil
	case ".jpg", ".jpeg":
		return "JPG", nil
	case ".gif":
		return "GIF", nil
	}
	return "", ErrUnsupportedImage
}
