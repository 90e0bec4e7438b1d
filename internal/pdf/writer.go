package pdf

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// writer holds the state of one render.
type writer struct {
	ctx    context.Context
	pdf    *fpdf.Fpdf
	opts   Options
	logger interfaces.Logger

	family string
	utf8   bool
	styles map[string]bool
	// core is true while the selected font is a core font that needs
	// cp1252 translation.
	core   bool
	coreTr func(string) string

	assets map[string]*placedImage
	images map[string]*placedImage
}

type placedImage struct {
	name   string
	width  float64
	height float64
}

func (p *placedImage) ratio() float64 {
	if p == nil || p.width <= 0 {
		return 1
	}
	return p.height / p.width
}

// frame is the horizontal band content is laid out in, plus inherited text
// overrides from enclosing blocks.
type frame struct {
	x      float64
	width  float64
	italic bool
	color  string
}

func (f frame) indent(by float64) frame {
	f.x += by
	f.width -= by
	return f
}

func newWriter(ctx context.Context, doc *fpdf.Fpdf, r *Renderer, opts Options) *writer {
	w := &writer{
		ctx:    ctx,
		pdf:    doc,
		opts:   opts,
		logger: r.logger,
		family: r.family,
		styles: map[string]bool{},
		coreTr: doc.UnicodeTranslatorFromDescriptor(""),
		assets: map[string]*placedImage{},
		images: map[string]*placedImage{},
	}

	for style, data := range r.fonts {
		doc.AddUTF8FontFromBytes(r.family, style, data)
		w.styles[style] = true
		w.utf8 = true
	}

	for name, a := range r.assets {
		w.assets[name] = w.register("asset:"+name, a.data, a.imageType)
	}

	margins := opts.Margins
	doc.SetMargins(margins[0], margins[1], margins[2])
	doc.SetAutoPageBreak(true, margins[3])
	doc.AliasNbPages(TotalPagesPlaceholder)

	if opts.Header != nil {
		doc.SetHeaderFuncMode(func() {
			w.drawBand(opts.Header, headerPadding)
		}, true)
	}
	if opts.Footer != nil {
		doc.SetFooterFunc(func() {
			_, pageHeight := doc.GetPageSize()
			w.drawBand(opts.Footer, pageHeight-margins[3]+footerPadding)
		})
	}
	return w
}

// register adds image bytes to the document. Broken images are reported as nil
// and leave the document usable.
func (w *writer) register(name string, data []byte, imageType string) *placedImage {
	info := w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if w.pdf.Err() || info == nil {
		w.logger.Warn("pdf.image.unreadable", "image", name, "error", w.pdf.Error())
		w.pdf.ClearError()
		return nil
	}
	return &placedImage{name: name, width: info.Width(), height: info.Height()}
}

func (w *writer) image(img *placedImage, x, y, width, height float64) {
	if img == nil {
		return
	}
	w.pdf.ImageOptions(img.name, x, y, width, height, false, fpdf.ImageOptions{}, 0, "")
}

func (w *writer) bodyFrame() frame {
	pageWidth, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return frame{x: left, width: pageWidth - left - right}
}

// contentHeight is the usable height of a page between the margins.
func (w *writer) contentHeight() float64 {
	_, pageHeight := w.pdf.GetPageSize()
	return pageHeight - w.opts.Margins[1] - w.opts.Margins[3]
}

func (w *writer) limit() float64 {
	_, pageHeight := w.pdf.GetPageSize()
	return pageHeight - w.opts.Margins[3]
}

func (w *writer) remaining() float64 {
	return w.limit() - w.pdf.GetY()
}

// ensure starts a new page when height does not fit on the current one.
func (w *writer) ensure(height float64) {
	if height > w.remaining() && w.pdf.GetY() > w.opts.Margins[1] {
		w.pdf.AddPage()
	}
}

func (w *writer) setFont(bold, italic, code bool, size float64) {
	w.setSpanFont(Span{Bold: bold, Italic: italic, Code: code}, size)
}

func (w *writer) setSpanFont(span Span, size float64) {
	style := ""
	if span.Bold {
		style += "B"
	}
	if span.Italic {
		style += "I"
	}

	family := w.family
	w.core = !w.utf8
	if span.Code {
		family = codeFontFamily
		size = min(size, codeFontSize)
		w.core = true
	} else if w.utf8 {
		style = w.closestStyle(style)
	}
	if span.Link != "" {
		style += "U"
	}
	w.pdf.SetFont(family, style, size)
}

// closestStyle falls back to a registered style of the brand font.
func (w *writer) closestStyle(style string) string {
	for _, candidate := range []string{style, strings.TrimSuffix(style, "I"), ""} {
		if w.styles[candidate] {
			return candidate
		}
	}
	return ""
}

func (w *writer) setTextColor(value string) {
	c := parseColor(value)
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *writer) setFillColor(value string) {
	c := parseColor(value)
	w.pdf.SetFillColor(c.r, c.g, c.b)
}

func (w *writer) setDrawColor(value string) {
	c := parseColor(value)
	w.pdf.SetDrawColor(c.r, c.g, c.b)
}

func (w *writer) tr(text string) string {
	if w.core {
		return w.coreTr(text)
	}
	return text
}
