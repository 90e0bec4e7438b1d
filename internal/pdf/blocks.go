package pdf

import (
	"strconv"
	"strings"
)

const bullet = "•"

func (w *writer) block(node *Node, f frame) {
	if node == nil {
		return
	}
	switch node.Kind {
	case KindGroup:
		w.group(node, f)
	case KindHeading:
		w.heading(node, f)
	case KindParagraph:
		w.paragraph(node.Spans, paragraphStyle, f)
	case KindList:
		w.list(node, f)
	case KindTable:
		w.table(node.Table, f)
	case KindImage:
		w.contentImage(node.Image, f)
	case KindCode:
		w.code(node.Text, f)
	case KindQuote:
		inner := f.indent(quoteIndent)
		inner.italic = true
		inner.color = quoteColor
		for _, child := range node.Children {
			w.block(child, inner)
		}
	case KindRule:
		w.rule(f)
	}
}

// group keeps an unbreakable group on one page when it fits on a page at all.
func (w *writer) group(node *Node, f frame) {
	if node.Unbreakable {
		height := w.measure(node, f)
		if height <= w.contentHeight() {
			w.ensure(height)
		}
	}
	for _, child := range node.Children {
		w.block(child, f)
	}
}

// measure estimates the vertical space node occupies inside f.
func (w *writer) measure(node *Node, f frame) float64 {
	switch node.Kind {
	case KindGroup:
		total := 0.0
		for _, child := range node.Children {
			total += w.measure(child, f)
		}
		return total
	case KindHeading:
		style := headingStyle(node.Level)
		return style.marginTop + w.textHeight(node.Spans, style, f) + style.marginBottom
	case KindParagraph:
		return w.textHeight(node.Spans, paragraphStyle, f) + paragraphStyle.marginBottom
	case KindList:
		return w.measureList(node, f)
	case KindTable:
		if node.Table == nil {
			return 0
		}
		widths := w.columnWidths(node.Table, f.width)
		total := tableMarginTop + tableMarginBelow
		for _, row := range node.Table.Rows {
			total += w.rowHeight(row, widths)
		}
		return total
	case KindImage:
		_, height := w.imageBox(node.Image, f)
		return height + 2*imageSpacing
	case KindCode:
		return float64(len(w.codeLines(node.Text, f)))*lineHeight(codeFontSize) + 2*tablePaddingY + 2*paragraphMargin
	case KindQuote:
		inner := f.indent(quoteIndent)
		total := 0.0
		for _, child := range node.Children {
			total += w.measure(child, inner)
		}
		return total
	case KindRule:
		return 2 * paragraphMargin
	}
	return 0
}

func (w *writer) heading(node *Node, f frame) {
	style := headingStyle(node.Level)
	// A heading outside a group still needs room for one body line below it.
	w.ensure(style.marginTop + lineHeight(style.size) + style.marginBottom + lineHeight(defaultFontSize))
	w.paragraph(node.Spans, style, f)
}

// paragraph writes flowing text with inline style changes. fpdf breaks pages
// inside the text when it runs past the bottom margin.
func (w *writer) paragraph(spans []Span, style blockStyle, f frame) {
	if len(spans) == 0 {
		return
	}
	if style.marginTop > 0 && w.pdf.GetY() > w.opts.Margins[1] {
		w.pdf.Ln(style.marginTop)
	}

	restore := w.enterFrame(f)
	defer restore()

	height := lineHeight(style.size)
	w.pdf.SetX(f.x)
	for _, span := range spans {
		w.applySpan(span, style, f)
		text := w.tr(span.Text)
		if span.Link != "" && !span.Code {
			w.pdf.WriteLinkString(height, text, span.Link)
			continue
		}
		w.pdf.Write(height, text)
	}
	w.pdf.Ln(height)
	w.pdf.Ln(style.marginBottom)
}

func (w *writer) applySpan(span Span, style blockStyle, f frame) {
	span.Bold = span.Bold || style.bold
	span.Italic = span.Italic || style.italic || f.italic
	w.setSpanFont(span, style.size)

	color := style.color
	if f.color != "" {
		color = f.color
	}
	if span.Link != "" {
		color = linkColor
	}
	w.setTextColor(color)
}

// enterFrame narrows the fpdf margins to f so Write wraps inside it.
func (w *writer) enterFrame(f frame) func() {
	left, top, right, _ := w.pdf.GetMargins()
	pageWidth, _ := w.pdf.GetPageSize()
	w.pdf.SetLeftMargin(f.x)
	w.pdf.SetRightMargin(pageWidth - f.x - f.width)
	return func() {
		w.pdf.SetMargins(left, top, right)
	}
}

// textHeight counts wrapped lines the way Write breaks them.
func (w *writer) textHeight(spans []Span, style blockStyle, f frame) float64 {
	if len(spans) == 0 {
		return 0
	}
	defer func(core bool) { w.core = core }(w.core)

	lines := 1
	x := 0.0
	for _, span := range spans {
		w.applySpan(span, style, f)
		for i, part := range strings.Split(span.Text, "\n") {
			if i > 0 {
				lines++
				x = 0
			}
			for _, word := range strings.SplitAfter(part, " ") {
				if word == "" {
					continue
				}
				width := w.pdf.GetStringWidth(w.tr(word))
				if x > 0 && x+w.pdf.GetStringWidth(w.tr(strings.TrimRight(word, " "))) > f.width {
					lines++
					x = 0
				}
				x += width
			}
		}
	}
	return float64(lines) * lineHeight(style.size)
}

func (w *writer) measureList(node *Node, f frame) float64 {
	inner := f.indent(listIndent)
	itemStyle := blockStyle{size: defaultFontSize, color: textColor}
	total := 0.0
	if !node.Nested {
		total += listMargin
	}
	for _, item := range node.Children {
		total += w.textHeight(item.Spans, itemStyle, inner) + listItemMargin
		for _, child := range item.Children {
			total += w.measure(child, inner)
		}
	}
	return total
}

func (w *writer) list(node *Node, f frame) {
	inner := f.indent(listIndent)
	itemStyle := blockStyle{size: defaultFontSize, color: textColor, marginBottom: listItemMargin}
	height := lineHeight(itemStyle.size)

	for i, item := range node.Children {
		marker := bullet
		if node.Ordered {
			marker = strconv.Itoa(node.Start+i) + "."
		}
		w.ensure(height)

		y := w.pdf.GetY()
		w.applySpan(Span{}, itemStyle, f)
		w.pdf.SetXY(f.x, y)
		w.pdf.CellFormat(listIndent, height, w.tr(marker), "", 0, "L", false, 0, "")
		w.pdf.SetXY(inner.x, y)

		if len(item.Spans) > 0 {
			w.paragraph(item.Spans, itemStyle, inner)
		} else {
			w.pdf.Ln(height)
		}
		for _, child := range item.Children {
			w.block(child, inner)
		}
	}
	if !node.Nested {
		w.pdf.Ln(listMargin)
	}
}

func (w *writer) code(text string, f frame) {
	lines := w.codeLines(text, f)
	height := lineHeight(codeFontSize)

	w.pdf.Ln(paragraphMargin)
	w.setSpanFont(Span{Code: true}, codeFontSize)
	w.setTextColor(textColor)
	w.setFillColor(codeBackground)

	w.ensure(height + tablePaddingY)
	w.pdf.SetX(f.x)
	w.pdf.CellFormat(f.width, tablePaddingY, "", "", 1, "L", true, 0, "")
	for _, line := range lines {
		w.ensure(height)
		w.pdf.SetX(f.x)
		w.pdf.CellFormat(f.width, height, w.tr(" "+line), "", 1, "L", true, 0, "")
	}
	w.pdf.SetX(f.x)
	w.pdf.CellFormat(f.width, tablePaddingY, "", "", 1, "L", true, 0, "")
	w.pdf.Ln(paragraphMargin)
}

// codeLines keeps source line breaks and wraps lines wider than f.
func (w *writer) codeLines(text string, f frame) []string {
	defer func(core bool) { w.core = core }(w.core)
	w.setSpanFont(Span{Code: true}, codeFontSize)

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, "\t", "    ")
		if line == "" {
			out = append(out, "")
			continue
		}
		out = append(out, w.pdf.SplitText(w.tr(line), f.width-2*tablePaddingX)...)
	}
	return out
}

func (w *writer) rule(f frame) {
	w.pdf.Ln(paragraphMargin)
	y := w.pdf.GetY()
	w.setDrawColor(ruleColor)
	w.pdf.SetLineWidth(tableInnerLine)
	w.pdf.Line(f.x, y, f.x+f.width, y)
	w.pdf.Ln(paragraphMargin)
}

func (w *writer) loadImage(img *Image) *placedImage {
	if img == nil || img.Src == "" {
		return nil
	}
	if placed, ok := w.images[img.Src]; ok {
		return placed
	}
	var placed *placedImage
	if w.opts.Images != nil {
		data, err := w.opts.Images(w.ctx, img.Src)
		switch {
		case err != nil:
			w.logger.Warn("pdf.image.load_failed", "src", img.Src, "error", err)
		case len(data) == 0:
			w.logger.Warn("pdf.image.not_found", "src", img.Src)
		default:
			if imageType, typeErr := detectImageType(data, img.Src); typeErr == nil {
				placed = w.register("content:"+img.Src, data, imageType)
			} else {
				w.logger.Warn("pdf.image.unsupported", "src", img.Src)
			}
		}
	}
	w.images[img.Src] = placed
	return placed
}

// imageBox sizes an image to fit the frame and a page. Unloadable images
// report the height of their alt text line.
func (w *writer) imageBox(img *Image, f frame) (float64, float64) {
	placed := w.loadImage(img)
	if placed == nil {
		return f.width, lineHeight(defaultFontSize)
	}
	width := placed.width
	if img.Width > 0 {
		width = img.Width
	}
	width = min(width, f.width)
	height := width * placed.ratio()
	if img.Height > 0 && img.Width <= 0 {
		height = img.Height
		width = min(height/placed.ratio(), f.width)
	}
	if limit := w.contentHeight() - 2*imageSpacing; height > limit {
		width = width * limit / height
		height = limit
	}
	return width, height
}

func (w *writer) contentImage(img *Image, f frame) {
	if img == nil {
		return
	}
	width, height := w.imageBox(img, f)
	placed := w.images[img.Src]
	if placed == nil {
		alt := img.Alt
		if alt == "" {
			alt = img.Src
		}
		w.paragraph([]Span{{Text: alt, Italic: true}}, paragraphStyle, f)
		return
	}

	w.ensure(height + 2*imageSpacing)
	w.pdf.Ln(imageSpacing)
	x := f.x + (f.width-width)/2
	w.image(placed, x, w.pdf.GetY(), width, height)
	w.pdf.SetY(w.pdf.GetY() + height)
	w.pdf.Ln(imageSpacing)
}
