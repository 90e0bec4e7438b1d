package pdf

import "strings"

const minColumnWidth = 30.0

// table draws rows without splitting any of them. When a row does not fit it
// moves to the next page and the header rows are drawn again above it.
func (w *writer) table(t *Table, f frame) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	widths := w.columnWidths(t, f.width)
	headerRows := min(t.HeaderRows, len(t.Rows))

	w.pdf.SetAutoPageBreak(false, w.opts.Margins[3])
	defer w.pdf.SetAutoPageBreak(true, w.opts.Margins[3])

	w.pdf.Ln(tableMarginTop)
	last := len(t.Rows) - 1
	for i, row := range t.Rows {
		height := w.rowHeight(row, widths)
		firstOnPage := false
		if w.pdf.GetY()+height > w.limit() && w.pdf.GetY() > w.opts.Margins[1] {
			w.pdf.AddPage()
			firstOnPage = true
			if i >= headerRows {
				for h := 0; h < headerRows; h++ {
					w.row(t.Rows[h], widths, f, true, false)
				}
				firstOnPage = headerRows == 0
			}
		}
		w.row(row, widths, f, i == 0 || firstOnPage, i == last)
	}
	w.pdf.Ln(tableMarginBelow)
}

func (w *writer) row(cells []Cell, widths []float64, f frame, topEdge, bottomEdge bool) {
	height := w.rowHeight(cells, widths)
	top := w.pdf.GetY()
	x := f.x

	for i, width := range widths {
		var cell Cell
		if i < len(cells) {
			cell = cells[i]
		}
		if cell.Header {
			w.setFillColor(tableHeaderFill)
			w.pdf.Rect(x, top, width, height, "F")
		}

		style := paragraphStyle
		w.applySpan(Span{Bold: cell.Header || allBold(cell.Spans)}, style, frame{})
		lines := w.cellLines(cell, width)
		align := cellAlignCode(cell.Align)
		y := top + tablePaddingY
		for _, line := range lines {
			w.pdf.SetXY(x+tablePaddingX, y)
			w.pdf.CellFormat(width-2*tablePaddingX, lineHeight(style.size), line, "", 0, align, false, 0, "")
			y += lineHeight(style.size)
		}
		x += width
	}

	w.setDrawColor(tableLineColor)
	right := f.x + sum(widths)
	w.pdf.SetLineWidth(edgeWidth(topEdge))
	w.pdf.Line(f.x, top, right, top)
	w.pdf.SetLineWidth(edgeWidth(bottomEdge))
	w.pdf.Line(f.x, top+height, right, top+height)
	w.pdf.SetLineWidth(tableInnerLine)
	x = f.x
	w.pdf.Line(x, top, x, top+height)
	for _, width := range widths {
		x += width
		w.pdf.Line(x, top, x, top+height)
	}

	w.pdf.SetXY(f.x, top+height)
}

func edgeWidth(outer bool) float64 {
	if outer {
		return tableOuterLine
	}
	return tableInnerLine
}

func (w *writer) rowHeight(cells []Cell, widths []float64) float64 {
	lines := 1
	for i, width := range widths {
		if i >= len(cells) {
			break
		}
		w.applySpan(Span{Bold: cells[i].Header || allBold(cells[i].Spans)}, paragraphStyle, frame{})
		lines = max(lines, len(w.cellLines(cells[i], width)))
	}
	return float64(lines)*lineHeight(paragraphStyle.size) + 2*tablePaddingY
}

// cellLines wraps the cell text with the current font. Hard breaks are kept.
func (w *writer) cellLines(cell Cell, width float64) []string {
	text := PlainText(cell.Spans)
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, "\n") {
		out = append(out, w.pdf.SplitText(w.tr(part), width-2*tablePaddingX)...)
	}
	return out
}

// columnWidths shares width between columns in proportion to the widest
// single-line content of each column.
func (w *writer) columnWidths(t *Table, width float64) []float64 {
	columns := 0
	for _, row := range t.Rows {
		columns = max(columns, len(row))
	}
	if columns == 0 {
		return nil
	}

	natural := make([]float64, columns)
	for _, row := range t.Rows {
		for i, cell := range row {
			w.applySpan(Span{Bold: cell.Header}, paragraphStyle, frame{})
			natural[i] = max(natural[i], w.pdf.GetStringWidth(w.tr(PlainText(cell.Spans)))+2*tablePaddingX)
		}
	}
	for i := range natural {
		natural[i] = max(natural[i], minColumnWidth)
	}

	total := sum(natural)
	widths := make([]float64, columns)
	for i := range natural {
		widths[i] = width * natural[i] / total
	}
	return widths
}

func allBold(spans []Span) bool {
	if len(spans) == 0 {
		return false
	}
	for _, span := range spans {
		if !span.Bold {
			return false
		}
	}
	return true
}

func cellAlignCode(align string) string {
	switch align {
	case "center":
		return "C"
	case "right":
		return "R"
	default:
		return "L"
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
