package pdf

import (
	"strconv"
	"strings"
)

// EstimateSectionHeight approximates the height of a band column: the image
// height (24pt when unset) plus fontSize*1.3 per text line. It only drives
// vertical alignment, so it does not shape text.
func EstimateSectionHeight(section *Section) float64 {
	if section == nil {
		return 0
	}
	height := 0.0
	if section.Image != "" {
		if section.ImageHeight > 0 {
			height += section.ImageHeight
		} else {
			height += defaultImageHeight
		}
	}
	height += float64(len(section.Text)) * section.fontSize() * lineHeightFactor
	return height
}

// ColumnOffsets returns the top offset of each band column so the columns
// align against the tallest one.
func ColumnOffsets(band *Band) [3]float64 {
	var offsets [3]float64
	if band == nil {
		return offsets
	}
	sections := band.sections()
	var heights [3]float64
	tallest := 0.0
	for i, section := range sections {
		heights[i] = EstimateSectionHeight(section)
		tallest = max(tallest, heights[i])
	}
	for i := range sections {
		switch band.VerticalAlign {
		case AlignCenter:
			offsets[i] = (tallest - heights[i]) / 2
		case AlignBottom:
			offsets[i] = tallest - heights[i]
		}
	}
	return offsets
}

// ResolvePlaceholders substitutes the current page. The total page alias is
// left in place and filled in by the paginator once layout is complete.
func ResolvePlaceholders(line string, currentPage int) string {
	return strings.ReplaceAll(line, CurrentPagePlaceholder, strconv.Itoa(currentPage))
}

// drawBand renders band with its top edge at top.
func (w *writer) drawBand(band *Band, top float64) {
	if band == nil {
		return
	}
	defer func(core bool) { w.core = core }(w.core)

	pageWidth, _ := w.pdf.GetPageSize()
	insets := band.margins()
	columnWidth := (pageWidth - insets[0] - insets[1]) / 3
	offsets := ColumnOffsets(band)
	aligns := [3]string{"L", "C", "R"}

	for i, section := range band.sections() {
		if section == nil {
			continue
		}
		x := insets[0] + float64(i)*columnWidth
		y := top + offsets[i]

		if section.Image != "" {
			y += w.drawBandImage(section, x, y, columnWidth, aligns[i])
		}

		size := section.fontSize()
		step := lineHeight(size)
		w.setFont(false, false, false, size)
		w.setTextColor(section.color())
		for _, line := range section.Text {
			w.pdf.SetXY(x, y)
			w.pdf.CellFormat(columnWidth, step, w.tr(ResolvePlaceholders(line, w.pdf.PageNo())), "", 0, aligns[i], false, 0, "")
			y += step
		}
	}
}

func (w *writer) drawBandImage(section *Section, x, y, columnWidth float64, align string) float64 {
	img := w.assets[section.Image]
	if img == nil {
		return 0
	}
	width := min(section.imageWidth(), columnWidth)
	height := section.ImageHeight
	if height <= 0 {
		height = width * img.ratio()
	}
	switch align {
	case "C":
		x += (columnWidth - width) / 2
	case "R":
		x += columnWidth - width
	}
	w.image(img, x, y, width, height)
	return height
}
