package pdf

import (
	"strconv"
	"strings"
)

const (
	textColor       = "#1b1f1b"
	linkColor       = "#3C69E6"
	quoteColor      = "#c7d1cf"
	codeBackground  = "#e3e8e7"
	ruleColor       = "#c7d1cf"
	codeFontFamily  = "Courier"
	codeFontSize    = 9.0
	quoteIndent     = 20.0
	listIndent      = 14.0
	imageSpacing    = 8.0
	paragraphMargin = 8.0
	listMargin      = 4.0
	listItemMargin  = 2.0
)

// blockStyle describes the font and spacing of a block element.
type blockStyle struct {
	size         float64
	bold         bool
	italic       bool
	color        string
	marginTop    float64
	marginBottom float64
}

var headingStyles = map[int]blockStyle{
	1: {size: 16, bold: true, color: "#253E34", marginBottom: 10},
	2: {size: 12, bold: true, color: "#50645c", marginTop: 6, marginBottom: 8},
	3: {size: 10, bold: true, color: textColor, marginTop: 4, marginBottom: 6},
	4: {size: 10, bold: true, color: textColor, marginTop: 2, marginBottom: 4},
	5: {size: 9, bold: true, color: textColor, marginTop: 2, marginBottom: 4},
	6: {size: 8, bold: true, color: textColor, marginTop: 2, marginBottom: 4},
}

func headingStyle(level int) blockStyle {
	if style, ok := headingStyles[level]; ok {
		return style
	}
	return headingStyles[6]
}

var paragraphStyle = blockStyle{size: defaultFontSize, color: textColor, marginBottom: paragraphMargin}

// Table layout.
const (
	tableOuterLine   = 0.8
	tableInnerLine   = 0.5
	tableLineColor   = "#c7d1cf"
	tableHeaderFill  = "#dde3e2"
	tablePaddingX    = 6.0
	tablePaddingY    = 4.0
	tableMarginTop   = 4.0
	tableMarginBelow = 4.0
)

type rgb struct{ r, g, b int }

// parseColor reads #rgb and #rrggbb values. Anything else is black.
func parseColor(value string) rgb {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}
	}
	return rgb{r: int(n >> 16 & 0xff), g: int(n >> 8 & 0xff), b: int(n & 0xff)}
}

func lineHeight(size float64) float64 {
	return size * lineHeightFactor
}
