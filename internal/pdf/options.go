package pdf

import (
	"context"
	"strings"
)

// VerticalAlign positions band columns relative to the tallest column.
type VerticalAlign string

const (
	AlignTop    VerticalAlign = "top"
	AlignCenter VerticalAlign = "center"
	AlignBottom VerticalAlign = "bottom"
)

// Placeholders resolved per page inside band text.
const (
	CurrentPagePlaceholder = "{currentPage}"
	TotalPagesPlaceholder  = "{totalPages}"
)

const (
	defaultFontSize        = 11.0
	lineHeightFactor       = 1.3
	defaultSectionFontSize = 8.0
	defaultSectionColor    = "#1B1F1B"
	defaultImageWidth      = 110.0
	defaultImageHeight     = 24.0
	headerPadding          = 30.0
	footerPadding          = 15.0
)

// Section is one column of a header or footer band. An image is drawn above
// the text lines when both are set.
type Section struct {
	Text []string `yaml:"text" json:"text,omitempty"`
	// Image names an asset registered on the Renderer.
	Image       string  `yaml:"image" json:"image,omitempty"`
	ImageWidth  float64 `yaml:"image_width" json:"image_width,omitempty"`
	ImageHeight float64 `yaml:"image_height" json:"image_height,omitempty"`
	FontSize    float64 `yaml:"font_size" json:"font_size,omitempty"`
	Color       string  `yaml:"color" json:"color,omitempty"`
}

// Band is a header or footer with left, center and right columns.
type Band struct {
	Left   *Section `yaml:"left" json:"left,omitempty"`
	Center *Section `yaml:"center" json:"center,omitempty"`
	Right  *Section `yaml:"right" json:"right,omitempty"`
	// Margins are the left and right band insets in points.
	Margins       [2]float64    `yaml:"margins" json:"margins"`
	VerticalAlign VerticalAlign `yaml:"vertical_align" json:"vertical_align,omitempty"`
}

// ImageLoader returns the bytes of an image referenced from document content.
type ImageLoader func(ctx context.Context, src string) ([]byte, error)

// Options controls page geometry and bands for one render.
type Options struct {
	Title       string
	Author      string
	PageSize    string
	Orientation string
	// Margins are left, top, right, bottom in points.
	Margins [4]float64
	Header  *Band
	Footer  *Band
	// Images loads content images. Without it images render as their alt text.
	Images ImageLoader
}

// DefaultOptions returns A4 portrait with the brand template margins.
func DefaultOptions() Options {
	return Options{
		PageSize:    "A4",
		Orientation: "portrait",
		Margins:     [4]float64{72, 99, 57, 72},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if strings.TrimSpace(o.PageSize) == "" {
		o.PageSize = def.PageSize
	}
	if strings.TrimSpace(o.Orientation) == "" {
		o.Orientation = def.Orientation
	}
	if o.Margins == ([4]float64{}) {
		o.Margins = def.Margins
	}
	return o
}

func (o Options) orientationCode() string {
	if strings.EqualFold(o.Orientation, "landscape") {
		return "L"
	}
	return "P"
}

func (o Options) sizeName() string {
	switch strings.ToUpper(strings.TrimSpace(o.PageSize)) {
	case "LETTER":
		return "Letter"
	case "LEGAL":
		return "Legal"
	default:
		return "A4"
	}
}

func (b *Band) sections() [3]*Section {
	if b == nil {
		return [3]*Section{}
	}
	return [3]*Section{b.Left, b.Center, b.Right}
}

func (b *Band) margins() [2]float64 {
	if b == nil || b.Margins == ([2]float64{}) {
		return [2]float64{42, 42}
	}
	return b.Margins
}

func (s *Section) fontSize() float64 {
	if s == nil || s.FontSize <= 0 {
		return defaultSectionFontSize
	}
	return s.FontSize
}

func (s *Section) color() string {
	if s == nil || strings.TrimSpace(s.Color) == "" {
		return defaultSectionColor
	}
	return s.Color
}

func (s *Section) imageWidth() float64 {
	if s == nil || s.ImageWidth <= 0 {
		return defaultImageWidth
	}
	return s.ImageWidth
}
