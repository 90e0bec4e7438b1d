package sitepages

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-slug"
)

const (
	sitePageType = "#microsoft.graph.sitePage"
	textPartType = "#microsoft.graph.textWebPart"
	pageLayout   = "article"
	pageSuffix   = ".aspx"
)

var (
	pageNameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-_ ]`)
	pageNameSpaces     = regexp.MustCompile(`\s+`)
)

// TitleArea styles the banner above the page body.
type TitleArea struct {
	EnableGradientEffect bool   `json:"enableGradientEffect"`
	Layout               string `json:"layout"`
	ShowAuthor           bool   `json:"showAuthor"`
	ShowPublishedDate    bool   `json:"showPublishedDate"`
	TextAlignment        string `json:"textAlignment"`
}

// DefaultTitleArea is a plain, left aligned banner showing the publish date.
func DefaultTitleArea() TitleArea {
	return TitleArea{
		Layout:            "plain",
		ShowPublishedDate: true,
		TextAlignment:     "left",
	}
}

// PageName derives the immutable file name of a new page from its title.
// Titles with no ASCII letters fall back to their slug.
func PageName(title string) string {
	name := pageNameDisallowed.ReplaceAllString(title, "")
	name = pageNameSpaces.ReplaceAllString(strings.TrimSpace(name), "-")
	if name == "" {
		if normalized, err := slug.Normalize(title); err == nil {
			name = normalized
		}
	}
	if name == "" {
		name = "page"
	}
	return name + pageSuffix
}

// BuildCreatePayload returns the body for creating a page. It carries the
// page name and layout, which cannot be changed later.
func BuildCreatePayload(title, html string, area TitleArea) map[string]any {
	payload := basePayload(title, html, area)
	payload["pageLayout"] = pageLayout
	payload["name"] = PageName(title)
	return payload
}

// BuildUpdatePayload returns the body for patching a page. Name and layout
// are left out.
func BuildUpdatePayload(title, html string, area TitleArea) map[string]any {
	return basePayload(title, html, area)
}

func basePayload(title, html string, area TitleArea) map[string]any {
	return map[string]any{
		"@odata.type":          sitePageType,
		"title":                title,
		"showComments":         true,
		"showRecommendedPages": false,
		"titleArea": map[string]any{
			"enableGradientEffect": area.EnableGradientEffect,
			"layout":               area.Layout,
			"showAuthor":           area.ShowAuthor,
			"showPublishedDate":    area.ShowPublishedDate,
			"textAlignment":        area.TextAlignment,
			"title":                title,
		},
		"canvasLayout": map[string]any{
			"horizontalSections": []any{
				map[string]any{
					"layout":   "oneColumn",
					"id":       "1",
					"emphasis": "none",
					"columns": []any{
						map[string]any{
							"id":    "1",
							"width": 12,
							"webparts": []any{
								map[string]any{
									"@odata.type": textPartType,
									"innerHtml":   html,
								},
							},
						},
					},
				},
			},
		},
	}
}

// PageURL builds the public address of a page from its file name.
func PageURL(siteURL, name string) string {
	base := strings.TrimRight(strings.TrimSpace(siteURL), "/")
	return base + "/SitePages/" + strings.TrimSuffix(name, pageSuffix) + pageSuffix
}
