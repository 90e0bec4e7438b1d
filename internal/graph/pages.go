package graph

import (
	"context"
	"net/http"
)

// ListPages returns every modern page of a site.
func (c *Client) ListPages(ctx context.Context, siteID string) ([]SitePage, error) {
	return listAll[SitePage](ctx, c, "/sites/"+siteID+"/pages")
}

// CreatePage posts a new site page built from payload.
func (c *Client) CreatePage(ctx context.Context, siteID string, payload map[string]any) (*SitePage, error) {
	var page SitePage
	if err := c.doJSON(ctx, http.MethodPost, "/sites/"+siteID+"/pages", payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage patches an existing site page.
func (c *Client) UpdatePage(ctx context.Context, siteID, pageID string, payload map[string]any) error {
	return c.doJSON(ctx, http.MethodPatch, "/sites/"+siteID+"/pages/"+pageID+"/microsoft.graph.sitePage", payload, nil)
}

// PublishPage makes the latest page version visible.
func (c *Client) PublishPage(ctx context.Context, siteID, pageID string) error {
	return c.doJSON(ctx, http.MethodPost, "/sites/"+siteID+"/pages/"+pageID+"/microsoft.graph.sitePage/publish", nil, nil)
}
