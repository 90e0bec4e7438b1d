package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SiteEndpoint builds the `/sites/{host}:{path}` lookup endpoint for a
// human-entered site URL such as https://contoso.sharepoint.com/sites/Policies.
func SiteEndpoint(siteURL string) (string, error) {
	raw := strings.TrimSpace(siteURL)
	if raw == "" {
		return "", ErrInvalidSiteURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSiteURL, siteURL)
	}

	path := strings.TrimRight(parsed.EscapedPath(), "/")
	if path == "" {
		return "/sites/" + parsed.Host, nil
	}
	return "/sites/" + parsed.Host + ":" + path, nil
}

// ResolveSiteID resolves a site URL into its Graph site id.
func (c *Client) ResolveSiteID(ctx context.Context, siteURL string) (string, error) {
	endpoint, err := SiteEndpoint(siteURL)
	if err != nil {
		return "", err
	}
	var site Site
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &site); err != nil {
		return "", err
	}
	if site.ID == "" {
		return "", fmt.Errorf("graph: site %q resolved without id", siteURL)
	}
	return site.ID, nil
}
