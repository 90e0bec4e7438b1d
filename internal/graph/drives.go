package graph

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ListDrives returns every document library of a site.
func (c *Client) ListDrives(ctx context.Context, siteID string) ([]Drive, error) {
	return listAll[Drive](ctx, c, "/sites/"+siteID+"/drives")
}

// CreateDocumentLibrary creates a document library list and returns its drive.
func (c *Client) CreateDocumentLibrary(ctx context.Context, siteID, name string) (*Drive, error) {
	payload := map[string]any{
		"displayName": name,
		"list": map[string]any{
			"template": "documentLibrary",
		},
	}
	var list List
	if err := c.doJSON(ctx, http.MethodPost, "/sites/"+siteID+"/lists", payload, &list); err != nil {
		return nil, err
	}

	var drive Drive
	if err := c.doJSON(ctx, http.MethodGet, "/sites/"+siteID+"/lists/"+list.ID+"/drive", nil, &drive); err != nil {
		return nil, err
	}
	return &drive, nil
}

// GetItemByPath fetches a drive item by its path relative to the drive root.
// A missing item yields ErrNotFound.
func (c *Client) GetItemByPath(ctx context.Context, siteID, driveID, itemPath string) (*DriveItem, error) {
	var item DriveItem
	endpoint := "/sites/" + siteID + "/drives/" + driveID + "/root:/" + escapePath(itemPath)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFolder creates a folder under the drive root. Graph answers 409 when
// the folder already exists; callers decide whether that is fine.
func (c *Client) CreateFolder(ctx context.Context, driveID, name string) (*DriveItem, error) {
	payload := map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	}
	var item DriveItem
	if err := c.doJSON(ctx, http.MethodPost, "/drives/"+driveID+"/root/children", payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UploadContent writes data to itemPath, replacing any existing file. Simple
// upload is limited to 250 MB by Graph which covers policy documents and images.
func (c *Client) UploadContent(ctx context.Context, siteID, driveID, itemPath string, data []byte, contentType string) (*DriveItem, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var item DriveItem
	err := c.do(ctx, request{
		method:      http.MethodPut,
		endpoint:    "/sites/" + siteID + "/drives/" + driveID + "/root:/" + escapePath(itemPath) + ":/content",
		body:        bytes.NewReader(data),
		contentType: contentType,
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func escapePath(itemPath string) string {
	segments := strings.Split(strings.Trim(itemPath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func listAll[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	var out []T
	next := endpoint
	for pages := 0; next != ""; pages++ {
		if pages > 100 {
			return nil, fmt.Errorf("graph: too many pages listing %s", endpoint)
		}
		var page collection[T]
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		next = page.NextLink
	}
	return out, nil
}
