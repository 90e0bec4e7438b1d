package images

import (
	"context"
	"errors"
	"mime"
	"path"

	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/library"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ImagesFolder is the subfolder of a library target that holds uploaded images.
const ImagesFolder = "Images"

// Action reports what UploadWithDedup did.
type Action string

const (
	// ActionExisting means an object with the same content hash was reused.
	ActionExisting Action = "existing"
	// ActionUploaded means the bytes were written for the first time.
	ActionUploaded Action = "uploaded"
	// ActionMissing means the fetcher had no bytes for the reference.
	ActionMissing Action = "missing"
	// ActionFailed means fetching or uploading failed and the reference was kept.
	ActionFailed Action = "failed"
)

// UploadResult describes a stored image.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Action   Action `json:"action"`
}

// DriveClient is the slice of the Graph API used to store images.
type DriveClient interface {
	GetItemByPath(ctx context.Context, siteID, driveID, itemPath string) (*graph.DriveItem, error)
	UploadContent(ctx context.Context, siteID, driveID, itemPath string, data []byte, contentType string) (*graph.DriveItem, error)
}

// Uploader stores images under their content hash so identical bytes are
// written once per library.
type Uploader struct {
	client DriveClient
	logger interfaces.Logger
}

// NewUploader builds an uploader over client.
func NewUploader(client DriveClient, logger interfaces.Logger) *Uploader {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Uploader{client: client, logger: logger}
}

// FolderPath returns the images folder for target.
func FolderPath(target library.Target) string {
	return target.Join(ImagesFolder)
}

// UploadWithDedup stores data as `{hash}.{ext}` in the Images folder of
// target unless an object with that name already exists.
func (u *Uploader) UploadWithDedup(ctx context.Context, siteID string, data []byte, ext string, target library.Target) (UploadResult, error) {
	name := FileName(ContentHash(data), ext)
	itemPath := path.Join(FolderPath(target), name)

	existing, err := u.client.GetItemByPath(ctx, siteID, target.DriveID, itemPath)
	switch {
	case err == nil && existing != nil:
		u.logger.Debug("images.dedup.hit", "file", name, "url", existing.WebURL)
		return UploadResult{URL: existing.WebURL, FileName: name, Action: ActionExisting}, nil
	case err != nil && !errors.Is(err, graph.ErrNotFound):
		return UploadResult{}, err
	}

	uploaded, err := u.client.UploadContent(ctx, siteID, target.DriveID, itemPath, data, contentType(ext))
	if err != nil {
		return UploadResult{}, err
	}
	u.logger.Info("images.uploaded", "file", name, "bytes", len(data), "url", uploaded.WebURL)
	return UploadResult{URL: uploaded.WebURL, FileName: name, Action: ActionUploaded}, nil
}

func contentType(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if value := mime.TypeByExtension("." + ext); value != "" {
		return value
	}
	return "application/octet-stream"
}
