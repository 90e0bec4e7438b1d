package library

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// DefaultLibraryName is the library used when no name is configured and the
// fallback host for folder targets.
const DefaultLibraryName = "Documents"

var nameSeparators = regexp.MustCompile(`[\s_-]`)

// Target locates where files are written: a drive and, for the folder
// fallback, a folder path inside it.
type Target struct {
	DriveID    string `json:"drive_id"`
	FolderPath string `json:"folder_path,omitempty"`
}

// IsZero reports whether the target is unresolved.
func (t Target) IsZero() bool {
	return t.DriveID == ""
}

// Join prefixes name with the target folder, if any.
func (t Target) Join(name string) string {
	folder := strings.Trim(t.FolderPath, "/")
	if folder == "" {
		return strings.TrimLeft(name, "/")
	}
	return folder + "/" + strings.TrimLeft(name, "/")
}

// Client is the slice of the Graph API the resolver needs.
type Client interface {
	ListDrives(ctx context.Context, siteID string) ([]graph.Drive, error)
	CreateDocumentLibrary(ctx context.Context, siteID, name string) (*graph.Drive, error)
	GetItemByPath(ctx context.Context, siteID, driveID, itemPath string) (*graph.DriveItem, error)
	CreateFolder(ctx context.Context, driveID, name string) (*graph.DriveItem, error)
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver finds or creates document libraries. Results are not memoised;
// every call re-resolves against the site.
type Resolver struct {
	client Client
	logger interfaces.Logger
}

// NewResolver builds a resolver over client.
func NewResolver(client Client, opts ...Option) *Resolver {
	r := &Resolver{
		client: client,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// NormalizeName lowercases name and drops whitespace, underscores and dashes
// so "Policy Docs" and "policy-docs" compare equal.
func NormalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// EnsureLibrary returns the drive backing the library called name, creating
// it when missing. When creation is refused the library degrades to a folder
// of the same name inside the default library.
func (r *Resolver) EnsureLibrary(ctx context.Context, siteID, name string) (Target, error) {
	drives, err := r.client.ListDrives(ctx, siteID)
	if err != nil {
		return Target{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		drive, err := defaultDrive(drives)
		if err != nil {
			return Target{}, err
		}
		return Target{DriveID: drive.ID}, nil
	}

	wanted := NormalizeName(name)
	for _, drive := range drives {
		if NormalizeName(drive.Name) == wanted {
			r.logger.Debug("library.resolved", "site_id", siteID, "library", name, "drive_id", drive.ID)
			return Target{DriveID: drive.ID}, nil
		}
	}

	created, err := r.client.CreateDocumentLibrary(ctx, siteID, name)
	if err == nil && created != nil && created.ID != "" {
		r.logger.Info("library.created", "site_id", siteID, "library", name, "drive_id", created.ID)
		return Target{DriveID: created.ID}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Target{}, ctxErr
	}
	r.logger.Warn("library.create_failed", "site_id", siteID, "library", name, "error", err)

	return r.ensureFolder(ctx, siteID, name, drives)
}

func (r *Resolver) ensureFolder(ctx context.Context, siteID, name string, drives []graph.Drive) (Target, error) {
	drive, err := defaultDrive(drives)
	if err != nil {
		return Target{}, err
	}
	target := Target{DriveID: drive.ID, FolderPath: name}

	_, err = r.client.GetItemByPath(ctx, siteID, drive.ID, name)
	switch {
	case err == nil:
		r.logger.Debug("library.folder_resolved", "site_id", siteID, "folder", name, "drive_id", drive.ID)
		return target, nil
	case !errors.Is(err, graph.ErrNotFound):
		return Target{}, err
	}

	if _, err := r.client.CreateFolder(ctx, drive.ID, name); err != nil && !graph.IsConflict(err) {
		return Target{}, err
	}
	r.logger.Info("library.folder_created", "site_id", siteID, "folder", name, "drive_id", drive.ID)
	return target, nil
}

func defaultDrive(drives []graph.Drive) (graph.Drive, error) {
	if len(drives) == 0 {
		return graph.Drive{}, graph.ErrNoDrives
	}
	for _, drive := range drives {
		if drive.Name == DefaultLibraryName {
			return drive, nil
		}
	}
	return drives[0], nil
}
