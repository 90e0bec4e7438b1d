package sitepages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/images"
	"github.com/goliatone/go-docbot/internal/library"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/markdown"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

var (
	// ErrMissingTitle is returned when a page is published without a title.
	ErrMissingTitle = errors.New("sitepages: title is required")
	// ErrMissingSiteURL is returned when a page is published without a site.
	ErrMissingSiteURL = errors.New("sitepages: site url is required")
)

// Action reports which branch CreateOrUpdatePage took.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Client is the slice of the Graph API used for pages.
type Client interface {
	ResolveSiteID(ctx context.Context, siteURL string) (string, error)
	ListPages(ctx context.Context, siteID string) ([]graph.SitePage, error)
	CreatePage(ctx context.Context, siteID string, payload map[string]any) (*graph.SitePage, error)
	UpdatePage(ctx context.Context, siteID, pageID string, payload map[string]any) error
	PublishPage(ctx context.Context, siteID, pageID string) error
}

// LibraryResolver resolves the library images are stored in.
type LibraryResolver interface {
	EnsureLibrary(ctx context.Context, siteID, name string) (library.Target, error)
}

// ImageProcessor rewrites local image references in markdown.
type ImageProcessor interface {
	ProcessMarkdownImages(ctx context.Context, siteID, markdown string, fetch images.FetchFunc, target library.Target) (string, error)
}

// HTMLConverter renders markdown to an HTML fragment.
type HTMLConverter func(markdown string) (string, error)

// PublishRequest describes one page publish.
type PublishRequest struct {
	SiteURL  string
	Title    string
	Markdown string
	// Fetch enables image processing. Without it image references are
	// published as written.
	Fetch images.FetchFunc
	// Library is a pre-resolved image target. When nil and Fetch is set the
	// library named LibraryName (default "Documents") is resolved.
	Library     *library.Target
	LibraryName string
	TitleArea   *TitleArea
}

// PageResult is the outcome of a publish.
type PageResult struct {
	URL     string         `json:"url"`
	Action  Action         `json:"action"`
	PageID  string         `json:"page_id"`
	Name    string         `json:"name"`
	SiteID  string         `json:"site_id"`
	Library library.Target `json:"library,omitempty"`
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithLogger sets the publisher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithImages enables image processing through processor and resolver.
func WithImages(processor ImageProcessor, resolver LibraryResolver) Option {
	return func(p *Publisher) {
		p.images = processor
		p.libraries = resolver
	}
}

// WithHTMLConverter replaces the markdown renderer.
func WithHTMLConverter(convert HTMLConverter) Option {
	return func(p *Publisher) {
		if convert != nil {
			p.toHTML = convert
		}
	}
}

// Publisher creates or updates site pages and always publishes them.
type Publisher struct {
	client    Client
	images    ImageProcessor
	libraries LibraryResolver
	toHTML    HTMLConverter
	logger    interfaces.Logger
}

// NewPublisher builds a publisher over client.
func NewPublisher(client Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		toHTML: markdown.ToHTML,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// CreateOrUpdatePage publishes req.Markdown as the page titled req.Title.
// An existing page with the same title (compared case-insensitively) is
// updated in place; otherwise a new page is created. Either way the page is
// published before returning.
func (p *Publisher) CreateOrUpdatePage(ctx context.Context, req PublishRequest) (*PageResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	if strings.TrimSpace(req.SiteURL) == "" {
		return nil, ErrMissingSiteURL
	}

	siteID, err := p.client.ResolveSiteID(ctx, req.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("sitepages: resolve site: %w", err)
	}
	result := &PageResult{SiteID: siteID}

	body := req.Markdown
	if req.Fetch != nil && p.images != nil {
		target, err := p.imageTarget(ctx, siteID, req)
		if err != nil {
			return nil, err
		}
		result.Library = target
		body, err = p.images.ProcessMarkdownImages(ctx, siteID, body, req.Fetch, target)
		if err != nil {
			return nil, fmt.Errorf("sitepages: images: %w", err)
		}
	}

	html, err := p.toHTML(body)
	if err != nil {
		return nil, fmt.Errorf("sitepages: render: %w", err)
	}

	area := DefaultTitleArea()
	if req.TitleArea != nil {
		area = *req.TitleArea
	}

	existing, err := p.FindExistingPage(ctx, siteID, title)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		p.logger.Info("pages.update", "site_id", siteID, "page", existing.Name)
		if err := p.client.UpdatePage(ctx, siteID, existing.ID, BuildUpdatePayload(title, html, area)); err != nil {
			return nil, fmt.Errorf("sitepages: update %s: %w", existing.Name, err)
		}
		result.Action = ActionUpdated
		result.PageID = existing.ID
		result.Name = existing.Name
	} else {
		p.logger.Info("pages.create", "site_id", siteID, "title", title)
		created, err := p.client.CreatePage(ctx, siteID, BuildCreatePayload(title, html, area))
		if err != nil {
			return nil, fmt.Errorf("sitepages: create: %w", err)
		}
		result.Action = ActionCreated
		result.PageID = created.ID
		result.Name = created.Name
		if result.Name == "" {
			result.Name = PageName(title)
		}
	}

	if err := p.client.PublishPage(ctx, siteID, result.PageID); err != nil {
		return nil, fmt.Errorf("sitepages: publish %s: %w", result.Name, err)
	}

	result.URL = PageURL(req.SiteURL, result.Name)
	p.logger.Info("pages.published", "site_id", siteID, "action", result.Action, "url", result.URL)
	return result, nil
}

// FindExistingPage returns the first page whose title equals title ignoring
// case, or nil.
func (p *Publisher) FindExistingPage(ctx context.Context, siteID, title string) (*graph.SitePage, error) {
	pages, err := p.client.ListPages(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("sitepages: list pages: %w", err)
	}
	for i := range pages {
		if strings.EqualFold(pages[i].Title, title) {
			return &pages[i], nil
		}
	}
	return nil, nil
}

func (p *Publisher) imageTarget(ctx context.Context, siteID string, req PublishRequest) (library.Target, error) {
	if req.Library != nil && !req.Library.IsZero() {
		return *req.Library, nil
	}
	if p.libraries == nil {
		return library.Target{}, errors.New("sitepages: no library resolver configured")
	}
	name := strings.TrimSpace(req.LibraryName)
	if name == "" {
		name = library.DefaultLibraryName
	}
	target, err := p.libraries.EnsureLibrary(ctx, siteID, name)
	if err != nil {
		return library.Target{}, fmt.Errorf("sitepages: resolve library %s: %w", name, err)
	}
	return target, nil
}
