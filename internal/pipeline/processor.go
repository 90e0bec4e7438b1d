package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/images"
	"github.com/goliatone/go-docbot/internal/library"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/markdown"
	"github.com/goliatone/go-docbot/internal/pdf"
	"github.com/goliatone/go-docbot/internal/sitepages"
	"github.com/goliatone/go-docbot/internal/source"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

const (
	defaultDocumentTimeout = 2 * time.Minute
	pdfContentType         = "application/pdf"
)

// ErrMissingDependency is returned by NewProcessor when a required
// collaborator is nil.
var ErrMissingDependency = errors.New("pipeline: missing dependency")

// ConfigLoader resolves the governance config of a repository.
type ConfigLoader interface {
	LoadOrSync(ctx context.Context, req governance.LoadRequest) governance.RepositoryConfig
}

// ContentSource reads files from the source repository. Missing files come
// back as nil without an error.
type ContentSource interface {
	FetchFileContent(ctx context.Context, owner, repo, path, ref string) (*source.TextFile, error)
	FetchBinaryContent(ctx context.Context, owner, repo, path, ref string) (*source.BinaryFile, error)
}

// SiteResolver turns a site URL into a site id.
type SiteResolver interface {
	ResolveSiteID(ctx context.Context, siteURL string) (string, error)
}

// LibraryResolver resolves the library documents are stored in.
type LibraryResolver interface {
	EnsureLibrary(ctx context.Context, siteID, name string) (library.Target, error)
}

// PagePublisher writes the page of a document.
type PagePublisher interface {
	CreateOrUpdatePage(ctx context.Context, req sitepages.PublishRequest) (*sitepages.PageResult, error)
}

// DocumentRenderer produces the PDF of a document.
type DocumentRenderer interface {
	RenderMarkdown(ctx context.Context, source string, opts pdf.Options) (*pdf.Result, error)
}

// FileUploader stores the rendered PDF.
type FileUploader interface {
	UploadContent(ctx context.Context, siteID, driveID, itemPath string, data []byte, contentType string) (*graph.DriveItem, error)
}

// EventPublisher announces document outcomes.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Dependencies are the collaborators of a Processor. Renderer, Files and
// Events are optional.
type Dependencies struct {
	Config    ConfigLoader
	Source    ContentSource
	Sites     SiteResolver
	Libraries LibraryResolver
	Pages     PagePublisher
	Renderer  DocumentRenderer
	Files     FileUploader
	Events    EventPublisher
}

// Option customises a Processor.
type Option func(*Processor)

// WithLogger sets the pipeline logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithDocumentTimeout bounds the time spent on one document.
func WithDocumentTimeout(timeout time.Duration) Option {
	return func(p *Processor) {
		if timeout > 0 {
			p.documentTimeout = timeout
		}
	}
}

// WithPDFOptions sets the page template used for every PDF.
func WithPDFOptions(opts pdf.Options) Option {
	return func(p *Processor) {
		p.pdfOptions = opts
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// Processor runs the documentation pipeline for push events.
type Processor struct {
	deps            Dependencies
	logger          interfaces.Logger
	metrics         *Metrics
	documentTimeout time.Duration
	pdfOptions      pdf.Options
	now             func() time.Time
}

// NewProcessor validates deps and builds a processor.
func NewProcessor(deps Dependencies, opts ...Option) (*Processor, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("%w: config loader", ErrMissingDependency)
	case deps.Source == nil:
		return nil, fmt.Errorf("%w: content source", ErrMissingDependency)
	case deps.Sites == nil:
		return nil, fmt.Errorf("%w: site resolver", ErrMissingDependency)
	case deps.Libraries == nil:
		return nil, fmt.Errorf("%w: library resolver", ErrMissingDependency)
	case deps.Pages == nil:
		return nil, fmt.Errorf("%w: page publisher", ErrMissingDependency)
	case deps.Renderer != nil && deps.Files == nil:
		return nil, fmt.Errorf("%w: file uploader for rendered documents", ErrMissingDependency)
	}

	p := &Processor{
		deps:            deps,
		logger:          logging.NoOp(),
		documentTimeout: defaultDocumentTimeout,
		pdfOptions:      pdf.DefaultOptions(),
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// ProcessPush resolves the repository config and processes every changed
// document in push order. A failing document is logged and recorded; it
// never stops the documents after it.
func (p *Processor) ProcessPush(ctx context.Context, event PushEvent) Report {
	started := p.now()
	logger := logging.WithFields(p.logger, map[string]any{
		"repository":  event.RepoFullName,
		"delivery_id": event.DeliveryID,
	})
	logger.Info("pipeline.push.started", "ref", event.Ref, "commits", len(event.Commits))

	cfg := p.deps.Config.LoadOrSync(ctx, governance.LoadRequest{
		RepoFullName: event.RepoFullName,
		ChangedFiles: ConfigFilesFromPush(event.Commits),
		Ref:          event.ContentRef(),
	})

	report := Report{
		DeliveryID:   event.DeliveryID,
		Repository:   event.RepoFullName,
		ConfigSource: cfg.Source,
	}

	for _, change := range DocsFromPush(event.Commits, cfg.DocumentPath, documentExtension) {
		outcome := p.processChange(ctx, cfg, event, change)
		report.Outcomes = append(report.Outcomes, outcome)
		p.record(ctx, outcome)
	}

	p.metrics.ObserveDuration(p.now().Sub(started))
	logger.Info("pipeline.push.completed",
		"published", report.Count(ActionPublished),
		"skipped", report.Count(ActionSkipped),
		"failed", report.Count(ActionFailed),
	)
	return report
}

func (p *Processor) processChange(ctx context.Context, cfg governance.RepositoryConfig, event PushEvent, change Change) Outcome {
	started := p.now()
	outcome := Outcome{
		DeliveryID: event.DeliveryID,
		Repository: event.RepoFullName,
		Path:       change.Path,
		Commit:     event.ContentRef(),
	}
	logger := logging.WithDocumentContext(p.logger, event.RepoFullName, change.Path, event.DeliveryID)

	switch {
	case ctx.Err() != nil:
		outcome.Action, outcome.Reason = ActionSkipped, ReasonCancelled
	case change.Action == ChangeRemove:
		logger.Info("pipeline.document.removed")
		outcome.Action, outcome.Reason = ActionSkipped, ReasonRemoved
	case !cfg.SharePointSync.Enabled:
		logger.Debug("pipeline.document.sync_disabled")
		outcome.Action, outcome.Reason = ActionSkipped, ReasonSyncDisabled
	default:
		docCtx, cancel := context.WithTimeout(ctx, p.documentTimeout)
		err := p.publishDocument(docCtx, cfg, event, change.Path, &outcome)
		cancel()
		if err != nil {
			logger.Error("pipeline.document.failed", "error", err)
			outcome.Action = ActionFailed
			outcome.Error = err.Error()
		} else if outcome.Action == ActionPublished {
			logger.Info("pipeline.document.published", "page_url", outcome.PageURL, "pdf_url", outcome.PDFURL)
		}
	}

	outcome.FinishedAt = p.now()
	outcome.Duration = outcome.FinishedAt.Sub(started)
	return outcome
}

func (p *Processor) publishDocument(ctx context.Context, cfg governance.RepositoryConfig, event PushEvent, docPath string, outcome *Outcome) error {
	owner, repo, ok := governance.SplitRepoFullName(event.RepoFullName)
	if !ok {
		return governance.ErrInvalidRepoName
	}
	ref := event.ContentRef()

	file, err := p.deps.Source.FetchFileContent(ctx, owner, repo, docPath, ref)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	if file == nil {
		outcome.Action, outcome.Reason = ActionSkipped, ReasonNotFound
		return nil
	}

	doc, err := markdown.ParsePolicyDocument(docPath, []byte(file.Content))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	outcome.Title = doc.FrontMatter.Title

	sync := cfg.SharePointSync
	siteID, err := p.deps.Sites.ResolveSiteID(ctx, sync.SiteURL)
	if err != nil {
		return fmt.Errorf("resolve site: %w", err)
	}
	libraryName := strings.TrimSpace(sync.LibraryName)
	if libraryName == "" {
		libraryName = library.DefaultLibraryName
	}
	target, err := p.deps.Libraries.EnsureLibrary(ctx, siteID, libraryName)
	if err != nil {
		return fmt.Errorf("resolve library %s: %w", libraryName, err)
	}

	fetch := p.imageFetcher(owner, repo, ref, docPath)
	body := string(doc.Body)

	if p.deps.Renderer != nil {
		opts := p.pdfOptions
		opts.Title = doc.FrontMatter.Title
		opts.Author = doc.FrontMatter.Owner
		opts.Images = func(ctx context.Context, src string) ([]byte, error) {
			if images.IsRemote(src) {
				return nil, nil
			}
			return fetch(ctx, src)
		}
		rendered, err := p.deps.Renderer.RenderMarkdown(ctx, body, opts)
		if err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
		item, err := p.deps.Files.UploadContent(ctx, siteID, target.DriveID, target.Join(PDFFileName(doc.FrontMatter.Title, docPath)), rendered.Data, pdfContentType)
		if err != nil {
			return fmt.Errorf("upload pdf: %w", err)
		}
		outcome.PDFURL = item.WebURL
		outcome.PageCount = rendered.PageCount
	}

	page, err := p.deps.Pages.CreateOrUpdatePage(ctx, sitepages.PublishRequest{
		SiteURL:  sync.SiteURL,
		Title:    doc.FrontMatter.Title,
		Markdown: body,
		Fetch:    fetch,
		Library:  &target,
	})
	if err != nil {
		return fmt.Errorf("publish page: %w", err)
	}

	outcome.Action = ActionPublished
	outcome.PageAction = page.Action
	outcome.PageURL = page.URL
	return nil
}

// imageFetcher reads image references relative to the document.
func (p *Processor) imageFetcher(owner, repo, ref, docPath string) images.FetchFunc {
	return func(ctx context.Context, imageRef string) ([]byte, error) {
		file, err := p.deps.Source.FetchBinaryContent(ctx, owner, repo, images.ResolveImagePath(docPath, imageRef), ref)
		if err != nil || file == nil {
			return nil, err
		}
		return file.Content, nil
	}
}

func (p *Processor) record(ctx context.Context, outcome Outcome) {
	p.metrics.ObserveDocument(outcome.Action)
	if p.deps.Events == nil {
		return
	}
	if err := p.deps.Events.Publish(ctx, outcome.Subject(), outcome); err != nil {
		logging.WithDocumentContext(p.logger, outcome.Repository, outcome.Path, outcome.DeliveryID).
			Warn("pipeline.event.publish_failed", "error", err)
	}
}

// PDFFileName names the PDF of a document after the slug of its title,
// falling back to the document file name.
func PDFFileName(title, docPath string) string {
	name, err := slug.Normalize(title)
	if err != nil || strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(path.Base(docPath), path.Ext(docPath))
	}
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	return name + ".pdf"
}
