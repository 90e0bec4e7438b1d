package images

import (
	"context"
	"regexp"
	"strings"

	"github.com/goliatone/go-docbot/internal/library"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

var (
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	htmlImagePattern     = regexp.MustCompile(`<img\b[^>]*?\ssrc=["']([^"']+)["'][^>]*>`)
)

// FetchFunc returns the raw bytes behind an image reference as written in the
// document. A nil slice with a nil error means the image does not exist.
type FetchFunc func(ctx context.Context, ref string) ([]byte, error)

// Observer is notified once per distinct reference with the outcome.
type Observer func(ref string, action Action)

// ProcessorOption customises a Processor.
type ProcessorOption func(*Processor)

// WithObserver registers an outcome observer, used for metrics.
func WithObserver(observer Observer) ProcessorOption {
	return func(p *Processor) {
		if observer != nil {
			p.observers = append(p.observers, observer)
		}
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(logger interfaces.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Processor rewrites local image references to uploaded URLs.
type Processor struct {
	uploader  *Uploader
	logger    interfaces.Logger
	observers []Observer
}

// NewProcessor builds a processor that stores images through uploader.
func NewProcessor(uploader *Uploader, opts ...ProcessorOption) *Processor {
	p := &Processor{
		uploader: uploader,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// References lists the distinct local image references of markdown in order
// of first appearance, covering both `![alt](path)` and `<img src="path">`.
func References(markdown string) []string {
	seen := map[string]struct{}{}
	var refs []string
	add := func(ref string) {
		if ref == "" || IsRemote(ref) {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	for _, match := range markdownImagePattern.FindAllStringSubmatch(markdown, -1) {
		add(markdownTarget(match[2]))
	}
	for _, match := range htmlImagePattern.FindAllStringSubmatch(markdown, -1) {
		add(strings.TrimSpace(match[1]))
	}
	return refs
}

// ProcessMarkdownImages uploads every local image of markdown into the Images
// folder of target and rewrites the references. Each distinct reference is
// resolved once. Missing or failing images keep their original reference.
// The only error returned is context cancellation.
func (p *Processor) ProcessMarkdownImages(ctx context.Context, siteID, markdown string, fetch FetchFunc, target library.Target) (string, error) {
	resolved := map[string]string{}
	for _, ref := range References(markdown) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		url, action := p.resolve(ctx, siteID, ref, fetch, target)
		if url != "" {
			resolved[ref] = url
		}
		for _, observer := range p.observers {
			observer(ref, action)
		}
	}
	if len(resolved) == 0 {
		return markdown, nil
	}

	out := markdownImagePattern.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := markdownImagePattern.FindStringSubmatch(match)
		inner := parts[2]
		ref := markdownTarget(inner)
		url, ok := resolved[ref]
		if !ok {
			return match
		}
		return "![" + parts[1] + "](" + strings.Replace(inner, ref, url, 1) + ")"
	})

	return rewriteHTMLSources(out, resolved), nil
}

// rewriteHTMLSources replaces the src value of each <img> tag by position so
// alt or title text equal to the path is left untouched.
func rewriteHTMLSources(markdown string, resolved map[string]string) string {
	var b strings.Builder
	last := 0
	for _, loc := range htmlImagePattern.FindAllStringSubmatchIndex(markdown, -1) {
		start, end := loc[2], loc[3]
		url, ok := resolved[strings.TrimSpace(markdown[start:end])]
		if !ok {
			continue
		}
		b.WriteString(markdown[last:start])
		b.WriteString(url)
		last = end
	}
	if last == 0 {
		return markdown
	}
	b.WriteString(markdown[last:])
	return b.String()
}

func (p *Processor) resolve(ctx context.Context, siteID, ref string, fetch FetchFunc, target library.Target) (string, Action) {
	logger := p.logger.WithContext(ctx)

	data, err := fetch(ctx, ref)
	if err != nil {
		logger.Warn("images.fetch_failed", "ref", ref, "error", err)
		return "", ActionFailed
	}
	if data == nil {
		logger.Warn("images.not_found", "ref", ref)
		return "", ActionMissing
	}

	result, err := p.uploader.UploadWithDedup(ctx, siteID, data, Extension(ref), target)
	if err != nil {
		logger.Error("images.upload_failed", "ref", ref, "error", err)
		return "", ActionFailed
	}
	return result.URL, result.Action
}

// markdownTarget strips an optional title from the link destination:
// `img.png "Title"` yields `img.png`.
func markdownTarget(inner string) string {
	inner = strings.TrimSpace(inner)
	if strings.HasPrefix(inner, "<") {
		if end := strings.Index(inner, ">"); end > 0 {
			return inner[1:end]
		}
	}
	if fields := strings.Fields(inner); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
