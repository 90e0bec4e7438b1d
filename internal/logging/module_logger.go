package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-docbot/pkg/interfaces"
)

const (
	rootModule       = "docbot"
	approvalsModule  = "docbot.approvals"
	imagesModule     = "docbot.images"
	pdfModule        = "docbot.pdf"
	libraryModule    = "docbot.library"
	pagesModule      = "docbot.pages"
	governanceModule = "docbot.governance"
	pipelineModule   = "docbot.pipeline"
	webhooksModule   = "docbot.webhooks"
)

const (
	fieldRepository = "repository"
	fieldDocument   = "document_path"
	fieldDelivery   = "delivery_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ApprovalsLogger returns the logger namespace for approval table workflows.
func ApprovalsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, approvalsModule)
}

// ImagesLogger returns the logger namespace for image processing.
func ImagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, imagesModule)
}

// PDFLogger returns the logger namespace for document rendering.
func PDFLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pdfModule)
}

// LibraryLogger returns the logger namespace for document library resolution.
func LibraryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, libraryModule)
}

// PagesLogger returns the logger namespace for site page publishing.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// GovernanceLogger returns the logger namespace for governance config loading.
func GovernanceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, governanceModule)
}

// PipelineLogger returns the logger namespace for push processing.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// WebhooksLogger returns the logger namespace for webhook ingress.
func WebhooksLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, webhooksModule)
}

// WithDocumentContext enriches the logger with the repository, document path
// and delivery id needed to re-drive a failed document. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, repo, path, deliveryID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(repo); trimmed != "" {
		fields[fieldRepository] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldDocument] = trimmed
	}
	if trimmed := strings.TrimSpace(deliveryID); trimmed != "" {
		fields[fieldDelivery] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
