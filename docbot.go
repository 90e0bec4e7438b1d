// Package docbot publishes governed documentation from GitHub repositories
// to SharePoint. It renders markdown to pages and PDFs, keeps pull request
// approval tables current and reads per-repository governance config.
package docbot

import (
	"context"
	"net/http"

	"github.com/goliatone/go-docbot/internal/di"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/pipeline"
)

// PushEvent exports the push payload the pipeline consumes.
type PushEvent = pipeline.PushEvent

// Report exports the per-push outcome report.
type Report = pipeline.Report

// PullRequestRef exports the pull request identifier used by approvals.
type PullRequestRef = pipeline.PullRequestRef

// RepositoryConfig exports the effective governance config of a repository.
type RepositoryConfig = governance.RepositoryConfig

// Module is the wired bot.
type Module struct {
	container *di.Container
}

// New wires a Module from cfg.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container.
func (m *Module) Container() *di.Container {
	return m.container
}

// Start launches the background workers.
func (m *Module) Start(ctx context.Context) {
	m.container.Start(ctx)
}

// Handler returns the HTTP handler serving webhooks, metrics and the API.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.HTTPHandler()
}

// ProcessPush runs the pipeline for event synchronously.
func (m *Module) ProcessPush(ctx context.Context, event PushEvent) error {
	return m.container.ProcessPush(ctx, event)
}

// SyncConfig re-reads and persists the governance file of a repository.
func (m *Module) SyncConfig(ctx context.Context, repoFullName, ref string) (RepositoryConfig, error) {
	return m.container.Loader().Sync(ctx, repoFullName, ref)
}

// Close drains the queue and releases connections.
func (m *Module) Close(ctx context.Context) error {
	return m.container.Close(ctx)
}
