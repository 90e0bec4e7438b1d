package governance

import (
	"context"
	"errors"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/source"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ErrInvalidRepoName is returned by Sync for names that are not owner/name.
var ErrInvalidRepoName = errors.New("governance: repository name must be owner/name")

// ErrConfigFileMissing is returned by Sync when the repository has no
// governance file at the requested ref.
var ErrConfigFileMissing = errors.New("governance: config file not found")

// FileFetcher reads text files from the source repository. A nil file with a
// nil error means the file does not exist.
type FileFetcher interface {
	FetchFileContent(ctx context.Context, owner, repo, path, ref string) (*source.TextFile, error)
}

// LoadRequest describes one config resolution for a push.
type LoadRequest struct {
	RepoFullName string
	// ChangedFiles are the paths touched by the push. The governance file is
	// only fetched when it is among them.
	ChangedFiles []string
	Ref          string
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger interfaces.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSourceObserver is told which fallback tier produced each config.
func WithSourceObserver(observer func(Source)) LoaderOption {
	return func(l *Loader) {
		l.observe = observer
	}
}

// Loader resolves the effective config of a repository through the
// live file, persisted copy and default tiers.
type Loader struct {
	fetcher FileFetcher
	store   Store
	logger  interfaces.Logger
	observe func(Source)
}

// NewLoader builds a loader. Either collaborator may be nil, which skips the
// tier it serves.
func NewLoader(fetcher FileFetcher, store Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		store:   store,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// LoadOrSync returns the config the pipeline should run with. It never
// fails: every downgrade is logged and the next tier is tried.
func (l *Loader) LoadOrSync(ctx context.Context, req LoadRequest) RepositoryConfig {
	cfg := l.loadOrSync(ctx, req)
	if l.observe != nil {
		l.observe(cfg.Source)
	}
	return cfg
}

func (l *Loader) loadOrSync(ctx context.Context, req LoadRequest) RepositoryConfig {
	owner, name, ok := SplitRepoFullName(req.RepoFullName)
	if !ok {
		l.logger.Error("governance.repo.invalid", "repository", req.RepoFullName)
		return l.defaults(req.RepoFullName)
	}
	if !containsConfigChange(req.ChangedFiles) {
		return l.loadFromStoreOrDefault(ctx, req.RepoFullName)
	}

	l.logger.Info("governance.config.changed", "repository", req.RepoFullName, "ref", req.Ref)
	file, sha, err := l.fetch(ctx, owner, name, req.Ref)
	if err != nil {
		l.logger.Warn("governance.config.fallback", "repository", req.RepoFullName, "reason", err)
		return l.loadFromStoreOrDefault(ctx, req.RepoFullName)
	}

	cfg := file.ToRepositoryConfig(req.RepoFullName, sha)
	if l.store != nil {
		if err := l.store.Save(ctx, cfg); err != nil {
			l.logger.Error("governance.config.sync_failed", "repository", req.RepoFullName, "error", err)
		} else {
			l.logger.Info("governance.config.synced", "repository", req.RepoFullName, "sha", sha)
		}
	}
	return cfg
}

// Sync fetches, validates and persists the governance file at ref. Unlike
// LoadOrSync it reports every failure.
func (l *Loader) Sync(ctx context.Context, repoFullName, ref string) (RepositoryConfig, error) {
	owner, name, ok := SplitRepoFullName(repoFullName)
	if !ok {
		return RepositoryConfig{}, ErrInvalidRepoName
	}
	file, sha, err := l.fetch(ctx, owner, name, ref)
	if err != nil {
		return RepositoryConfig{}, err
	}
	cfg := file.ToRepositoryConfig(repoFullName, sha)
	if l.store != nil {
		if err := l.store.Save(ctx, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (l *Loader) fetch(ctx context.Context, owner, name, ref string) (*GovernanceFile, string, error) {
	if l.fetcher == nil {
		return nil, "", ErrConfigFileMissing
	}
	content, err := l.fetcher.FetchFileContent(ctx, owner, name, ConfigFilePath, ref)
	if err != nil {
		return nil, "", err
	}
	if content == nil {
		return nil, "", ErrConfigFileMissing
	}
	file, err := ParseAndValidate([]byte(content.Content))
	if err != nil {
		return nil, "", err
	}
	return file, content.SHA, nil
}

func (l *Loader) loadFromStoreOrDefault(ctx context.Context, repoFullName string) RepositoryConfig {
	if l.store == nil {
		return l.defaults(repoFullName)
	}
	cfg, err := l.store.Get(ctx, repoFullName)
	switch {
	case err == nil && cfg != nil:
		return *cfg
	case err != nil && !errors.Is(err, ErrConfigNotFound):
		l.logger.Error("governance.store.load_failed", "repository", repoFullName, "error", err)
	}
	return l.defaults(repoFullName)
}

func (l *Loader) defaults(repoFullName string) RepositoryConfig {
	l.logger.Warn("governance.config.default", "repository", repoFullName)
	return DefaultConfig(repoFullName)
}

func containsConfigChange(files []string) bool {
	for _, file := range files {
		if IsConfigChange(file) {
			return true
		}
	}
	return false
}
