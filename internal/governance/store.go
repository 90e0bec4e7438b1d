package governance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrConfigNotFound is returned by stores with nothing persisted for a repository.
var ErrConfigNotFound = errors.New("governance: config not found")

// Store persists the last valid config of each repository.
type Store interface {
	// Get returns ErrConfigNotFound when nothing was persisted.
	Get(ctx context.Context, repoFullName string) (*RepositoryConfig, error)
	// Save upserts the config row and replaces the repository's rules.
	Save(ctx context.Context, cfg RepositoryConfig) error
}

// MemoryStore keeps configs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]RepositoryConfig
	synced  map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		configs: map[string]RepositoryConfig{},
		synced:  map[string]time.Time{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, repoFullName string) (*RepositoryConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[storeKey(repoFullName)]
	if !ok {
		return nil, ErrConfigNotFound
	}
	out := cfg.Clone()
	out.Source = SourceStore
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, cfg RepositoryConfig) error {
	key := storeKey(cfg.RepoFullName)
	if key == "" {
		return ErrRepoNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[key] = cfg.Clone()
	s.synced[key] = s.now().UTC()
	return nil
}

// SyncedAt reports when repoFullName was last saved.
func (s *MemoryStore) SyncedAt(repoFullName string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.synced[storeKey(repoFullName)]
	return at, ok
}

// ErrRepoNameRequired is returned when saving a config without a repository.
var ErrRepoNameRequired = errors.New("governance: repository full name is required")

func storeKey(repoFullName string) string {
	return strings.TrimSpace(repoFullName)
}
