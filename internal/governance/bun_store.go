package governance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const configNamespace = "repository_config"

// NewConfigRepository creates the generic repository for config rows,
// identified by repository full name.
func NewConfigRepository(db *bun.DB) repository.Repository[*ConfigRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ConfigRecord]{
		NewRecord: func() *ConfigRecord { return &ConfigRecord{} },
		GetID: func(record *ConfigRecord) uuid.UUID {
			return record.ID
		},
		SetID: func(record *ConfigRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "repo_full_name"
		},
		GetIdentifierValue: func(record *ConfigRecord) string {
			return record.RepoFullName
		},
	})
}

// BunStore persists configs in repository_config and cross_domain_rules.
type BunStore struct {
	db           *bun.DB
	repo         repository.Repository[*ConfigRecord]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunStore creates a store without caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache creates a store whose config reads go through the
// repository cache. Saves invalidate the namespace.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunStore {
	base := NewConfigRepository(db)
	store := &BunStore{db: db, now: time.Now}
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		store.cacheService = cacheService
		store.cachePrefix = configNamespace + cache.KeySeparator
	}
	store.repo = base
	return store
}

func (s *BunStore) Get(ctx context.Context, repoFullName string) (*RepositoryConfig, error) {
	name := strings.TrimSpace(repoFullName)
	if name == "" {
		return nil, ErrRepoNameRequired
	}
	record, err := s.repo.GetByIdentifier(ctx, name)
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("governance: load config %s: %w", name, err)
	}

	var rules []RuleRecord
	if err := s.db.NewSelect().
		Model(&rules).
		Where("?TableAlias.repo_full_name = ?", name).
		Order("position ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("governance: load rules %s: %w", name, err)
	}

	cfg := configFromRecords(record, rules)
	return &cfg, nil
}

// Save upserts the config row and swaps the repository's rules in one
// transaction.
func (s *BunStore) Save(ctx context.Context, cfg RepositoryConfig) error {
	name := strings.TrimSpace(cfg.RepoFullName)
	if name == "" {
		return ErrRepoNameRequired
	}
	cfg.RepoFullName = name
	record := recordFromConfig(cfg, s.now().UTC())

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := upsertConfig(tx.NewInsert().Model(record)).Exec(ctx); err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*RuleRecord)(nil)).
			Where("?TableAlias.repo_full_name = ?", name).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete rules: %w", err)
		}

		rules := ruleRecords(record.ID, name, cfg.CrossDomainRules)
		if len(rules) == 0 {
			return nil
		}
		if _, err := upsertRules(tx.NewInsert().Model(&rules)).Exec(ctx); err != nil {
			return fmt.Errorf("insert rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("governance: save config %s: %w", name, err)
	}
	return s.invalidate(ctx)
}

// upsertConfig resolves a concurrent save of the same repository inside the
// insert. The surviving row id is scanned back so the rules point at it;
// created_at keeps its first value.
func upsertConfig(q *bun.InsertQuery) *bun.InsertQuery {
	q = q.On("CONFLICT (repo_full_name) DO UPDATE")
	for _, col := range configColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
	}
	return q.Returning("id")
}

func upsertRules(q *bun.InsertQuery) *bun.InsertQuery {
	q = q.On("CONFLICT (id) DO UPDATE")
	for _, col := range ruleColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
	}
	return q
}

func (s *BunStore) invalidate(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}
