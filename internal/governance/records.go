package governance

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-docbot/internal/identity"
)

// ConfigRecord is the repository_config row.
type ConfigRecord struct {
	bun.BaseModel `bun:"table:repository_config,alias:rc"`

	ID                   uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RepoFullName         string    `bun:"repo_full_name,notnull,unique" json:"repo_full_name"`
	DocumentType         string    `bun:"document_type,notnull" json:"document_type"`
	DocumentPath         string    `bun:"document_path,notnull" json:"document_path"`
	ConfigFilePath       string    `bun:"config_file_path,notnull" json:"config_file_path"`
	ConfigSHA            string    `bun:"config_sha" json:"config_sha"`
	SyncedAt             time.Time `bun:"synced_at,notnull" json:"synced_at"`
	ApprovalRequired     bool      `bun:"approval_required,notnull" json:"approval_required"`
	DomainApproval       bool      `bun:"domain_approval,notnull" json:"domain_approval"`
	OwnerApproval        bool      `bun:"owner_approval,notnull" json:"owner_approval"`
	AutoMergeEnabled     bool      `bun:"auto_merge_enabled,notnull" json:"auto_merge_enabled"`
	AutoMergeAfterHours  *int      `bun:"auto_merge_after_hours" json:"auto_merge_after_hours,omitempty"`
	NotifyOnPROpen       bool      `bun:"notify_on_pr_open,notnull" json:"notify_on_pr_open"`
	NotificationChannels []string  `bun:"notification_channels,type:jsonb" json:"notification_channels"`
	ReminderAfterHours   *int      `bun:"reminder_after_hours" json:"reminder_after_hours,omitempty"`
	EscalateAfterHours   *int      `bun:"escalate_after_hours" json:"escalate_after_hours,omitempty"`
	SPSyncEnabled        bool      `bun:"sp_sync_enabled,notnull" json:"sp_sync_enabled"`
	SPSiteURL            string    `bun:"sp_site_url" json:"sp_site_url"`
	SPLibraryName        string    `bun:"sp_library_name" json:"sp_library_name"`
	SPArchiveOldVersions bool      `bun:"sp_archive_old_versions,notnull" json:"sp_archive_old_versions"`
	SPArchiveSiteURL     string    `bun:"sp_archive_site_url,nullzero" json:"sp_archive_site_url,omitempty"`
	SPArchiveLibraryName string    `bun:"sp_archive_library_name,nullzero" json:"sp_archive_library_name,omitempty"`
	CreatedAt            time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// RuleRecord is one cross_domain_rules row.
type RuleRecord struct {
	bun.BaseModel `bun:"table:cross_domain_rules,alias:cdr"`

	ID              uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ConfigID        uuid.UUID `bun:"config_id,notnull,type:uuid" json:"config_id"`
	RepoFullName    string    `bun:"repo_full_name,notnull" json:"repo_full_name"`
	Position        int       `bun:"position,notnull" json:"position"`
	RulePattern     string    `bun:"rule_pattern,notnull" json:"rule_pattern"`
	RequiredDomains []string  `bun:"required_domains,type:jsonb" json:"required_domains"`
	Description     string    `bun:"description,nullzero" json:"description,omitempty"`
}

// configColumns are rewritten on every sync; created_at is kept.
var configColumns = []string{
	"document_type",
	"document_path",
	"config_file_path",
	"config_sha",
	"synced_at",
	"approval_required",
	"domain_approval",
	"owner_approval",
	"auto_merge_enabled",
	"auto_merge_after_hours",
	"notify_on_pr_open",
	"notification_channels",
	"reminder_after_hours",
	"escalate_after_hours",
	"sp_sync_enabled",
	"sp_site_url",
	"sp_library_name",
	"sp_archive_old_versions",
	"sp_archive_site_url",
	"sp_archive_library_name",
	"updated_at",
}

var ruleColumns = []string{
	"config_id",
	"repo_full_name",
	"position",
	"rule_pattern",
	"required_domains",
	"description",
}

func recordFromConfig(cfg RepositoryConfig, syncedAt time.Time) *ConfigRecord {
	channels := slices.Clone(cfg.NotificationChannels)
	if channels == nil {
		channels = []string{}
	}
	return &ConfigRecord{
		ID:                   identity.RepositoryConfigUUID(cfg.RepoFullName),
		RepoFullName:         cfg.RepoFullName,
		DocumentType:         cfg.DocumentType,
		DocumentPath:         cfg.DocumentPath,
		ConfigFilePath:       ConfigFilePath,
		ConfigSHA:            cfg.ConfigSHA,
		SyncedAt:             syncedAt,
		ApprovalRequired:     cfg.ApprovalRequired,
		DomainApproval:       cfg.DomainApproval,
		OwnerApproval:        cfg.OwnerApproval,
		AutoMergeEnabled:     cfg.AutoMergeEnabled,
		AutoMergeAfterHours:  cloneInt(cfg.AutoMergeAfterHours),
		NotifyOnPROpen:       cfg.NotifyOnPROpen,
		NotificationChannels: channels,
		ReminderAfterHours:   cloneInt(cfg.ReminderAfterHours),
		EscalateAfterHours:   cloneInt(cfg.EscalateAfterHours),
		SPSyncEnabled:        cfg.SharePointSync.Enabled,
		SPSiteURL:            cfg.SharePointSync.SiteURL,
		SPLibraryName:        cfg.SharePointSync.LibraryName,
		SPArchiveOldVersions: cfg.SharePointSync.ArchiveOldVersions,
		SPArchiveSiteURL:     cfg.SharePointSync.ArchiveSiteURL,
		SPArchiveLibraryName: cfg.SharePointSync.ArchiveLibraryName,
		CreatedAt:            syncedAt,
		UpdatedAt:            syncedAt,
	}
}

func ruleRecords(configID uuid.UUID, repoFullName string, rules []CrossDomainRule) []RuleRecord {
	out := make([]RuleRecord, 0, len(rules))
	for i, rule := range rules {
		domains := slices.Clone(rule.Domains)
		if domains == nil {
			domains = []string{}
		}
		out = append(out, RuleRecord{
			ID:              identity.CrossDomainRuleUUID(configID, rule.Pattern, i),
			ConfigID:        configID,
			RepoFullName:    repoFullName,
			Position:        i,
			RulePattern:     rule.Pattern,
			RequiredDomains: domains,
			Description:     rule.Description,
		})
	}
	return out
}

func configFromRecords(record *ConfigRecord, rules []RuleRecord) RepositoryConfig {
	cfg := RepositoryConfig{
		RepoFullName: record.RepoFullName,
		DocumentType: record.DocumentType,
		DocumentPath: record.DocumentPath,
		SharePointSync: SharePointSync{
			Enabled:            record.SPSyncEnabled,
			SiteURL:            record.SPSiteURL,
			LibraryName:        record.SPLibraryName,
			ArchiveOldVersions: record.SPArchiveOldVersions,
			ArchiveSiteURL:     record.SPArchiveSiteURL,
			ArchiveLibraryName: record.SPArchiveLibraryName,
		},
		ApprovalRequired:     record.ApprovalRequired,
		DomainApproval:       record.DomainApproval,
		OwnerApproval:        record.OwnerApproval,
		AutoMergeEnabled:     record.AutoMergeEnabled,
		AutoMergeAfterHours:  cloneInt(record.AutoMergeAfterHours),
		NotifyOnPROpen:       record.NotifyOnPROpen,
		NotificationChannels: slices.Clone(record.NotificationChannels),
		ReminderAfterHours:   cloneInt(record.ReminderAfterHours),
		EscalateAfterHours:   cloneInt(record.EscalateAfterHours),
		CrossDomainRules:     make([]CrossDomainRule, 0, len(rules)),
		ConfigSHA:            record.ConfigSHA,
		Source:               SourceStore,
	}
	if cfg.NotificationChannels == nil {
		cfg.NotificationChannels = []string{}
	}
	for _, rule := range rules {
		cfg.CrossDomainRules = append(cfg.CrossDomainRules, CrossDomainRule{
			Pattern:     rule.RulePattern,
			Domains:     slices.Clone(rule.RequiredDomains),
			Description: rule.Description,
		})
	}
	return cfg
}
