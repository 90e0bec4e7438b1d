package governance

import (
	"slices"
	"strings"
)

// ConfigFilePath is where a content repository keeps its governance file.
const ConfigFilePath = "metadata/repo-config.yaml"

const (
	defaultDocumentType       = "policy"
	defaultDocumentPath       = "policies/"
	defaultChannel            = "email"
	defaultReminderAfterHours = 48
	defaultEscalateAfterHours = 120
	defaultAutoMergeHours     = 24
)

// Source records which tier of the fallback chain produced a config.
type Source string

const (
	SourceFile    Source = "file"
	SourceStore   Source = "store"
	SourceDefault Source = "default"
)

// CrossDomainRule maps a file glob to the domains that must approve changes
// touching it.
type CrossDomainRule struct {
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Domains     []string `json:"domains" yaml:"domains"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// SharePointSync holds the publish target of a repository.
type SharePointSync struct {
	Enabled            bool   `json:"enabled"`
	SiteURL            string `json:"site_url"`
	LibraryName        string `json:"library_name"`
	ArchiveOldVersions bool   `json:"archive_old_versions"`
	ArchiveSiteURL     string `json:"archive_site_url,omitempty"`
	ArchiveLibraryName string `json:"archive_library_name,omitempty"`
}

// RepositoryConfig is the effective configuration the pipeline runs with.
// Nil hour fields mean the policy is unset.
type RepositoryConfig struct {
	RepoFullName         string            `json:"repo_full_name"`
	DocumentType         string            `json:"document_type"`
	DocumentPath         string            `json:"document_path"`
	SharePointSync       SharePointSync    `json:"sharepoint_sync"`
	ApprovalRequired     bool              `json:"approval_required"`
	DomainApproval       bool              `json:"domain_approval"`
	OwnerApproval        bool              `json:"owner_approval"`
	AutoMergeEnabled     bool              `json:"auto_merge_enabled"`
	AutoMergeAfterHours  *int              `json:"auto_merge_after_hours,omitempty"`
	NotifyOnPROpen       bool              `json:"notify_on_pr_open"`
	NotificationChannels []string          `json:"notification_channels"`
	ReminderAfterHours   *int              `json:"reminder_after_hours,omitempty"`
	EscalateAfterHours   *int              `json:"escalate_after_hours,omitempty"`
	CrossDomainRules     []CrossDomainRule `json:"cross_domain_rules"`
	ConfigSHA            string            `json:"config_sha,omitempty"`
	Source               Source            `json:"source"`
}

// DefaultConfig is the hardcoded last tier of the fallback chain.
func DefaultConfig(repoFullName string) RepositoryConfig {
	return RepositoryConfig{
		RepoFullName:         repoFullName,
		DocumentType:         defaultDocumentType,
		DocumentPath:         defaultDocumentPath,
		ApprovalRequired:     true,
		DomainApproval:       true,
		OwnerApproval:        true,
		NotifyOnPROpen:       true,
		NotificationChannels: []string{defaultChannel},
		ReminderAfterHours:   intPtr(defaultReminderAfterHours),
		EscalateAfterHours:   intPtr(defaultEscalateAfterHours),
		CrossDomainRules:     []CrossDomainRule{},
		Source:               SourceDefault,
	}
}

// SplitRepoFullName splits "owner/name". ok is false unless there are
// exactly two non-empty parts.
func SplitRepoFullName(repoFullName string) (owner, name string, ok bool) {
	parts := strings.Split(repoFullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// IsConfigChange reports whether path is the governance file.
func IsConfigChange(path string) bool {
	return path == ConfigFilePath
}

// Clone returns a deep copy of cfg.
func (cfg RepositoryConfig) Clone() RepositoryConfig {
	out := cfg
	out.NotificationChannels = slices.Clone(cfg.NotificationChannels)
	out.AutoMergeAfterHours = cloneInt(cfg.AutoMergeAfterHours)
	out.ReminderAfterHours = cloneInt(cfg.ReminderAfterHours)
	out.EscalateAfterHours = cloneInt(cfg.EscalateAfterHours)
	out.CrossDomainRules = make([]CrossDomainRule, len(cfg.CrossDomainRules))
	for i, rule := range cfg.CrossDomainRules {
		rule.Domains = slices.Clone(rule.Domains)
		out.CrossDomainRules[i] = rule
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}
