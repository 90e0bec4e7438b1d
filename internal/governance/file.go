package governance

// GovernanceFile mirrors metadata/repo-config.yaml after validation, with
// schema defaults applied.
type GovernanceFile struct {
	Document         DocumentSection      `json:"document" yaml:"document"`
	SharePointSync   SharePointSection    `json:"sharepoint_sync" yaml:"sharepoint_sync"`
	Approval         ApprovalSection      `json:"approval" yaml:"approval"`
	Notifications    NotificationsSection `json:"notifications" yaml:"notifications"`
	CrossDomainRules []CrossDomainRule    `json:"cross_domain_rules" yaml:"cross_domain_rules"`
}

type DocumentSection struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

type SharePointSection struct {
	Enabled            bool   `json:"enabled" yaml:"enabled"`
	SiteURL            string `json:"site_url" yaml:"site_url"`
	LibraryName        string `json:"library_name" yaml:"library_name"`
	ArchiveOldVersions bool   `json:"archive_old_versions" yaml:"archive_old_versions"`
	ArchiveSiteURL     string `json:"archive_site_url,omitempty" yaml:"archive_site_url,omitempty"`
	ArchiveLibraryName string `json:"archive_library_name,omitempty" yaml:"archive_library_name,omitempty"`
}

type ApprovalSection struct {
	Required       bool             `json:"required" yaml:"required"`
	DomainApproval bool             `json:"domain_approval" yaml:"domain_approval"`
	OwnerApproval  bool             `json:"owner_approval" yaml:"owner_approval"`
	AutoMerge      AutoMergeSection `json:"auto_merge" yaml:"auto_merge"`
}

type AutoMergeSection struct {
	Enabled    bool `json:"enabled" yaml:"enabled"`
	AfterHours int  `json:"after_hours" yaml:"after_hours"`
}

type NotificationsSection struct {
	OnPROpen           bool     `json:"on_pr_open" yaml:"on_pr_open"`
	Channels           []string `json:"channels" yaml:"channels"`
	ReminderAfterHours int      `json:"reminder_after_hours" yaml:"reminder_after_hours"`
	EscalateAfterHours int      `json:"escalate_after_hours" yaml:"escalate_after_hours"`
}

// defaultGovernanceFile seeds decoding so omitted optional sections keep
// their schema defaults.
func defaultGovernanceFile() GovernanceFile {
	return GovernanceFile{
		Approval: ApprovalSection{
			Required:       true,
			DomainApproval: true,
			OwnerApproval:  true,
			AutoMerge:      AutoMergeSection{AfterHours: defaultAutoMergeHours},
		},
		Notifications: NotificationsSection{
			OnPROpen:           true,
			Channels:           []string{defaultChannel},
			ReminderAfterHours: defaultReminderAfterHours,
			EscalateAfterHours: defaultEscalateAfterHours,
		},
	}
}

// ToRepositoryConfig maps a validated file onto the runtime config.
func (f *GovernanceFile) ToRepositoryConfig(repoFullName, sha string) RepositoryConfig {
	cfg := RepositoryConfig{
		RepoFullName: repoFullName,
		DocumentType: f.Document.Type,
		DocumentPath: f.Document.Path,
		SharePointSync: SharePointSync{
			Enabled:            f.SharePointSync.Enabled,
			SiteURL:            f.SharePointSync.SiteURL,
			LibraryName:        f.SharePointSync.LibraryName,
			ArchiveOldVersions: f.SharePointSync.ArchiveOldVersions,
			ArchiveSiteURL:     f.SharePointSync.ArchiveSiteURL,
			ArchiveLibraryName: f.SharePointSync.ArchiveLibraryName,
		},
		ApprovalRequired:     f.Approval.Required,
		DomainApproval:       f.Approval.DomainApproval,
		OwnerApproval:        f.Approval.OwnerApproval,
		AutoMergeEnabled:     f.Approval.AutoMerge.Enabled,
		AutoMergeAfterHours:  intPtr(f.Approval.AutoMerge.AfterHours),
		NotifyOnPROpen:       f.Notifications.OnPROpen,
		NotificationChannels: f.Notifications.Channels,
		ReminderAfterHours:   intPtr(f.Notifications.ReminderAfterHours),
		EscalateAfterHours:   intPtr(f.Notifications.EscalateAfterHours),
		CrossDomainRules:     f.CrossDomainRules,
		ConfigSHA:            sha,
		Source:               SourceFile,
	}
	return cfg.Clone()
}
