package governancecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/pipeline"
)

const (
	processPushMessageType         = "docbot.governance.process_push"
	updateApprovalTableMessageType = "docbot.governance.update_approval_table"
	syncConfigMessageType          = "docbot.governance.sync_config"
)

// ProcessPushCommand runs the documentation pipeline for one push.
type ProcessPushCommand struct {
	Event pipeline.PushEvent `json:"event"`
}

// Type implements command.Message.
func (ProcessPushCommand) Type() string { return processPushMessageType }

// Validate requires a well formed repository name.
func (m ProcessPushCommand) Validate() error {
	errs := validation.Errors{}
	if !validRepoName(m.Event.RepoFullName) {
		errs["repository"] = validation.NewError("docbot.governance.process_push.repository_invalid", "repository must be owner/name")
	}
	if strings.TrimSpace(m.Event.ContentRef()) == "" {
		errs["ref"] = validation.NewError("docbot.governance.process_push.ref_required", "ref or head commit is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateApprovalTableCommand maintains the approval table of a pull request.
// Without a comment the required domains are synced; with one its
// /approve and /reject decisions are applied.
type UpdateApprovalTableCommand struct {
	PullRequest pipeline.PullRequestRef `json:"pull_request"`
	Actor       string                  `json:"actor,omitempty"`
	Comment     string                  `json:"comment,omitempty"`
}

// Type implements command.Message.
func (UpdateApprovalTableCommand) Type() string { return updateApprovalTableMessageType }

// Validate requires the pull request and, for comments, the actor.
func (m UpdateApprovalTableCommand) Validate() error {
	errs := validation.Errors{}
	if !validRepoName(m.PullRequest.RepoFullName) {
		errs["repository"] = validation.NewError("docbot.governance.update_approval_table.repository_invalid", "repository must be owner/name")
	}
	if m.PullRequest.Number <= 0 {
		errs["number"] = validation.NewError("docbot.governance.update_approval_table.number_invalid", "pull request number must be greater than zero")
	}
	if strings.TrimSpace(m.Comment) != "" && strings.TrimSpace(m.Actor) == "" {
		errs["actor"] = validation.NewError("docbot.governance.update_approval_table.actor_required", "actor is required for comment decisions")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SyncConfigCommand re-reads the governance file of a repository and stores
// it.
type SyncConfigCommand struct {
	RepoFullName string `json:"repository"`
	Ref          string `json:"ref,omitempty"`
}

// Type implements command.Message.
func (SyncConfigCommand) Type() string { return syncConfigMessageType }

// Validate requires a well formed repository name.
func (m SyncConfigCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RepoFullName, validation.Required, validation.By(func(value any) error {
			if !validRepoName(value.(string)) {
				return validation.NewError("docbot.governance.sync_config.repository_invalid", "repository must be owner/name")
			}
			return nil
		})),
	)
}

func validRepoName(name string) bool {
	_, _, ok := governance.SplitRepoFullName(name)
	return ok
}
