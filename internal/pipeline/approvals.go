package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-docbot/internal/approvals"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// PullRequests is the slice of the source API used by the approval workflow.
type PullRequests interface {
	PullRequestBody(ctx context.Context, owner, repo string, number int) (string, error)
	UpdatePullRequestBody(ctx context.Context, owner, repo string, number int, body string) error
	PullRequestFiles(ctx context.Context, owner, repo string, number int) ([]string, error)
}

// PullRequestRef identifies a pull request.
type PullRequestRef struct {
	DeliveryID   string
	RepoFullName string
	Number       int
	HeadSHA      string
}

// ApprovalResult reports what the workflow did to a pull request body.
type ApprovalResult struct {
	Domains []string
	Rows    []approvals.Row
	Updated bool
}

// ApprovalOption customises an ApprovalWorkflow.
type ApprovalOption func(*ApprovalWorkflow)

// WithApprovalLogger sets the workflow logger.
func WithApprovalLogger(logger interfaces.Logger) ApprovalOption {
	return func(w *ApprovalWorkflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithApprovalClock overrides time.Now for decision dates.
func WithApprovalClock(now func() time.Time) ApprovalOption {
	return func(w *ApprovalWorkflow) {
		if now != nil {
			w.now = now
		}
	}
}

// ApprovalWorkflow maintains the approval table of pull requests that touch
// governed paths.
type ApprovalWorkflow struct {
	config ConfigLoader
	prs    PullRequests
	logger interfaces.Logger
	now    func() time.Time
}

// NewApprovalWorkflow builds a workflow. Both collaborators are required.
func NewApprovalWorkflow(config ConfigLoader, prs PullRequests, opts ...ApprovalOption) (*ApprovalWorkflow, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config loader", ErrMissingDependency)
	}
	if prs == nil {
		return nil, fmt.Errorf("%w: pull requests", ErrMissingDependency)
	}
	w := &ApprovalWorkflow{
		config: config,
		prs:    prs,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// SyncRequiredDomains makes sure every domain required by the changed files
// of the pull request has a row. Existing rows keep their decisions; the
// section is created when the body has none.
func (w *ApprovalWorkflow) SyncRequiredDomains(ctx context.Context, pr PullRequestRef) (ApprovalResult, error) {
	owner, repo, ok := governance.SplitRepoFullName(pr.RepoFullName)
	if !ok {
		return ApprovalResult{}, governance.ErrInvalidRepoName
	}
	logger := logging.WithFields(w.logger, map[string]any{
		"repository":  pr.RepoFullName,
		"pull":        pr.Number,
		"delivery_id": pr.DeliveryID,
	})

	files, err := w.prs.PullRequestFiles(ctx, owner, repo, pr.Number)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("list pull request files: %w", err)
	}

	// Rules come from the persisted config. A governance file changed on the
	// head branch takes effect once it is pushed to the default branch.
	cfg := w.config.LoadOrSync(ctx, governance.LoadRequest{RepoFullName: pr.RepoFullName})
	if !cfg.ApprovalRequired || !cfg.DomainApproval {
		logger.Debug("approvals.domains.disabled")
		return ApprovalResult{}, nil
	}

	domains := governance.RequiredDomains(cfg.CrossDomainRules, files)
	if len(domains) == 0 {
		logger.Debug("approvals.domains.none")
		return ApprovalResult{}, nil
	}

	updates := make([]approvals.Update, 0, len(domains))
	for _, domain := range domains {
		updates = append(updates, approvals.Update{Domain: domain})
	}

	result, err := w.merge(ctx, owner, repo, pr.Number, updates, approvals.MergeOptions{
		CreateIfMissing: true,
		AllowAppend:     true,
		DefaultRows:     approvals.PendingRows(domains, nil),
	})
	if err != nil {
		return ApprovalResult{}, err
	}
	result.Domains = domains
	logger.Info("approvals.domains.synced", "domains", strings.Join(domains, ","), "updated", result.Updated)
	return result, nil
}

// ApplyComment records the /approve and /reject decisions of a comment. A
// comment without decisions leaves the pull request untouched.
func (w *ApprovalWorkflow) ApplyComment(ctx context.Context, pr PullRequestRef, actor, comment string) (ApprovalResult, error) {
	decisions := approvals.ParseDecisions(comment)
	if len(decisions) == 0 {
		return ApprovalResult{}, nil
	}
	owner, repo, ok := governance.SplitRepoFullName(pr.RepoFullName)
	if !ok {
		return ApprovalResult{}, governance.ErrInvalidRepoName
	}

	updates := approvals.DecisionUpdates(decisions, actor, w.now().UTC())
	result, err := w.merge(ctx, owner, repo, pr.Number, updates, approvals.MergeOptions{})
	if err != nil {
		if errors.Is(err, approvals.ErrTableNotFound) {
			w.logger.Warn("approvals.decision.no_table", "repository", pr.RepoFullName, "pull", pr.Number, "actor", actor)
		}
		return ApprovalResult{}, err
	}
	w.logger.Info("approvals.decision.applied",
		"repository", pr.RepoFullName,
		"pull", pr.Number,
		"actor", actor,
		"decisions", len(decisions),
	)
	return result, nil
}

func (w *ApprovalWorkflow) merge(ctx context.Context, owner, repo string, number int, updates []approvals.Update, opts approvals.MergeOptions) (ApprovalResult, error) {
	body, err := w.prs.PullRequestBody(ctx, owner, repo, number)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("read pull request body: %w", err)
	}
	merged, err := approvals.Merge(body, updates, opts)
	if err != nil {
		return ApprovalResult{}, err
	}
	result := ApprovalResult{Rows: merged.Rows}
	if merged.Body == body {
		return result, nil
	}
	if err := w.prs.UpdatePullRequestBody(ctx, owner, repo, number, merged.Body); err != nil {
		return ApprovalResult{}, fmt.Errorf("update pull request body: %w", err)
	}
	result.Updated = true
	return result, nil
}
