package governancecmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-docbot/internal/commands"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/pipeline"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ErrDocumentsFailed is returned by the push handler when at least one
// document failed. The remaining documents were still processed.
var ErrDocumentsFailed = errors.New("governance: documents failed")

// PushProcessor runs the documentation pipeline.
type PushProcessor interface {
	ProcessPush(ctx context.Context, event pipeline.PushEvent) pipeline.Report
}

// ApprovalService maintains approval tables.
type ApprovalService interface {
	SyncRequiredDomains(ctx context.Context, pr pipeline.PullRequestRef) (pipeline.ApprovalResult, error)
	ApplyComment(ctx context.Context, pr pipeline.PullRequestRef, actor, comment string) (pipeline.ApprovalResult, error)
}

// ConfigSyncer re-reads a governance file.
type ConfigSyncer interface {
	Sync(ctx context.Context, repoFullName, ref string) (governance.RepositoryConfig, error)
}

// ReportSink receives every push report.
type ReportSink func(pipeline.Report)

// ProcessPushHandler runs the pipeline and fails when any document failed.
type ProcessPushHandler struct {
	inner *commands.Handler[ProcessPushCommand]
}

// NewProcessPushHandler wires a handler to processor. sink may be nil.
func NewProcessPushHandler(processor PushProcessor, logger interfaces.Logger, sink ReportSink, opts ...commands.HandlerOption[ProcessPushCommand]) *ProcessPushHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg ProcessPushCommand) error {
		report := processor.ProcessPush(ctx, msg.Event)
		if sink != nil {
			sink(report)
		}
		if failed := report.Count(pipeline.ActionFailed); failed > 0 {
			return fmt.Errorf("%w: %d of %d", ErrDocumentsFailed, failed, len(report.Outcomes))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ProcessPushCommand]{
		commands.WithLogger[ProcessPushCommand](logger),
		commands.WithOperation[ProcessPushCommand]("governance.process_push"),
		commands.WithTimeout[ProcessPushCommand](0),
		commands.WithMessageFields(func(msg ProcessPushCommand) map[string]any {
			return map[string]any{
				"repository":  msg.Event.RepoFullName,
				"delivery_id": msg.Event.DeliveryID,
				"ref":         msg.Event.ContentRef(),
			}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)
	return &ProcessPushHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ProcessPushCommand].
func (h *ProcessPushHandler) Execute(ctx context.Context, msg ProcessPushCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UpdateApprovalTableHandler syncs domains or applies comment decisions.
type UpdateApprovalTableHandler struct {
	inner *commands.Handler[UpdateApprovalTableCommand]
}

// NewUpdateApprovalTableHandler wires a handler to service.
func NewUpdateApprovalTableHandler(service ApprovalService, logger interfaces.Logger, opts ...commands.HandlerOption[UpdateApprovalTableCommand]) *UpdateApprovalTableHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg UpdateApprovalTableCommand) error {
		var err error
		if msg.Comment == "" {
			_, err = service.SyncRequiredDomains(ctx, msg.PullRequest)
		} else {
			_, err = service.ApplyComment(ctx, msg.PullRequest, msg.Actor, msg.Comment)
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[UpdateApprovalTableCommand]{
		commands.WithLogger[UpdateApprovalTableCommand](logger),
		commands.WithOperation[UpdateApprovalTableCommand]("governance.update_approval_table"),
		commands.WithMessageFields(func(msg UpdateApprovalTableCommand) map[string]any {
			fields := map[string]any{
				"repository": msg.PullRequest.RepoFullName,
				"pull":       msg.PullRequest.Number,
			}
			if msg.Actor != "" {
				fields["actor"] = msg.Actor
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)
	return &UpdateApprovalTableHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[UpdateApprovalTableCommand].
func (h *UpdateApprovalTableHandler) Execute(ctx context.Context, msg UpdateApprovalTableCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SyncConfigHandler re-reads the governance file of a repository.
type SyncConfigHandler struct {
	inner *commands.Handler[SyncConfigCommand]
}

// NewSyncConfigHandler wires a handler to syncer.
func NewSyncConfigHandler(syncer ConfigSyncer, logger interfaces.Logger, opts ...commands.HandlerOption[SyncConfigCommand]) *SyncConfigHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg SyncConfigCommand) error {
		_, err := syncer.Sync(ctx, msg.RepoFullName, msg.Ref)
		return err
	}

	handlerOpts := []commands.HandlerOption[SyncConfigCommand]{
		commands.WithLogger[SyncConfigCommand](logger),
		commands.WithOperation[SyncConfigCommand]("governance.sync_config"),
		commands.WithMessageFields(func(msg SyncConfigCommand) map[string]any {
			return map[string]any{"repository": msg.RepoFullName, "ref": msg.Ref}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)
	return &SyncConfigHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SyncConfigCommand].
func (h *SyncConfigHandler) Execute(ctx context.Context, msg SyncConfigCommand) error {
	return h.inner.Execute(ctx, msg)
}
