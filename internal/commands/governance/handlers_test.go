package governancecmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docbot/internal/commands/fixtures"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/pipeline"
)

type stubPipeline struct {
	report pipeline.Report
	events []pipeline.PushEvent
}

func (s *stubPipeline) ProcessPush(_ context.Context, event pipeline.PushEvent) pipeline.Report {
	s.events = append(s.events, event)
	return s.report
}

type stubApprovals struct {
	synced   []pipeline.PullRequestRef
	comments []string
	err      error
}

func (s *stubApprovals) SyncRequiredDomains(_ context.Context, pr pipeline.PullRequestRef) (pipeline.ApprovalResult, error) {
	s.synced = append(s.synced, pr)
	return pipeline.ApprovalResult{}, s.err
}

func (s *stubApprovals) ApplyComment(_ context.Context, _ pipeline.PullRequestRef, actor, comment string) (pipeline.ApprovalResult, error) {
	s.comments = append(s.comments, actor+":"+comment)
	return pipeline.ApprovalResult{}, s.err
}

type stubSyncer struct {
	repos []string
	err   error
}

func (s *stubSyncer) Sync(_ context.Context, repo, _ string) (governance.RepositoryConfig, error) {
	s.repos = append(s.repos, repo)
	return governance.DefaultConfig(repo), s.err
}

func validPush() pipeline.PushEvent {
	return pipeline.PushEvent{DeliveryID: "d-1", RepoFullName: "acme/policies", Ref: "refs/heads/main", After: "abc"}
}

func TestProcessPushHandlerReportsFailures(t *testing.T) {
	stub := &stubPipeline{report: pipeline.Report{Outcomes: []pipeline.Outcome{
		{Action: pipeline.ActionPublished},
		{Action: pipeline.ActionFailed},
	}}}
	var reports []pipeline.Report
	handler := NewProcessPushHandler(stub, nil, func(r pipeline.Report) { reports = append(reports, r) })

	err := handler.Execute(context.Background(), ProcessPushCommand{Event: validPush()})
	if !errors.Is(err, ErrDocumentsFailed) {
		t.Fatalf("expected ErrDocumentsFailed, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(reports) != 1 || len(stub.events) != 1 {
		t.Fatalf("expected report forwarded once")
	}

	stub.report = pipeline.Report{Outcomes: []pipeline.Outcome{{Action: pipeline.ActionSkipped}}}
	if err := handler.Execute(context.Background(), ProcessPushCommand{Event: validPush()}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestProcessPushCommandValidation(t *testing.T) {
	handler := NewProcessPushHandler(&stubPipeline{}, nil, nil)
	err := handler.Execute(context.Background(), ProcessPushCommand{Event: pipeline.PushEvent{RepoFullName: "acme"}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestUpdateApprovalTableHandlerRoutesByComment(t *testing.T) {
	stub := &stubApprovals{}
	handler := NewUpdateApprovalTableHandler(stub, nil)
	pr := pipeline.PullRequestRef{RepoFullName: "acme/policies", Number: 3}

	if err := handler.Execute(context.Background(), UpdateApprovalTableCommand{PullRequest: pr}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := handler.Execute(context.Background(), UpdateApprovalTableCommand{PullRequest: pr, Actor: "@bob", Comment: "/approve Legal"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if len(stub.synced) != 1 || len(stub.comments) != 1 || stub.comments[0] != "@bob:/approve Legal" {
		t.Fatalf("unexpected routing %+v", stub)
	}

	err := handler.Execute(context.Background(), UpdateApprovalTableCommand{PullRequest: pr, Comment: "/approve Legal"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("comment without actor should fail validation, got %v", err)
	}
	err = handler.Execute(context.Background(), UpdateApprovalTableCommand{PullRequest: pipeline.PullRequestRef{RepoFullName: "acme/policies"}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("missing number should fail validation, got %v", err)
	}
}

func TestSyncConfigHandler(t *testing.T) {
	syncer := &stubSyncer{err: governance.ErrConfigFileMissing}
	handler := NewSyncConfigHandler(syncer, nil)

	err := handler.Execute(context.Background(), SyncConfigCommand{RepoFullName: "acme/policies"})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
	if err := handler.Execute(context.Background(), SyncConfigCommand{RepoFullName: "bad//name"}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(syncer.repos) != 1 {
		t.Fatalf("invalid command must not reach the syncer")
	}
}

func TestRegisterGovernanceCommands(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	set, err := RegisterGovernanceCommands(reg, Services{
		Pipeline:  &stubPipeline{},
		Approvals: &stubApprovals{},
		Config:    &stubSyncer{},
	}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.Handlers) != 3 || set.ProcessPush == nil || set.SyncConfig == nil {
		t.Fatalf("expected three registered handlers, got %d", len(reg.Handlers))
	}

	failing := &fixtures.RecordingRegistry{FailAfter: 1}
	if _, err := RegisterGovernanceCommands(failing, Services{
		Pipeline:  &stubPipeline{},
		Approvals: &stubApprovals{},
		Config:    &stubSyncer{},
	}, nil); !errors.Is(err, fixtures.ErrRegistrationRefused) {
		t.Fatalf("expected registration error, got %v", err)
	}

	if _, err := RegisterGovernanceCommands(nil, Services{}, nil); err == nil {
		t.Fatalf("expected error for missing services")
	}
}
