package governancecmd

import (
	"errors"

	"github.com/goliatone/go-docbot/internal/commands"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Services are the collaborators the governance commands drive.
type Services struct {
	Pipeline  PushProcessor
	Approvals ApprovalService
	Config    ConfigSyncer
}

// HandlerSet groups the governance command handlers.
type HandlerSet struct {
	ProcessPush         *ProcessPushHandler
	UpdateApprovalTable *UpdateApprovalTableHandler
	SyncConfig          *SyncConfigHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	sink    ReportSink
	metrics *commands.CommandMetrics
}

// WithReportSink forwards every push report to sink.
func WithReportSink(sink ReportSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithCommandMetrics records executions in metrics.
func WithCommandMetrics(metrics *commands.CommandMetrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// RegisterGovernanceCommands builds the handlers and registers them with reg
// when it is not nil.
func RegisterGovernanceCommands(reg CommandRegistry, services Services, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if services.Pipeline == nil {
		return nil, errors.New("governance command registration: pipeline is nil")
	}
	if services.Approvals == nil {
		return nil, errors.New("governance command registration: approval service is nil")
	}
	if services.Config == nil {
		return nil, errors.New("governance command registration: config syncer is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "governance")
	set := &HandlerSet{
		ProcessPush: NewProcessPushHandler(services.Pipeline, logger, cfg.sink,
			commands.WithTelemetry(commands.MetricsTelemetry[ProcessPushCommand](cfg.metrics, nil))),
		UpdateApprovalTable: NewUpdateApprovalTableHandler(services.Approvals, logger,
			commands.WithTelemetry(commands.MetricsTelemetry[UpdateApprovalTableCommand](cfg.metrics, nil))),
		SyncConfig: NewSyncConfigHandler(services.Config, logger,
			commands.WithTelemetry(commands.MetricsTelemetry[SyncConfigCommand](cfg.metrics, nil))),
	}

	if reg != nil {
		for _, handler := range []any{set.ProcessPush, set.UpdateApprovalTable, set.SyncConfig} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
