package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// TelemetryStatus captures the result category for command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes a command execution outcome.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is invoked after every command execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs command outcomes with logger, or with the handler
// logger when logger is nil.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logger
		if entry == nil {
			entry = info.Logger
		}
		if entry == nil {
			entry = logging.NoOp()
		} else if logger != nil && info.Fields != nil {
			entry = logging.WithFields(entry, info.Fields)
		}
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("command.execute.success", args...)
		case TelemetryStatusContextError:
			entry.Error("command.execute.context_error", append(args, "error", info.Error)...)
		default:
			entry.Error("command.execute.failed", append(args, "error", info.Error)...)
		}
	}
}

// CommandMetrics counts command executions by command and status.
type CommandMetrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewCommandMetrics creates the collectors and registers them with
// registerer when it is not nil.
func NewCommandMetrics(registerer prometheus.Registerer) *CommandMetrics {
	m := &CommandMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docbot",
			Name:      "commands_total",
			Help:      "Command executions by command and status.",
		}, []string{"command", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docbot",
			Name:      "command_duration_seconds",
			Help:      "Command execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
	if registerer != nil {
		registerer.MustRegister(m.executions, m.duration)
	}
	return m
}

// MetricsTelemetry records outcomes in m and then logs them like
// DefaultTelemetry.
func MetricsTelemetry[T command.Message](m *CommandMetrics, logger interfaces.Logger) Telemetry[T] {
	log := DefaultTelemetry[T](logger)
	return func(ctx context.Context, msg T, info TelemetryInfo) {
		if m != nil {
			m.executions.WithLabelValues(info.Command, string(info.Status)).Inc()
			m.duration.WithLabelValues(info.Command).Observe(info.Duration.Seconds())
		}
		log(ctx, msg, info)
	}
}
