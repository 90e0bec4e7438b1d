package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-docbot/pkg/interfaces"
)

type fieldsRecorder struct {
	fields []map[string]any
	errors []string
	infos  []string
}

func (r *fieldsRecorder) Trace(string, ...any)                          {}
func (r *fieldsRecorder) Debug(string, ...any)                          {}
func (r *fieldsRecorder) Info(msg string, _ ...any)                     { r.infos = append(r.infos, msg) }
func (r *fieldsRecorder) Warn(string, ...any)                           {}
func (r *fieldsRecorder) Error(msg string, _ ...any)                    { r.errors = append(r.errors, msg) }
func (r *fieldsRecorder) Fatal(string, ...any)                          {}
func (r *fieldsRecorder) WithContext(context.Context) interfaces.Logger { return r }

func (r *fieldsRecorder) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, fields)
	return r
}

func TestDefaultTelemetryAttachesFields(t *testing.T) {
	rec := &fieldsRecorder{}
	telemetry := DefaultTelemetry[testMessage](rec)

	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Status: TelemetryStatusFailed,
		Fields: map[string]any{"repository": "acme/policies"},
		Error:  errors.New("graph down"),
	})

	if len(rec.fields) != 1 || rec.fields[0]["repository"] != "acme/policies" {
		t.Fatalf("expected fields to be attached, got %v", rec.fields)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "command.execute.failed" {
		t.Fatalf("expected failure log, got %v", rec.errors)
	}
}

func TestDefaultTelemetryFallsBackToHandlerLogger(t *testing.T) {
	rec := &fieldsRecorder{}
	telemetry := DefaultTelemetry[testMessage](nil)

	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Status: TelemetryStatusSuccess,
		Fields: map[string]any{"repository": "acme/policies"},
		Logger: rec,
	})

	if len(rec.fields) != 0 {
		t.Fatalf("handler logger already carries fields, got %v", rec.fields)
	}
	if len(rec.infos) != 1 || rec.infos[0] != "command.execute.success" {
		t.Fatalf("expected success log, got %v", rec.infos)
	}
}
