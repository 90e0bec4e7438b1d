// Package fixtures holds recorders shared by command handler tests.
package fixtures

import "errors"

// RecordingRegistry captures command handlers passed to RegisterCommand.
type RecordingRegistry struct {
	Handlers []any
	// FailAfter makes registration fail once this many handlers were
	// recorded. Zero never fails.
	FailAfter int
}

// ErrRegistrationRefused is returned once FailAfter is reached.
var ErrRegistrationRefused = errors.New("fixtures: registration refused")

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// RegisterCommand records handler.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.FailAfter > 0 && len(r.Handlers) >= r.FailAfter {
		return ErrRegistrationRefused
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
