package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docbot/internal/approvals"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/source"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
	upstreamFailedCode      = "UPSTREAM_REQUEST_FAILED"
	resourceNotFoundCode    = "RESOURCE_NOT_FOUND"
	configInvalidCode       = "GOVERNANCE_CONFIG_INVALID"
	approvalTableMissing    = "APPROVAL_TABLE_NOT_FOUND"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError maps domain failures onto go-errors categories.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	var upstream *graph.UpstreamError
	var invalid *governance.ValidationError
	switch {
	case errors.As(err, &upstream):
		return goerrors.Wrap(err, goerrors.CategoryExternal, "upstream request failed").
			WithTextCode(upstreamFailedCode).
			WithCode(upstream.Status)
	case errors.As(err, &invalid), errors.Is(err, governance.ErrConfigInvalid), errors.Is(err, governance.ErrConfigUnparsable):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "governance config is invalid").
			WithTextCode(configInvalidCode)
	case errors.Is(err, graph.ErrNotFound), errors.Is(err, source.ErrNotFound), errors.Is(err, governance.ErrConfigFileMissing):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "resource not found").
			WithTextCode(resourceNotFoundCode)
	case errors.Is(err, approvals.ErrTableNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "approval table not found").
			WithTextCode(approvalTableMissing)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
