package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/source"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []governance.ValidationIssue `json:"issues,omitempty"`
}

// joinPath joins route segments into a rooted path without a trailing slash.
func joinPath(base, suffix string) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{base, suffix} {
		if trimmed := strings.Trim(strings.TrimSpace(part), "/"); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return "/" + strings.Join(parts, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	message := err.Error()

	var validationErr *governance.ValidationError
	var upstream *graph.UpstreamError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Message: message, Issues: validationErr.Issues}
	case errors.Is(err, governance.ErrConfigUnparsable):
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Message: message}
	case errors.Is(err, governance.ErrConfigNotFound),
		errors.Is(err, governance.ErrConfigFileMissing),
		errors.Is(err, source.ErrNotFound),
		errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: message}
	case errors.Is(err, governance.ErrInvalidRepoName), errors.Is(err, governance.ErrRepoNameRequired):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, errorResponse{Error: "upstream_error", Message: message}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: message}
	}
}
