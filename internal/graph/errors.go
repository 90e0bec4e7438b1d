package graph

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a 404 from Graph. Callers branch on it with errors.Is.
	ErrNotFound = errors.New("graph: not found")
	// ErrMissingCredentials is returned when the app registration is incomplete.
	ErrMissingCredentials = errors.New("graph: tenant, client id and client secret are required")
	// ErrNoDrives is returned when a site exposes no document library at all.
	ErrNoDrives = errors.New("graph: site has no drives")
	// ErrInvalidSiteURL is returned when a site URL has no host.
	ErrInvalidSiteURL = errors.New("graph: invalid site url")
)

// UpstreamError is any non-2xx, non-404 Graph response.
type UpstreamError struct {
	Status   int
	Method   string
	Endpoint string
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graph: %s %s returned %d", e.Method, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("graph: %s %s returned %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

// IsNotFound reports whether err is a Graph 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden reports whether err is a permission failure (401/403).
func IsForbidden(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.Status == http.StatusForbidden || upstream.Status == http.StatusUnauthorized
}

// IsConflict reports whether err is a 409, which Graph returns when a
// folder or item already exists.
func IsConflict(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == http.StatusConflict
}
