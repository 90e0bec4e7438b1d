package http

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/jobs"
)

const (
	defaultWebhookPath = "/webhooks/github"
	defaultMetricsPath = "/metrics"
	defaultAPIBase     = "/api"
	defaultListLimit   = 50
)

// DeliveryLister lists recorded webhook deliveries.
type DeliveryLister interface {
	List(ctx context.Context) ([]jobs.AuditEvent, error)
}

// ConfigReader returns the persisted governance config of a repository.
type ConfigReader interface {
	Get(ctx context.Context, repoFullName string) (*governance.RepositoryConfig, error)
}

// ConfigSyncer re-reads a repository's governance file and persists it.
type ConfigSyncer interface {
	Sync(ctx context.Context, repoFullName, ref string) (governance.RepositoryConfig, error)
}

// API registers the docbot endpoints.
type API struct {
	apiBase     string
	webhookPath string
	metricsPath string
	webhook     http.Handler
	gatherer    prometheus.Gatherer
	deliveries  DeliveryLister
	configs     ConfigReader
	syncer      ConfigSyncer
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		apiBase:     defaultAPIBase,
		webhookPath: defaultWebhookPath,
		metricsPath: defaultMetricsPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithWebhook mounts handler at path (defaults to "/webhooks/github").
func WithWebhook(path string, handler http.Handler) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.webhookPath = trimmed
		}
		api.webhook = handler
	}
}

// WithMetrics exposes gatherer at path (defaults to "/metrics").
func WithMetrics(path string, gatherer prometheus.Gatherer) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.metricsPath = trimmed
		}
		api.gatherer = gatherer
	}
}

// WithDeliveries wires the delivery listing.
func WithDeliveries(lister DeliveryLister) Option {
	return func(api *API) {
		api.deliveries = lister
	}
}

// WithConfigs wires governance config reads and syncs.
func WithConfigs(reader ConfigReader, syncer ConfigSyncer) Option {
	return func(api *API) {
		api.configs = reader
		api.syncer = syncer
	}
}

// Register attaches the endpoints to the provided mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	if api.webhook != nil {
		mux.Handle(joinPath(api.webhookPath, ""), api.webhook)
	}
	if api.gatherer != nil {
		mux.Handle("GET "+joinPath(api.metricsPath, ""), promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET "+joinPath(api.apiBase, "deliveries"), api.handleDeliveries)
	repoRoot := joinPath(api.apiBase, "repos")
	mux.HandleFunc("GET "+repoRoot+"/{owner}/{repo}/config", api.handleGetConfig)
	mux.HandleFunc("POST "+repoRoot+"/{owner}/{repo}/config/sync", api.handleSyncConfig)
	return nil
}

// Handler returns a fresh mux with the endpoints registered.
func (api *API) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *API) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	if api.deliveries == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	events, err := api.deliveries.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	limit := parseLimit(r.URL.Query().Get("limit"))

	out := make([]jobs.AuditEvent, 0, len(events))
	for _, event := range slices.Backward(events) {
		if status != "" && event.Status != status {
			continue
		}
		if kind != "" && event.Kind != kind {
			continue
		}
		out = append(out, event)
		if len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if api.configs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	cfg, err := api.configs.Get(r.Context(), repoFullName(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (api *API) handleSyncConfig(w http.ResponseWriter, r *http.Request) {
	if api.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	cfg, err := api.syncer.Sync(r.Context(), repoFullName(r), strings.TrimSpace(r.URL.Query().Get("ref")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func repoFullName(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("owner")) + "/" + strings.TrimSpace(r.PathValue("repo"))
}

func parseLimit(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return defaultListLimit
	}
	return parsed
}
