package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-docbot/internal/pdf"
)

var (
	ErrServerAddrRequired     = errors.New("docbot config: server address is required")
	ErrWebhookSecretRequired  = errors.New("docbot config: github webhook secret is required")
	ErrGitHubCredentials      = errors.New("docbot config: github token or app id, installation id and private key are required")
	ErrGraphCredentials       = errors.New("docbot config: graph tenant, client id and client secret are required")
	ErrStorageDriverUnknown   = errors.New("docbot config: storage driver is invalid")
	ErrStorageDSNRequired     = errors.New("docbot config: storage dsn is required for sql drivers")
	ErrWorkersInvalid         = errors.New("docbot config: server workers and queue size must be positive")
	ErrDocumentTimeoutInvalid = errors.New("docbot config: pipeline document timeout must be positive")
	ErrRetriesInvalid         = errors.New("docbot config: pipeline retries must not be negative")
	ErrLoggingProviderUnknown = errors.New("docbot config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("docbot config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("docbot config: logging format is invalid")
	ErrPDFOrientationInvalid  = errors.New("docbot config: pdf orientation must be portrait or landscape")
	ErrMetricsPathInvalid     = errors.New("docbot config: metrics path must start with /")
	ErrEventsClientName       = errors.New("docbot config: events client name is required when nats is configured")
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates every runtime setting of the bot.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	GitHub   GitHubConfig   `yaml:"github"`
	Graph    GraphConfig    `yaml:"graph"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	PDF      PDFConfig      `yaml:"pdf"`
	Events   EventsConfig   `yaml:"events"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig controls the webhook listener and its worker queue.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WebhookPath     string        `yaml:"webhook_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	AuditSize       int           `yaml:"audit_size"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// GitHubConfig holds app credentials. A Token, when set, replaces app
// authentication.
type GitHubConfig struct {
	AppID          int64         `yaml:"app_id"`
	InstallationID int64         `yaml:"installation_id"`
	PrivateKey     string        `yaml:"private_key"`
	Token          string        `yaml:"token"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

// GraphConfig holds the client credentials for Microsoft Graph.
type GraphConfig struct {
	TenantID     string        `yaml:"tenant_id"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// StorageConfig selects where governance configs are kept.
type StorageConfig struct {
	Driver      string      `yaml:"driver"`
	DSN         string      `yaml:"dsn"`
	AutoMigrate bool        `yaml:"auto_migrate"`
	Cache       CacheConfig `yaml:"cache"`
}

// CacheConfig toggles the read-through cache in front of SQL storage.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// PipelineConfig tunes document processing.
type PipelineConfig struct {
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	RenderPDF       bool          `yaml:"render_pdf"`
	// Retries re-runs a failed command through the dispatcher this many
	// times.
	Retries int `yaml:"retries"`
}

// PDFConfig holds brand resources and the page template.
type PDFConfig struct {
	pdf.Config  `yaml:",inline"`
	PageSize    string     `yaml:"page_size"`
	Orientation string     `yaml:"orientation"`
	Margins     [4]float64 `yaml:"margins"`
	Header      *pdf.Band  `yaml:"header"`
	Footer      *pdf.Band  `yaml:"footer"`
}

// Options converts the template into render options.
func (c PDFConfig) Options() pdf.Options {
	opts := pdf.DefaultOptions()
	if strings.TrimSpace(c.PageSize) != "" {
		opts.PageSize = c.PageSize
	}
	if strings.TrimSpace(c.Orientation) != "" {
		opts.Orientation = c.Orientation
	}
	if c.Margins != ([4]float64{}) {
		opts.Margins = c.Margins
	}
	opts.Header = c.Header
	opts.Footer = c.Footer
	return opts
}

// EventsConfig enables outcome events on NATS when NATSURL is set.
type EventsConfig struct {
	NATSURL    string `yaml:"nats_url"`
	ClientName string `yaml:"client_name"`
}

// MetricsConfig exposes Prometheus metrics on Path.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns settings suitable for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			WebhookPath:     "/webhooks/github",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Workers:         2,
			QueueSize:       64,
			AuditSize:       200,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		GitHub: GitHubConfig{
			Timeout: 30 * time.Second,
		},
		Graph: GraphConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			AutoMigrate: true,
			Cache: CacheConfig{
				TTL: 5 * time.Minute,
			},
		},
		Pipeline: PipelineConfig{
			DocumentTimeout: 2 * time.Minute,
			RenderPDF:       true,
		},
		PDF: PDFConfig{
			PageSize:    "A4",
			Orientation: "portrait",
		},
		Events: EventsConfig{
			ClientName: "docbot",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the settings the offline commands need. ValidateServe adds
// the credential checks of the webhook server.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Driver) {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if cfg.Pipeline.DocumentTimeout <= 0 {
		return ErrDocumentTimeoutInvalid
	}
	if cfg.Pipeline.Retries < 0 {
		return ErrRetriesInvalid
	}
	if o := normalize(cfg.PDF.Orientation); o != "" && o != "portrait" && o != "landscape" {
		return fmt.Errorf("%w: %s", ErrPDFOrientationInvalid, cfg.PDF.Orientation)
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("%w: %q", ErrMetricsPathInvalid, cfg.Metrics.Path)
	}
	if cfg.Events.NATSURL != "" && strings.TrimSpace(cfg.Events.ClientName) == "" {
		return ErrEventsClientName
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// ValidateServe runs Validate and then requires everything the webhook
// server talks to.
func (cfg Config) ValidateServe() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if cfg.Server.Workers <= 0 || cfg.Server.QueueSize <= 0 {
		return ErrWorkersInvalid
	}
	if strings.TrimSpace(cfg.GitHub.WebhookSecret) == "" {
		return ErrWebhookSecretRequired
	}
	gh := cfg.GitHub
	if strings.TrimSpace(gh.Token) == "" && (gh.AppID == 0 || gh.InstallationID == 0 || strings.TrimSpace(gh.PrivateKey) == "") {
		return ErrGitHubCredentials
	}
	g := cfg.Graph
	if strings.TrimSpace(g.TenantID) == "" || strings.TrimSpace(g.ClientID) == "" || strings.TrimSpace(g.ClientSecret) == "" {
		return ErrGraphCredentials
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "none":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
