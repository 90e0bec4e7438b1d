package docbot

import "github.com/goliatone/go-docbot/internal/runtimeconfig"

var (
	ErrServerAddrRequired     = runtimeconfig.ErrServerAddrRequired
	ErrWebhookSecretRequired  = runtimeconfig.ErrWebhookSecretRequired
	ErrGitHubCredentials      = runtimeconfig.ErrGitHubCredentials
	ErrGraphCredentials       = runtimeconfig.ErrGraphCredentials
	ErrStorageDriverUnknown   = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired     = runtimeconfig.ErrStorageDSNRequired
	ErrWorkersInvalid         = runtimeconfig.ErrWorkersInvalid
	ErrDocumentTimeoutInvalid = runtimeconfig.ErrDocumentTimeoutInvalid
	ErrRetriesInvalid         = runtimeconfig.ErrRetriesInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrPDFOrientationInvalid  = runtimeconfig.ErrPDFOrientationInvalid
	ErrMetricsPathInvalid     = runtimeconfig.ErrMetricsPathInvalid
	ErrEventsClientName       = runtimeconfig.ErrEventsClientName
)

type (
	Config         = runtimeconfig.Config
	ServerConfig   = runtimeconfig.ServerConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	GitHubConfig   = runtimeconfig.GitHubConfig
	GraphConfig    = runtimeconfig.GraphConfig
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	PipelineConfig = runtimeconfig.PipelineConfig
	PDFConfig      = runtimeconfig.PDFConfig
	EventsConfig   = runtimeconfig.EventsConfig
	MetricsConfig  = runtimeconfig.MetricsConfig
)

// DefaultConfig returns settings suitable for local development.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over the defaults and applies environment
// overrides.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
