package runtimeconfig

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvGitHubAppID          = "GITHUB_APP_ID"
	EnvGitHubPrivateKey     = "GITHUB_APP_PRIVATE_KEY"
	EnvGitHubInstallationID = "GITHUB_APP_INSTALLATION_ID"
	EnvGitHubToken          = "GITHUB_TOKEN"
	EnvGitHubWebhookSecret  = "GITHUB_WEBHOOK_SECRET"
	EnvAzureTenant          = "AZURE_TENANT"
	EnvAzureClientID        = "AZURE_CLIENT_ID"
	EnvAzureClientSecret    = "AZURE_CLIENT_SECRET"
	EnvDatabaseDSN          = "DOCBOT_DATABASE_DSN"
	EnvDatabaseDriver       = "DOCBOT_DATABASE_DRIVER"
	EnvNATSURL              = "DOCBOT_NATS_URL"
	EnvServerAddr           = "DOCBOT_ADDR"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads path over DefaultConfig and applies environment overrides. An
// empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("docbot config: read %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("docbot config: %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges YAML data into cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg with the variables lookup reports as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	id := func(key string, target *int64) error {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("docbot config: %s: %w", key, err)
		}
		*target = parsed
		return nil
	}

	if err := id(EnvGitHubAppID, &cfg.GitHub.AppID); err != nil {
		return err
	}
	if err := id(EnvGitHubInstallationID, &cfg.GitHub.InstallationID); err != nil {
		return err
	}
	if value, ok := lookup(EnvGitHubPrivateKey); ok && strings.TrimSpace(value) != "" {
		key, err := DecodePrivateKey(value)
		if err != nil {
			return fmt.Errorf("docbot config: %s: %w", EnvGitHubPrivateKey, err)
		}
		cfg.GitHub.PrivateKey = key
	}
	str(EnvGitHubToken, &cfg.GitHub.Token)
	str(EnvGitHubWebhookSecret, &cfg.GitHub.WebhookSecret)
	str(EnvAzureTenant, &cfg.Graph.TenantID)
	str(EnvAzureClientID, &cfg.Graph.ClientID)
	str(EnvAzureClientSecret, &cfg.Graph.ClientSecret)
	str(EnvDatabaseDriver, &cfg.Storage.Driver)
	str(EnvDatabaseDSN, &cfg.Storage.DSN)
	str(EnvNATSURL, &cfg.Events.NATSURL)
	str(EnvServerAddr, &cfg.Server.Addr)
	return nil
}

// DecodePrivateKey accepts a PEM block as is, or its base64 encoding.
func DecodePrivateKey(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "-----BEGIN") {
		return value, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}
	if !strings.Contains(string(decoded), "-----BEGIN") {
		return "", errors.New("decoded value is not a PEM block")
	}
	return string(decoded), nil
}
