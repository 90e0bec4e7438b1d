package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	// DefaultScope requests the application permissions granted to the app registration.
	DefaultScope   = "https://graph.microsoft.com/.default"
	defaultTimeout = 30 * time.Second
	// tokens are refreshed this long before they expire
	tokenExpiryBuffer = 5 * time.Minute
	maxErrorBodySize  = 4096
	acceptHeader      = "application/json;odata.metadata=none"
)

// Config holds the app registration used for client credential auth.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTokenSource bypasses client credential auth, mostly for tests.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) {
		if source != nil {
			c.tokens = source
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is a thin Microsoft Graph client covering sites, drives and pages.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     interfaces.Logger
}

// NewClient builds a Graph client. Missing credentials are a configuration
// error unless a token source was injected.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    strings.TrimRight(firstNonEmpty(cfg.BaseURL, DefaultBaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.tokens == nil {
		source, err := newTokenSource(cfg, client.httpClient)
		if err != nil {
			return nil, err
		}
		client.tokens = source
	}

	return client, nil
}

func newTokenSource(cfg Config, httpClient *http.Client) (oauth2.TokenSource, error) {
	if strings.TrimSpace(cfg.TenantID) == "" || strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrMissingCredentials
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://login.microsoftonline.com/" + cfg.TenantID + "/oauth2/v2.0/token"
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{DefaultScope},
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return oauth2.ReuseTokenSourceWithExpiry(nil, creds.TokenSource(ctx), tokenExpiryBuffer), nil
}

// request describes one Graph call.
type request struct {
	method      string
	endpoint    string
	body        io.Reader
	contentType string
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out any) error {
	req := request{method: method, endpoint: endpoint}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("graph: encode %s %s: %w", method, endpoint, err)
		}
		req.body = bytes.NewReader(encoded)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("graph: acquire token: %w", err)
	}

	target := r.endpoint
	if !strings.HasPrefix(target, "https://") && !strings.HasPrefix(target, "http://") {
		target = c.baseURL + target
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return fmt.Errorf("graph: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)
	httpReq.Header.Set("Accept", acceptHeader)
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("graph: %s %s: %w", r.method, r.endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Trace("graph.request", "method", r.method, "endpoint", r.endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s %s", ErrNotFound, r.method, r.endpoint)
		}
		return &UpstreamError{
			Status:   resp.StatusCode,
			Method:   r.method,
			Endpoint: r.endpoint,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("graph: decode %s %s: %w", r.method, r.endpoint, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
