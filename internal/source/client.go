package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

const (
	defaultTimeout = 30 * time.Second
	encodingNone   = "none"
)

var (
	// ErrNotFound marks a missing repository path. Fetch methods translate it
	// into a nil result; it is exported for callers wrapping other endpoints.
	ErrNotFound = errors.New("source: not found")
	// ErrMissingCredentials is returned when neither a token nor a complete
	// GitHub App installation is configured.
	ErrMissingCredentials = errors.New("source: github app id, installation id and private key are required")
	// ErrNotAFile is returned when a path resolves to a directory.
	ErrNotAFile = errors.New("source: path is a directory")
)

// TextFile is a decoded text file at a commit.
type TextFile struct {
	Path    string
	Content string
	SHA     string
}

// BinaryFile is a raw file at a commit.
type BinaryFile struct {
	Path    string
	Content []byte
	SHA     string
}

// Config selects how the client authenticates. A Token wins over App
// credentials.
type Config struct {
	AppID          int64
	InstallationID int64
	PrivateKey     []byte
	Token          string
	BaseURL        string
	Timeout        time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client reads repository content and edits pull requests on GitHub.
type Client struct {
	gh     *github.Client
	logger interfaces.Logger
}

// NewGitHubClient authenticates as a GitHub App installation, or with a
// static token when one is configured.
func NewGitHubClient(cfg Config, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var httpClient *http.Client
	switch {
	case strings.TrimSpace(cfg.Token) != "":
		httpClient = &http.Client{Timeout: timeout}
	case cfg.AppID > 0 && cfg.InstallationID > 0 && len(cfg.PrivateKey) > 0:
		transport, err := ghinstallation.New(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("source: github app transport: %w", err)
		}
		if base := strings.TrimSpace(cfg.BaseURL); base != "" {
			transport.BaseURL = strings.TrimRight(base, "/")
		}
		httpClient = &http.Client{Transport: transport, Timeout: timeout}
	default:
		return nil, ErrMissingCredentials
	}

	gh := github.NewClient(httpClient)
	if token := strings.TrimSpace(cfg.Token); token != "" {
		gh = gh.WithAuthToken(token)
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		enterprise, err := gh.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("source: base url: %w", err)
		}
		gh = enterprise
	}
	return NewClient(gh, opts...), nil
}

// NewClient wraps an already configured go-github client.
func NewClient(gh *github.Client, opts ...Option) *Client {
	c := &Client{gh: gh, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FetchFileContent returns the text of path at ref. A missing file yields
// (nil, nil); every other failure is returned.
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path, ref string) (*TextFile, error) {
	data, sha, err := c.fetch(ctx, owner, repo, path, ref)
	if err != nil || data == nil {
		return nil, err
	}
	return &TextFile{Path: path, Content: string(data), SHA: sha}, nil
}

// FetchBinaryContent is FetchFileContent for raw bytes.
func (c *Client) FetchBinaryContent(ctx context.Context, owner, repo, path, ref string) (*BinaryFile, error) {
	data, sha, err := c.fetch(ctx, owner, repo, path, ref)
	if err != nil || data == nil {
		return nil, err
	}
	return &BinaryFile{Path: path, Content: data, SHA: sha}, nil
}

func (c *Client) fetch(ctx context.Context, owner, repo, path, ref string) ([]byte, string, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if isNotFound(resp, err) {
			c.logger.Debug("source.file.not_found", "repository", owner+"/"+repo, "path", path, "ref", ref)
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("source: get %s/%s %s: %w", owner, repo, path, err)
	}
	if file == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	// files over 1MB come back without inline content
	if file.GetEncoding() == encodingNone || (file.Content == nil && file.GetSize() > 0) {
		data, resp, err := c.gh.Git.GetBlobRaw(ctx, owner, repo, file.GetSHA())
		if err != nil {
			if isNotFound(resp, err) {
				return nil, "", nil
			}
			return nil, "", fmt.Errorf("source: get blob %s: %w", file.GetSHA(), err)
		}
		return data, file.GetSHA(), nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("source: decode %s: %w", path, err)
	}
	return []byte(content), file.GetSHA(), nil
}

// PullRequestBody returns the description of a pull request.
func (c *Client) PullRequestBody(ctx context.Context, owner, repo string, number int) (string, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		if isNotFound(resp, err) {
			return "", fmt.Errorf("%w: pull request %d", ErrNotFound, number)
		}
		return "", fmt.Errorf("source: get pull request %d: %w", number, err)
	}
	return pr.GetBody(), nil
}

// UpdatePullRequestBody replaces the description of a pull request.
func (c *Client) UpdatePullRequestBody(ctx context.Context, owner, repo string, number int, body string) error {
	if _, _, err := c.gh.PullRequests.Edit(ctx, owner, repo, number, &github.PullRequest{Body: github.Ptr(body)}); err != nil {
		return fmt.Errorf("source: edit pull request %d: %w", number, err)
	}
	return nil
}

// PullRequestFiles lists every path changed by a pull request.
func (c *Client) PullRequestFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var files []string
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("source: list files of pull request %d: %w", number, err)
		}
		for _, file := range page {
			files = append(files, file.GetFilename())
		}
		if resp == nil || resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateComment posts a comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	if _, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: github.Ptr(body)}); err != nil {
		return fmt.Errorf("source: comment on %d: %w", number, err)
	}
	return nil
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}
