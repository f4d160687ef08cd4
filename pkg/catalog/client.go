package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/warnings"
)

// DefaultTimeout bounds a single HTTP attempt when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
//
// Fields:
//   - ReleaseIndexURL: URL of the primary release index
//   - AlternateIndexURL: URL of the alternate-build index
//   - UserAgent: Value of the User-Agent header
//   - Token: Bearer token sent to GitHub hosts only; empty disables auth
//   - Timeout: Per-attempt timeout; zero uses DefaultTimeout
//   - MaxRetries: Retries after the first attempt on transient failures
//   - InitialInterval: First backoff delay; zero uses the backoff default
type Options struct {
	ReleaseIndexURL   string
	AlternateIndexURL string
	UserAgent         string
	Token             string
	Timeout           time.Duration
	MaxRetries        int
	InitialInterval   time.Duration
}

// Client fetches release indexes over HTTP.
type Client struct {
	opts Options
	http *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// NewClient creates a Client. A nil httpClient uses a client with opts.Timeout.
func NewClient(opts Options, httpClient *http.Client) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, http: httpClient}
}

// Releases fetches and decodes the primary release index.
func (c *Client) Releases(ctx context.Context) ([]Release, error) {
	var releases []Release
	if err := c.getJSON(ctx, c.opts.ReleaseIndexURL, &releases); err != nil {
		return nil, fmt.Errorf("fetch release index: %w", err)
	}
	verbose.Printf("Release index: %d records from %s", len(releases), c.opts.ReleaseIndexURL)
	return releases, nil
}

// Entries fetches and decodes the alternate-build index.
func (c *Client) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := c.getJSON(ctx, c.opts.AlternateIndexURL, &entries); err != nil {
		return nil, fmt.Errorf("fetch alternate-build index: %w", err)
	}
	verbose.Printf("Alternate-build index: %d records from %s", len(entries), c.opts.AlternateIndexURL)
	return entries, nil
}

// getJSON performs a GET with retries and decodes the body into out.
//
// Network errors, 429 and 5xx responses are retried with exponential backoff
// up to MaxRetries times. Other non-2xx responses and decode failures are
// permanent.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("index URL is empty")
	}

	attempt := 0
	op := func() error {
		attempt++
		body, err := c.get(ctx, rawURL)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !retryable(statusErr.StatusCode) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", rawURL, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		warnings.Warnf("Warning: attempt %d for %s failed: %v (retrying in %s)\n", attempt, rawURL, err, wait.Round(time.Millisecond))
	}

	return backoff.RetryNotify(op, c.backOff(ctx), notify)
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if c.opts.InitialInterval > 0 {
		exp.InitialInterval = c.opts.InitialInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.opts.MaxRetries)), ctx)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.Token != "" && isGitHubHost(rawURL) {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	verbose.Printf("GET %s", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func isGitHubHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com") || host == "api.github.com"
}

// UserAgent formats the User-Agent header value for a build version.
func UserAgent(version string) string {
	return fmt.Sprintf("releasewatch/%s", version)
}
