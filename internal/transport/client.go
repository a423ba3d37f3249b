// Package transport is the single point of contact with the platform's HTTP
// API. It owns the bearer token and applies the retry and re-authentication
// rules to every request.
package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/retry"
)

// Config configures a Client.
type Config struct {
	// AuthURL is the base URL of the login service.
	AuthURL string

	// APIURL is the base URL every request path is appended to.
	APIURL string

	// LoginPath is the credential exchange endpoint under AuthURL.
	LoginPath string

	// Credentials are exchanged for a bearer token on first use.
	Credentials Credentials

	// TokenTTL is how long a token is trusted after issuance.
	TokenTTL time.Duration

	// AuthRetries bounds re-authentications triggered by 401/403 per request.
	AuthRetries int

	// Retry governs network failures, 5xx and 429 responses. Nil selects
	// retry.Default; a policy with MaxRetries 0 sends each request once.
	Retry *retry.Policy

	// Timeout for a single HTTP attempt.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient overrides the underlying client (tests, proxies).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration pointing at the production platform.
func DefaultConfig() Config {
	return Config{
		AuthURL:     constants.DefaultAuthURL,
		APIURL:      constants.DefaultAPIURL,
		LoginPath:   constants.LoginPath,
		TokenTTL:    constants.TokenTTL,
		AuthRetries: constants.MaxAuthRetries,
		Retry:       defaultRetry(),
		Timeout:     constants.DefaultHTTPTimeout,
		UserAgent:   constants.UserAgent,
	}
}

func defaultRetry() *retry.Policy {
	p := retry.Default()
	return &p
}

// Client provides authenticated, retried access to the platform.
// It is safe for concurrent use.
type Client struct {
	config Config
	http   *http.Client
	auth   Authenticator
	now    func() time.Time

	mu       sync.RWMutex
	token    string
	issuedAt time.Time
	logins   int
}

// New creates a new transport client. Zero fields of cfg take defaults.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.AuthURL == "" {
		cfg.AuthURL = def.AuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.AuthRetries <= 0 {
		cfg.AuthRetries = def.AuthRetries
	}
	policy := *def.Retry
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	policy.Retryable = isRetryable
	cfg.Retry = &policy

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config: cfg,
		http:   httpClient,
		auth:   &BearerAuth{},
		now:    time.Now,
	}
}

// SetClock replaces the time source used for token expiry.
func (c *Client) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Logins returns how many successful credential exchanges took place.
func (c *Client) Logins() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logins
}

// Do performs an authenticated request. On 401/403 the token is dropped and
// the request repeated after a new login, up to AuthRetries times.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	url, err := c.url(r)
	if err != nil {
		return nil, err
	}
	body, err := r.encodeBody()
	if err != nil {
		return nil, err
	}

	for authAttempt := 0; ; authAttempt++ {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, r.Method, url, r.Path, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, r.Method, url, body.reader())
			if err != nil {
				return nil, err
			}
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			c.auth.Apply(req, token)
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
			return resp, nil
		}

		c.invalidate(token)
		if authAttempt >= c.config.AuthRetries {
			return nil, errors.NewAuthenticationError(c.config.APIURL+r.Path, "bearer",
				"request still unauthorized after re-authentication",
				errors.NewRequestRejectedError(r.Method, r.Path, resp.StatusCode, truncate(resp.Body)))
		}
		logging.FromContext(ctx).Warn().
			Str("method", r.Method).
			Str("path", r.Path).
			Int("status", resp.StatusCode).
			Msg("Token rejected, re-authenticating")
	}
}

// send issues one logical request through the retry policy. 401/403 are
// returned as responses so the caller can decide on re-authentication.
func (c *Client) send(ctx context.Context, method, url, path string, build func() (*http.Request, error)) (*Response, error) {
	var resp *Response
	logger := logging.FromContext(ctx)

	err := c.config.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			logger.Warn().Str("method", method).Str("path", path).Int("attempt", attempt+1).Msg("Retrying request")
		}

		req, err := build()
		if err != nil {
			return errors.WrapResource("create", "request", method+" "+path, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.config.UserAgent)

		httpResp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &retryableError{err: err}
		}
		defer func() { _ = httpResp.Body.Close() }()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &retryableError{err: errors.WrapIO("read", "response body", err)}
		}

		status := httpResp.StatusCode
		switch {
		case status == http.StatusTooManyRequests || status >= 500:
			return &retryableError{status: status, err: stderrors.New(http.StatusText(status))}
		case status == http.StatusUnauthorized || status == http.StatusForbidden, status < 400:
			resp = &Response{StatusCode: status, Header: httpResp.Header, Body: data}
			return nil
		default:
			return errors.NewRequestRejectedError(method, path, status, truncate(data))
		}
	})
	if err == nil {
		return resp, nil
	}

	var exhausted *retry.ExhaustedError
	if stderrors.As(err, &exhausted) {
		te := &errors.TransientRequestError{Method: method, Path: path, Attempts: exhausted.Attempts, Err: exhausted.Err}
		var re *retryableError
		if stderrors.As(exhausted.Err, &re) {
			te.StatusCode = re.status
			te.Err = re.err
		}
		return nil, te
	}
	return nil, err
}

// retryableError marks network failures and 5xx/429 responses.
type retryableError struct {
	status int
	err    error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var re *retryableError
	return stderrors.As(err, &re)
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > constants.MaxErrorBodyLength {
		return s[:constants.MaxErrorBodyLength] + "..."
	}
	return s
}
