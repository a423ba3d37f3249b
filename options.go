package regsync

import (
	"maps"
	"net/http"
	"time"

	"github.com/agentstation/regsync/internal/transport"
	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/metrics"
	"github.com/agentstation/regsync/pkg/remote"
	"github.com/agentstation/regsync/pkg/retry"
)

// options holds the client configuration.
type options struct {
	transport transport.Config
	paths     remote.Paths
	knownIDs  map[string]string
	metrics   *metrics.Metrics
}

func defaults() *options {
	return &options{
		transport: transport.DefaultConfig(),
		paths:     remote.DefaultPaths(),
		knownIDs:  maps.Clone(constants.KnownRegimeIDs),
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithCredentials sets the platform login used to obtain bearer tokens.
func WithCredentials(email, password string) Option {
	return func(o *options) error {
		o.transport.Credentials = transport.Credentials{Email: email, Password: password}
		return nil
	}
}

// WithAPIURL sets the base URL of the platform API.
func WithAPIURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return &errors.ValidationError{Field: "api_url", Message: "cannot be empty"}
		}
		o.transport.APIURL = url
		return nil
	}
}

// WithAuthURL sets the base URL of the login service.
func WithAuthURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return &errors.ValidationError{Field: "auth_url", Message: "cannot be empty"}
		}
		o.transport.AuthURL = url
		return nil
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) error {
		o.transport.HTTPClient = client
		return nil
	}
}

// WithTimeout sets the timeout of a single HTTP attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout < 0 {
			return &errors.ValidationError{Field: "timeout", Value: timeout, Message: "must be non-negative"}
		}
		o.transport.Timeout = timeout
		return nil
	}
}

// WithTokenTTL sets how long a bearer token is trusted.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.transport.TokenTTL = ttl
		return nil
	}
}

// WithRetry sets the retry policy for network failures, 5xx and 429 responses.
func WithRetry(policy retry.Policy) Option {
	return func(o *options) error {
		if policy.MaxRetries < 0 {
			return &errors.ValidationError{Field: "max_retries", Value: policy.MaxRetries, Message: "must be non-negative"}
		}
		o.transport.Retry = &policy
		return nil
	}
}

// WithAuthRetries bounds the re-authentications a single request may trigger.
func WithAuthRetries(n int) Option {
	return func(o *options) error {
		o.transport.AuthRetries = n
		return nil
	}
}

// WithPaths overrides the platform endpoint layout.
func WithPaths(paths remote.Paths) Option {
	return func(o *options) error {
		o.paths = paths
		return nil
	}
}

// WithKnownRegimeIDs merges canonical regime name to identifier entries
// over the built-in table.
func WithKnownRegimeIDs(ids map[string]string) Option {
	return func(o *options) error {
		maps.Copy(o.knownIDs, ids)
		return nil
	}
}

// WithMetrics records run counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}
