// Package regsync reconciles a local registry of business entities with the
// client set held by the client-management platform.
//
// A Client owns one authenticated platform session. Each call to Sync lists
// the platform's clients once, then decides per registry record whether to
// create it, update it, or leave it alone, and optionally configures the
// federal and services modules of matched clients.
//
// Example usage:
//
//	client, err := regsync.New(
//	    regsync.WithCredentials(os.Getenv("PLATFORM_EMAIL"), os.Getenv("PLATFORM_PASSWORD")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnOutcome(func(o reconciler.Outcome) {
//	    fmt.Println(o)
//	})
//
//	result, err := client.Sync(ctx, locals, sync.WithDryRun(true), sync.WithInterval(time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package regsync

import (
	"context"

	"github.com/agentstation/regsync/internal/transport"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/metrics"
	"github.com/agentstation/regsync/pkg/remote"
)

// Client reconciles registries against one platform account.
// It is safe for concurrent use; concurrent Syncs share the session.
type Client struct {
	options   *options
	transport *transport.Client
	platform  *remote.Client
	metrics   *metrics.Metrics
	hooks     *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	t := transport.New(o.transport)
	c := &Client{
		options:   o,
		transport: t,
		platform:  remote.New(t, remote.WithPaths(o.paths)),
		metrics:   o.metrics,
		hooks:     newHooks(),
	}

	logging.Debug().
		Str("api_url", o.transport.APIURL).
		Str("user", o.transport.Credentials.Email).
		Msg("Client created")

	return c, nil
}

// Authenticate logs in eagerly, surfacing bad credentials before a run.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.transport.Authenticate(ctx)
}

// Platform returns the typed platform client.
func (c *Client) Platform() *remote.Client {
	return c.platform
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}
