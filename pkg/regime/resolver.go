package regime

import (
	"context"
	"maps"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
)

// Regime is an entry of the platform's regime catalog.
type Regime struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Catalog lists the regimes known to the platform.
type Catalog interface {
	TaxRegimes(ctx context.Context) ([]Regime, error)
}

// Resolver memoizes label to identifier resolution for one run.
// It is safe for concurrent use; concurrent first lookups of the same
// label share a single resolution.
type Resolver struct {
	catalog  Catalog
	known    map[string]string
	fallback string

	mu    sync.RWMutex
	cache map[string]string

	group   singleflight.Group
	listMu  sync.Mutex
	list    []Regime
	listed  bool
	lookups atomic.Int64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithKnownIDs replaces the canonical name to identifier table.
func WithKnownIDs(ids map[string]string) ResolverOption {
	return func(r *Resolver) {
		r.known = maps.Clone(ids)
	}
}

// NewResolver creates a run-scoped resolver. catalog may be nil, in which
// case names missing from the known table fall back immediately.
func NewResolver(catalog Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		catalog: catalog,
		known:   maps.Clone(constants.KnownRegimeIDs),
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fallback = r.known[DefaultCanonical]
	if r.fallback == "" {
		r.fallback = constants.KnownRegimeIDs[DefaultCanonical]
	}
	return r
}

// Resolve returns the platform identifier for a local taxation label.
// Unknown labels resolve to the default regime with a warning. The only
// errors returned are authentication failures and context cancellation.
func (r *Resolver) Resolve(ctx context.Context, label string) (string, error) {
	r.mu.RLock()
	id, ok := r.cache[label]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	v, err, _ := r.group.Do(label, func() (any, error) {
		r.mu.RLock()
		id, ok := r.cache[label]
		r.mu.RUnlock()
		if ok {
			return id, nil
		}

		id, err := r.resolve(ctx, label)
		if err != nil {
			return "", err
		}

		r.mu.Lock()
		r.cache[label] = id
		r.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, label string) (string, error) {
	logger := logging.FromContext(ctx)
	canonical, matched := Classify(label)

	if matched {
		if id := r.known[canonical]; id != "" {
			logger.Debug().Str("label", label).Str("canonical", canonical).Str("regime_id", id).Msg("Resolved regime")
			return id, nil
		}
	}

	query := canonical
	if !matched {
		query = label
	}
	if strings.TrimSpace(query) != "" {
		id, err := r.searchCatalog(ctx, query)
		if err != nil {
			if errors.IsAuthentication(err) || errors.IsCanceled(err) || ctx.Err() != nil {
				return "", err
			}
			logger.Warn().Err(err).Str("label", label).Msg("Regime catalog unavailable")
		}
		if id != "" {
			logger.Debug().Str("label", label).Str("regime_id", id).Msg("Resolved regime from catalog")
			return id, nil
		}
	}

	notFound := &errors.RegimeNotFoundError{Label: label, Canonical: canonical}
	logger.Warn().
		Err(notFound).
		Str("label", label).
		Str("fallback", DefaultCanonical).
		Msg("Regime not recognized, using default")
	return r.fallback, nil
}

// searchCatalog finds a regime by exact then substring match on the
// normalized name.
func (r *Resolver) searchCatalog(ctx context.Context, name string) (string, error) {
	list, err := r.catalogList(ctx)
	if err != nil {
		return "", err
	}

	want := Normalize(name)
	for _, entry := range list {
		if Normalize(entry.Name) == want {
			return entry.ID, nil
		}
	}
	for _, entry := range list {
		got := Normalize(entry.Name)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return entry.ID, nil
		}
	}
	return "", nil
}

// catalogList fetches the platform catalog at most once per resolver.
// Failed fetches are not remembered.
func (r *Resolver) catalogList(ctx context.Context) ([]Regime, error) {
	if r.catalog == nil {
		return nil, nil
	}

	r.listMu.Lock()
	defer r.listMu.Unlock()
	if r.listed {
		return r.list, nil
	}

	r.lookups.Add(1)
	list, err := r.catalog.TaxRegimes(ctx)
	if err != nil {
		return nil, err
	}
	r.list = list
	r.listed = true
	return list, nil
}

// Lookups returns how many times the remote catalog was queried.
func (r *Resolver) Lookups() int {
	return int(r.lookups.Load())
}

// Len returns the number of cached labels.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Clear forgets every cached resolution and the fetched catalog.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()

	r.listMu.Lock()
	r.list = nil
	r.listed = false
	r.listMu.Unlock()
}
