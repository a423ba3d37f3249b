// Package remote provides typed access to the client-management platform:
// client listing, retrieval, creation and update, plus the lookup endpoints
// used while building creation payloads.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/regsync/internal/transport"
	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/regime"
)

// listFilters are sent blank on every listing request so the platform
// returns active and inactive clients alike.
var listFilters = []string{
	"status", "name", "document", "city", "municipalRegistration", "excel",
	"validCertificate", "simpleOptionInfo", "certificateStatus", "certificateType", "taxation",
}

// Doer is the subset of the transport client used here.
type Doer interface {
	Do(ctx context.Context, r *transport.Request) (*transport.Response, error)
}

// Client wraps the transport with the platform's resource endpoints.
type Client struct {
	doer  Doer
	paths Paths
}

// Paths holds the endpoint paths, relative to the API base URL.
type Paths struct {
	Clients        string
	TaxRegimes     string
	Cities         string
	SearchDocument string
}

// DefaultPaths returns the platform's endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Clients:        constants.ClientsPath,
		TaxRegimes:     constants.TaxRegimesPath,
		Cities:         constants.CitiesPath,
		SearchDocument: constants.SearchDocumentPath,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithPaths overrides endpoint paths. Empty fields keep their default.
func WithPaths(p Paths) Option {
	return func(c *Client) {
		if p.Clients != "" {
			c.paths.Clients = p.Clients
		}
		if p.TaxRegimes != "" {
			c.paths.TaxRegimes = p.TaxRegimes
		}
		if p.Cities != "" {
			c.paths.Cities = p.Cities
		}
		if p.SearchDocument != "" {
			c.paths.SearchDocument = p.SearchDocument
		}
	}
}

// New creates a platform client on top of an authenticated transport.
func New(doer Doer, opts ...Option) *Client {
	c := &Client{doer: doer, paths: DefaultPaths()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listPage struct {
	Data []records.Remote `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

// ListAll pages through every client. It stops at the reported last page
// or at the first empty page, whichever comes first.
func (c *Client) ListAll(ctx context.Context, pageSize int) ([]records.Remote, error) {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	logger := logging.FromContext(ctx)
	var all []records.Remote

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageSize))
		for _, f := range listFilters {
			q.Set(f, "")
		}

		resp, err := c.doer.Do(ctx, &transport.Request{Method: "GET", Path: c.paths.Clients, Query: q})
		if err != nil {
			return all, errors.WrapResource("list", "clients", fmt.Sprintf("page %d", page), err)
		}

		var result listPage
		if err := resp.JSON(&result); err != nil {
			return all, err
		}
		if len(result.Data) == 0 {
			break
		}
		all = append(all, result.Data...)

		totalPages := result.Meta.Pagination.TotalPages
		logger.Debug().Int("page", page).Int("total_pages", totalPages).Int("count", len(result.Data)).Msg("Loaded client page")
		if totalPages <= 0 || page >= totalPages {
			break
		}
	}

	logger.Info().Int("clients", len(all)).Msg("Loaded platform clients")
	return all, nil
}

// GetFull fetches the complete client object, unwrapping a data envelope.
func (c *Client) GetFull(ctx context.Context, id string) (records.Remote, error) {
	resp, err := c.doer.Do(ctx, &transport.Request{Method: "GET", Path: c.clientPath(id)})
	if err != nil {
		return nil, errors.WrapResource("fetch", "client", id, err)
	}
	obj, err := unwrapObject(resp, "data")
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.NewNotFoundError("client", id)
	}
	return obj, nil
}

// Create registers a new client and returns the platform's response.
func (c *Client) Create(ctx context.Context, payload map[string]any) (records.Remote, error) {
	resp, err := c.doer.Do(ctx, &transport.Request{Method: "POST", Path: c.paths.Clients, Body: payload})
	if err != nil {
		return nil, errors.WrapResource("create", "client", fmt.Sprint(payload["document"]), err)
	}
	obj, err := unwrapObject(resp, "data")
	if err != nil {
		return nil, err
	}
	if obj == nil {
		obj = records.Remote{}
	}
	return obj, nil
}

// Update writes a whole client object back. full must be the merged result
// of a GetFull; partial objects would erase fields on the platform.
func (c *Client) Update(ctx context.Context, id string, full records.Remote) error {
	_, err := c.doer.Do(ctx, &transport.Request{Method: "PUT", Path: c.clientPath(id), Body: full})
	if err != nil {
		return errors.WrapResource("update", "client", id, err)
	}
	return nil
}

// ModuleSettings is the complete settings object for one platform module.
type ModuleSettings map[string]any

// PutModule replaces the settings of a client's module.
func (c *Client) PutModule(ctx context.Context, clientID, module string, settings ModuleSettings) error {
	payload := map[string]any{
		"clientId": clientID,
		"module":   module,
		"settings": map[string]any(settings),
	}
	path := c.clientPath(clientID) + "/modules/" + module
	if _, err := c.doer.Do(ctx, &transport.Request{Method: "PUT", Path: path, Body: payload}); err != nil {
		return errors.WrapResource("update", module+" module", clientID, err)
	}
	return nil
}

// TaxRegimes lists the platform's regime catalog. It accepts a bare list
// or a data envelope, and both id/_id and name/description spellings.
func (c *Client) TaxRegimes(ctx context.Context) ([]regime.Regime, error) {
	resp, err := c.doer.Do(ctx, &transport.Request{Method: "GET", Path: c.paths.TaxRegimes})
	if err != nil {
		return nil, errors.WrapResource("list", "tax regimes", "", err)
	}

	items, err := unwrapList(resp)
	if err != nil {
		return nil, err
	}

	out := make([]regime.Regime, 0, len(items))
	for _, item := range items {
		entry := records.Remote(item)
		name := entry.Name()
		if name == "" {
			name, _ = item["description"].(string)
		}
		out = append(out, regime.Regime{ID: entry.ID(), Name: name})
	}
	return out, nil
}

// CityCode returns the IBGE code of a municipality, or 0 when unknown.
func (c *Client) CityCode(ctx context.Context, name, state string) (int, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("state", state)
	resp, err := c.doer.Do(ctx, &transport.Request{Method: "GET", Path: c.paths.Cities, Query: q})
	if err != nil {
		return 0, errors.WrapResource("fetch", "city", name+"/"+state, err)
	}

	items, err := unwrapList(resp)
	if err != nil || len(items) == 0 {
		return 0, err
	}

	for _, key := range []string{"ibgeCode", "code"} {
		switch v := items[0][key].(type) {
		case float64:
			return int(v), nil
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, nil
			}
		}
	}
	return 0, nil
}

// LookupDocument queries the registry-office data the platform holds for
// a business identifier. A missing record yields nil without error.
func (c *Client) LookupDocument(ctx context.Context, identifier string) (map[string]any, error) {
	resp, err := c.doer.Do(ctx, &transport.Request{Method: "GET", Path: c.paths.SearchDocument + "/" + url.PathEscape(identifier)})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.WrapResource("fetch", "document", identifier, err)
	}
	obj, err := unwrapObject(resp, "item")
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *Client) clientPath(id string) string {
	return strings.TrimRight(c.paths.Clients, "/") + "/" + url.PathEscape(id)
}

// unwrapObject decodes an object, descending into envelope when present.
func unwrapObject(resp *transport.Response, envelope string) (records.Remote, error) {
	var obj map[string]any
	if err := resp.JSON(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	if inner, ok := obj[envelope].(map[string]any); ok {
		return inner, nil
	}
	return obj, nil
}

// unwrapList decodes either a bare JSON list or {data: [...]}.
func unwrapList(resp *transport.Response) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := resp.JSON(&raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var list []map[string]any
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, errors.WrapParse("json", "response", err)
		}
		return list, nil
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.WrapParse("json", "response", err)
	}
	return envelope.Data, nil
}
