package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/regsync/pkg/errors"
)

// Request describes a platform call relative to the API base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a fully read platform response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into target.
func (r *Response) JSON(target any) error {
	return DecodeResponse(r, target)
}

type encodedBody []byte

func (b encodedBody) reader() io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

func (r *Request) encodeBody() (encodedBody, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, errors.WrapParse("json", "request body", err)
	}
	return data, nil
}

// url joins the API base URL, the request path and its query. Empty
// query values are kept, since the listing endpoint expects its filter
// parameters to be present even when blank.
func (c *Client) url(r *Request) (string, error) {
	if r.Method == "" {
		return "", errors.NewValidationError("method", r.Method, "cannot be empty")
	}
	u := c.config.APIURL + "/" + strings.TrimPrefix(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// DecodeResponse decodes a JSON response into the target structure.
// An empty body leaves target untouched.
func DecodeResponse(resp *Response, target any) error {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
