package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// FetchCollection issues GET endpoint and decodes the "results" array of the
// envelope into out. An empty body or a missing "results" key yields an
// empty slice.
func (c *Client) FetchCollection(ctx context.Context, endpoint string, query url.Values, out any) error {
	body, err := c.do(ctx, request{method: http.MethodGet, path: endpoint, query: query})
	if err != nil {
		return err
	}

	results := gjson.GetBytes(body, "results")
	if !results.Exists() || results.Type == gjson.Null {
		return decodeBody(http.MethodGet, endpoint, []byte("[]"), out)
	}
	return decodeBody(http.MethodGet, endpoint, []byte(results.Raw), out)
}

// FetchObject issues GET endpoint and decodes the whole body into out.
func (c *Client) FetchObject(ctx context.Context, endpoint string, out any) error {
	body, err := c.do(ctx, request{method: http.MethodGet, path: endpoint})
	if err != nil {
		return err
	}
	return decodeBody(http.MethodGet, endpoint, body, out)
}

// CreateEntity POSTs payload to the collection endpoint.
func (c *Client) CreateEntity(ctx context.Context, endpoint string, payload, out any) error {
	return c.write(ctx, http.MethodPost, endpoint, endpoint, payload, out)
}

// UpdateEntity PUTs payload to {endpoint}/{id}, without a trailing slash.
func (c *Client) UpdateEntity(ctx context.Context, endpoint string, id int64, payload, out any) error {
	return c.write(ctx, http.MethodPut, endpoint, entityPath(endpoint, id), payload, out)
}

// DeleteEntity issues DELETE {endpoint}/{id}/, with a trailing slash.
func (c *Client) DeleteEntity(ctx context.Context, endpoint string, id int64) error {
	return c.write(ctx, http.MethodDelete, endpoint, entityPath(endpoint, id)+"/", nil, nil)
}

// write performs a mutating call and invalidates cached reads of endpoint on
// success.
func (c *Client) write(ctx context.Context, method, endpoint, path string, payload, out any) error {
	body, err := encodeBody(method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, request{method: method, path: path, body: body})
	if err != nil {
		return err
	}
	c.invalidate(endpoint)

	return decodeBody(method, path, resp, out)
}

func entityPath(endpoint string, id int64) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + strconv.FormatInt(id, 10)
}

// Compile-time interface satisfaction check.
var _ driven.ResourceAPI = (*Client)(nil)
