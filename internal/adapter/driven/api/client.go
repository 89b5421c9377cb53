// Package api implements the BackOfficeAPI port against the upstream REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BackOfficeAPI = (*Client)(nil)

const (
	loginPath   = "/auth/login/"
	logoutPath  = "/auth/logout/"
	refreshPath = "/auth/token/refresh/"

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	defaultRefreshTimeout = 15 * time.Second
)

// Client implements the driven.BackOfficeAPI port.
//
// Every request reads the current access credential from the provider at
// construction time. A 401 on an ordinary request triggers exactly one
// refresh (coalesced across goroutines) followed by exactly one replay.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	creds   driven.CredentialProvider
	cache   *Cache
	logger  *slog.Logger

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	mu        sync.RWMutex
	onExpired func()
}

// NewClient creates an API client with the following transport stack:
//  1. go-github-ratelimit (sleeps when the upstream signals throttling)
//  2. httpcache (ETag-based conditional request caching)
//  3. http.DefaultTransport
func NewClient(baseURL string, creds driven.CredentialProvider, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	cache := NewCache()
	cacheTransport := &httpcache.Transport{
		Transport:           http.DefaultTransport,
		Cache:               cache,
		MarkCachedResponses: true,
	}
	httpClient := github_ratelimit.NewClient(cacheTransport)
	httpClient.Timeout = timeout

	return newClient(httpClient, cache, baseURL, creds, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and no
// response cache. This constructor is intended for testing.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, creds driven.CredentialProvider, logger *slog.Logger) (*Client, error) {
	return newClient(httpClient, NewCache(), baseURL, creds, logger)
}

func newClient(httpClient *http.Client, cache *Cache, baseURL string, creds driven.CredentialProvider, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	refreshTimeout := httpClient.Timeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	return &Client{
		http:           httpClient,
		baseURL:        u,
		creds:          creds,
		cache:          cache,
		logger:         logger,
		refreshTimeout: refreshTimeout,
	}, nil
}

// OnSessionExpired registers fn to run after a failed refresh has cleared
// the stored credentials.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// Cache exposes the response cache, mainly so callers can purge it on logout.
func (c *Client) Cache() *Cache { return c.cache }

// request describes one logical call. body is marshalled once so a replay
// sends the identical payload.
type request struct {
	method string
	path   string
	query  url.Values
	body   []byte

	// noRefresh marks the login and refresh endpoints. They are sent without
	// the access credential and a 401 from them is final.
	noRefresh bool
}

func (c *Client) endpointURL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends req, applies the refresh protocol and returns the success body.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var token string
	if !req.noRefresh {
		token = c.creds.AccessToken()
	}
	status, body, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if status < http.StatusBadRequest {
		return body, nil
	}

	httpErr := newHTTPError(req.method, req.path, status, body)
	if status != http.StatusUnauthorized {
		return nil, httpErr
	}
	if req.noRefresh {
		httpErr.AuthFailure = true
		return nil, httpErr
	}

	fresh, err := c.refreshAccess(ctx, token)
	if err != nil {
		// The caller gave up; the shared refresh was not rejected upstream.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: waiting for refresh: %w", req.method, req.path, ctxErr)
		}
		return nil, c.expire(ctx, err)
	}

	status, body, err = c.send(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		// A replay that is rejected again is final, no second refresh.
		return nil, newHTTPError(req.method, req.path, status, body)
	}
	return body, nil
}

// send performs a single round trip with the given access credential.
func (c *Client) send(ctx context.Context, req request, token string) (int, []byte, error) {
	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.endpointURL(req.path, req.query), reader)
	if err != nil {
		return 0, nil, &driven.UnexpectedError{Op: "build request", Err: err}
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("upstream request failed",
			"method", req.method, "path", req.path, "request_id", requestID, "error", err)
		return 0, nil, &driven.NetworkError{Method: req.method, Path: req.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &driven.NetworkError{Method: req.method, Path: req.path, Err: err}
	}

	c.logger.Debug("upstream request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"cached", resp.Header.Get(httpcache.XFromCache) == "1",
		"duration", time.Since(start),
	)

	return resp.StatusCode, body, nil
}

// refreshAccess returns a usable access credential after a 401 that was
// sent with staleToken. Concurrent callers share one refresh call; a caller
// whose credential was already replaced by another refresh reuses it.
//
// The shared refresh is detached from ctx and bounded by refreshTimeout, so
// one caller going away neither aborts it nor fails the others. A cancelled
// caller returns ctx.Err() while the refresh carries on.
func (c *Client) refreshAccess(ctx context.Context, staleToken string) (string, error) {
	if current := c.creds.AccessToken(); current != "" && current != staleToken {
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		if current := c.creds.AccessToken(); current != "" && current != staleToken {
			return current, nil
		}

		rctx, cancel := context.WithTimeout(detached, c.refreshTimeout)
		defer cancel()

		c.creds.MarkRefreshPending()
		c.logger.Info("access credential rejected, refreshing")

		refresh, err := c.creds.RefreshToken(rctx)
		if err != nil {
			return "", fmt.Errorf("load refresh credential: %w", err)
		}
		if refresh == "" {
			return "", driven.ErrNoRefreshCredential
		}

		access, err := c.Refresh(rctx, refresh)
		if err != nil {
			return "", err
		}
		c.creds.SetAccess(access)
		c.logger.Info("access credential refreshed")
		return access, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight refresh")
		}
		return res.Val.(string), nil
	}
}

// expire clears every stored credential, runs the session-expired hook and
// returns the error handed to the original caller.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.logger.Warn("refresh failed, session expired", "error", cause)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()
	if err := c.creds.Clear(cctx); err != nil {
		c.logger.Error("failed to clear credentials", "error", err)
	}
	c.cache.Purge()

	c.mu.RLock()
	hook := c.onExpired
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}

	return &driven.SessionExpiredError{Err: cause}
}

// invalidate drops cached reads of the collection endpoint after a write.
func (c *Client) invalidate(endpoint string) {
	if n := c.cache.InvalidatePrefix(c.endpointURL(endpoint, nil)); n > 0 {
		c.logger.Debug("invalidated cached reads", "endpoint", endpoint, "entries", n)
	}
}

func encodeBody(method, path string, payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &driven.UnexpectedError{Op: method + " " + path + ": encode body", Err: err}
	}
	return b, nil
}

func decodeBody(method, path string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &driven.UnexpectedError{Op: method + " " + path + ": decode body", Err: err}
	}
	return nil
}
