package api

import (
	"context"
	"net/http"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// Login exchanges username and password for a credential pair and profile.
// A 401 is returned as an HTTPError flagged as an authorization failure.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	body, err := encodeBody(http.MethodPost, loginPath, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: loginPath, body: body, noRefresh: true})
	if err != nil {
		return nil, err
	}

	var result model.LoginResult
	if err := decodeBody(http.MethodPost, loginPath, resp, &result); err != nil {
		return nil, err
	}
	if result.Tokens.Access == "" {
		return nil, &driven.UnexpectedError{Op: "POST " + loginPath, Err: errMissing("tokens.access")}
	}

	// A new identity must never see the previous identity's cached reads.
	c.cache.Purge()
	return &result, nil
}

// Logout revokes the refresh credential upstream.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	body, err := encodeBody(http.MethodPost, logoutPath, map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}

	defer c.cache.Purge()
	_, err = c.do(ctx, request{method: http.MethodPost, path: logoutPath, body: body})
	return err
}

// Refresh exchanges a refresh credential for a new access credential. It
// never triggers the refresh protocol itself.
func (c *Client) Refresh(ctx context.Context, refresh string) (string, error) {
	body, err := encodeBody(http.MethodPost, refreshPath, map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: refreshPath, body: body, noRefresh: true})
	if err != nil {
		return "", err
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := decodeBody(http.MethodPost, refreshPath, resp, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", &driven.UnexpectedError{Op: "POST " + refreshPath, Err: errMissing("access")}
	}
	return out.Access, nil
}

type errMissing string

func (e errMissing) Error() string { return "response is missing " + string(e) }
