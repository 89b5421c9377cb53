package driven

import (
	"context"
	"net/url"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
)

// ResourceAPI is the collection-style half of the upstream REST API. The out
// parameters receive the decoded JSON body, mirroring encoding/json.
type ResourceAPI interface {
	// FetchCollection issues GET endpoint and decodes the results array of a
	// {"results": [...]} envelope into out (a pointer to a slice). A missing
	// body or missing results leaves out as an empty slice.
	FetchCollection(ctx context.Context, endpoint string, query url.Values, out any) error

	// FetchObject issues GET endpoint and decodes the body into out.
	FetchObject(ctx context.Context, endpoint string, out any) error

	// CreateEntity POSTs payload to endpoint and decodes the created entity.
	CreateEntity(ctx context.Context, endpoint string, payload, out any) error

	// UpdateEntity PUTs payload to {endpoint}/{id} and decodes the written entity.
	UpdateEntity(ctx context.Context, endpoint string, id int64, payload, out any) error

	// DeleteEntity issues DELETE {endpoint}/{id}/.
	DeleteEntity(ctx context.Context, endpoint string, id int64) error
}

// AuthAPI covers the authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error)
	Logout(ctx context.Context, refresh string) error

	// Refresh exchanges a refresh credential for a new access credential.
	Refresh(ctx context.Context, refresh string) (string, error)
}

// BackOfficeAPI is the full upstream surface used by the panel.
type BackOfficeAPI interface {
	ResourceAPI
	AuthAPI
}
