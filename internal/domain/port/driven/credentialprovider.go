package driven

import (
	"context"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
)

// CredentialProvider is the process-wide holder of the credential pair. The
// outbound API adapter reads it when each request is built, and mutates it
// only through the refresh protocol.
type CredentialProvider interface {
	// AccessToken returns the current access credential, or "" if none.
	AccessToken() string

	// RefreshToken returns the durable refresh credential, or "" if none.
	RefreshToken(ctx context.Context) (string, error)

	// SetAccess replaces the access credential after a successful refresh
	// and moves the state back to authorized.
	SetAccess(token string)

	// MarkRefreshPending records that a refresh call is in flight.
	MarkRefreshPending()

	// Clear drops both credentials. Used when the session expires.
	Clear(ctx context.Context) error

	// State reports the position of the refresh state machine.
	State() model.SessionState
}
