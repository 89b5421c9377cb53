package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// SMARTQ_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SMARTQ_SECRET_KEY")

// CredentialStore defines the driven port for durable, encrypted credential
// persistence. The adapter layer is responsible for encryption/decryption;
// this interface operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the credential identified by service and key.
	Set(ctx context.Context, service, key, value string) error

	// Get retrieves the plaintext credential. Returns ("", nil) if absent.
	Get(ctx context.Context, service, key string) (string, error)

	// GetAll returns every credential stored under service, keyed by key.
	GetAll(ctx context.Context, service string) (map[string]string, error)

	// Delete removes the credential. Deleting a missing credential is not an error.
	Delete(ctx context.Context, service, key string) error
}
