package driven

import "context"

// SettingsStore persists small namespaced documents (JSON encoded by the
// caller) such as the signed-in user profile.
type SettingsStore interface {
	// Get returns the stored value. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
