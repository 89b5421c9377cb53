package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialProvider = (*Credentials)(nil)

const (
	credentialService = "smartq"
	refreshKey        = "refresh"
)

// Credentials is the process-wide credential holder shared by the API
// client, the session service and the CLI. The access credential lives only
// in memory; the refresh credential is written through to the durable store.
//
// When the store cannot encrypt (no secret key configured) the refresh
// credential is kept in memory only and a warning is logged once.
type Credentials struct {
	mu       sync.RWMutex
	access   string
	refresh  string
	loaded   bool
	state    model.SessionState
	memOnly  bool
	store    driven.CredentialStore
	logger   *slog.Logger
	warnOnce sync.Once
}

// NewCredentials creates a provider backed by store. store may be nil, in
// which case nothing survives a restart.
func NewCredentials(store driven.CredentialStore, logger *slog.Logger) *Credentials {
	if logger == nil {
		logger = slog.Default()
	}
	return &Credentials{
		state:   model.SessionUnauthorized,
		store:   store,
		memOnly: store == nil,
		logger:  logger,
	}
}

// AccessToken returns the current access credential, or "" if none.
func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

// RefreshToken returns the refresh credential, loading it from the durable
// store on first use.
func (c *Credentials) RefreshToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.loaded || c.memOnly {
		defer c.mu.RUnlock()
		return c.refresh, nil
	}
	c.mu.RUnlock()

	value, err := c.store.Get(ctx, credentialService, refreshKey)
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		c.fallbackToMemory()
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load refresh credential: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.refresh = value
		c.loaded = true
	}
	return c.refresh, nil
}

// SetPair stores a freshly issued credential pair.
func (c *Credentials) SetPair(ctx context.Context, pair model.CredentialPair) error {
	c.mu.Lock()
	c.access = pair.Access
	c.refresh = pair.Refresh
	c.loaded = true
	c.state = model.SessionAuthorized
	memOnly := c.memOnly
	c.mu.Unlock()

	if memOnly {
		return nil
	}

	err := c.store.Set(ctx, credentialService, refreshKey, pair.Refresh)
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		c.fallbackToMemory()
		return nil
	}
	if err != nil {
		return fmt.Errorf("persist refresh credential: %w", err)
	}
	return nil
}

// SetAccess replaces the access credential after a refresh.
func (c *Credentials) SetAccess(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = token
	c.state = model.SessionAuthorized
}

// MarkRefreshPending records that a refresh call is in flight.
func (c *Credentials) MarkRefreshPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = model.SessionRefreshPending
}

// Clear drops both credentials, including the durable copy.
func (c *Credentials) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.access = ""
	c.refresh = ""
	c.loaded = true
	c.state = model.SessionUnauthorized
	memOnly := c.memOnly
	c.mu.Unlock()

	if memOnly {
		return nil
	}
	if err := c.store.Delete(ctx, credentialService, refreshKey); err != nil {
		return fmt.Errorf("delete refresh credential: %w", err)
	}
	return nil
}

// State reports the refresh state machine position.
func (c *Credentials) State() model.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Durable reports whether the refresh credential survives a restart.
func (c *Credentials) Durable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.memOnly
}

// AccessExpiry returns the exp claim of the access credential. The token is
// not verified; the panel only uses the value for display.
func (c *Credentials) AccessExpiry() (time.Time, bool) {
	token := c.AccessToken()
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (c *Credentials) fallbackToMemory() {
	c.mu.Lock()
	c.memOnly = true
	c.loaded = true
	c.mu.Unlock()

	c.warnOnce.Do(func() {
		c.logger.Warn("SMARTQ_SECRET_KEY not set, refresh credential kept in memory only and lost on restart")
	})
}
