package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// ProfileKey is the settings key of the persisted user profile.
const ProfileKey = "smartq:user-profile"

// SessionInfo is the signed-in state shown in the navbar.
type SessionInfo struct {
	Profile         *model.Profile
	State           model.SessionState
	AccessExpiresAt time.Time
	Durable         bool
}

// SignedIn reports whether a profile is loaded.
func (s SessionInfo) SignedIn() bool { return s.Profile != nil }

// SessionService owns login, logout and restoring a session after restart.
type SessionService struct {
	auth     driven.AuthAPI
	creds    *Credentials
	settings driven.SettingsStore
	logger   *slog.Logger

	mu      sync.RWMutex
	profile *model.Profile
}

// NewSessionService creates a new SessionService.
func NewSessionService(auth driven.AuthAPI, creds *Credentials, settings driven.SettingsStore, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		auth:     auth,
		creds:    creds,
		settings: settings,
		logger:   logger,
	}
}

// Login validates the credentials, exchanges them for a credential pair and
// stores the pair and the profile.
func (s *SessionService) Login(ctx context.Context, username, password string) (*model.Profile, error) {
	req := model.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := Validate(req); err != nil {
		return nil, err
	}

	res, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.creds.SetPair(ctx, res.Tokens); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}

	profile := res.User
	if err := s.saveProfile(ctx, &profile); err != nil {
		s.logger.Warn("failed to persist user profile", "error", err)
	}

	s.logger.Info("signed in", "username", profile.Username, "role", profile.Role)
	return &profile, nil
}

// Logout revokes the refresh credential upstream on a best-effort basis and
// then clears everything locally. It always succeeds locally.
func (s *SessionService) Logout(ctx context.Context) {
	refresh, err := s.creds.RefreshToken(ctx)
	if err != nil {
		s.logger.Warn("failed to load refresh credential for logout", "error", err)
	}
	if refresh != "" {
		if err := s.auth.Logout(ctx, refresh); err != nil {
			s.logger.Warn("upstream logout failed", "error", err)
		}
	}

	s.Expire(ctx)
	s.logger.Info("signed out")
}

// Expire clears the credentials and profile. It is the session-expired hook
// of the API client.
func (s *SessionService) Expire(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Error("failed to clear credentials", "error", err)
	}

	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()

	if err := s.settings.Delete(ctx, ProfileKey); err != nil {
		s.logger.Error("failed to delete user profile", "error", err)
	}
}

// Restore loads the persisted profile. A profile without a refresh
// credential cannot resume, so it is discarded.
func (s *SessionService) Restore(ctx context.Context) error {
	raw, found, err := s.settings.Get(ctx, ProfileKey)
	if err != nil {
		return fmt.Errorf("load user profile: %w", err)
	}
	if !found {
		return nil
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.logger.Warn("discarding unreadable user profile", "error", err)
		return s.settings.Delete(ctx, ProfileKey)
	}

	refresh, err := s.creds.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("load refresh credential: %w", err)
	}
	if refresh == "" {
		s.logger.Info("stored profile has no refresh credential, sign-in required")
		return s.settings.Delete(ctx, ProfileKey)
	}

	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()

	s.logger.Info("session restored", "username", profile.Username)
	return nil
}

// Current returns the profile and credential state.
func (s *SessionService) Current() SessionInfo {
	s.mu.RLock()
	var profile *model.Profile
	if s.profile != nil {
		p := *s.profile
		profile = &p
	}
	s.mu.RUnlock()

	info := SessionInfo{
		Profile: profile,
		State:   s.creds.State(),
		Durable: s.creds.Durable(),
	}
	if exp, ok := s.creds.AccessExpiry(); ok {
		info.AccessExpiresAt = exp
	}
	return info
}

func (s *SessionService) saveProfile(ctx context.Context, profile *model.Profile) error {
	p := *profile
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()

	b, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	return s.settings.Set(ctx, ProfileKey, string(b))
}
