package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"quizbattle/internal/domain"
	"quizbattle/internal/validation"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	// Load returns "" when no token is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// AuthClient is the subset of the API client the auth context drives.
type AuthClient interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	AdminLogin(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (map[string]any, error)
	Profile(ctx context.Context) (domain.Profile, error)
	SetToken(token string)
	OnUnauthorized(fn func())
}

// AuthContext owns the current caller's credentials for the life of the process.
type AuthContext struct {
	client AuthClient
	store  TokenStore
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *domain.User
	admin *domain.Admin
}

func NewAuthContext(client AuthClient, store TokenStore, log zerolog.Logger) *AuthContext {
	return NewAuthContextWithClock(client, store, log, time.Now)
}

// NewAuthContextWithClock is used by tests to pin token expiry checks.
func NewAuthContextWithClock(client AuthClient, store TokenStore, log zerolog.Logger, now func() time.Time) *AuthContext {
	a := &AuthContext{
		client: client,
		store:  store,
		log:    log.With().Str("component", "auth").Logger(),
		now:    now,
	}
	client.OnUnauthorized(a.Teardown)
	return a
}

// Init hydrates the context from the persisted token. A missing or expired
// token leaves the caller unauthenticated without error.
func (a *AuthContext) Init(ctx context.Context) error {
	token, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil
	}
	if tokenExpired(token, a.now()) {
		a.log.Info().Msg("stored token expired")
		a.Teardown()
		return nil
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	a.client.SetToken(token)

	profile, err := a.client.Profile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			// The client's 401 hook has already torn down.
			return nil
		}
		a.log.Warn().Err(err).Msg("profile fetch failed, keeping token")
		return fmt.Errorf("fetch profile: %w", err)
	}

	a.mu.Lock()
	a.user, a.admin = profile.User, profile.Admin
	a.mu.Unlock()
	return nil
}

// Login authenticates a player.
func (a *AuthContext) Login(ctx context.Context, creds domain.Credentials) error {
	if err := validation.Struct(creds); err != nil {
		return err
	}
	res, err := a.client.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return a.establish(ctx, res)
}

// AdminLogin authenticates an administrator.
func (a *AuthContext) AdminLogin(ctx context.Context, creds domain.Credentials) error {
	if err := validation.Struct(creds); err != nil {
		return err
	}
	res, err := a.client.AdminLogin(ctx, creds)
	if err != nil {
		return fmt.Errorf("admin login: %w", err)
	}
	return a.establish(ctx, res)
}

func (a *AuthContext) establish(ctx context.Context, res domain.LoginResult) error {
	if res.AccessToken == "" {
		return fmt.Errorf("login: %w", &domain.APIError{Message: "no access token in response", Kind: domain.ErrTransient})
	}
	if err := a.store.Save(ctx, res.AccessToken); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	a.client.SetToken(res.AccessToken)

	a.mu.Lock()
	a.token = res.AccessToken
	a.user, a.admin = res.User, res.Admin
	a.mu.Unlock()

	a.log.Info().Bool("admin", res.Admin != nil).Msg("logged in")
	return nil
}

// Register creates a player account. It does not log in.
func (a *AuthContext) Register(ctx context.Context, reg domain.Registration) (map[string]any, error) {
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	out, err := a.client.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return out, nil
}

// Teardown forgets the caller. It is the logout path and the global 401 policy.
func (a *AuthContext) Teardown() {
	a.mu.Lock()
	hadToken := a.token != ""
	a.token = ""
	a.user, a.admin = nil, nil
	a.mu.Unlock()

	a.client.SetToken("")
	if err := a.store.Clear(context.Background()); err != nil {
		a.log.Warn().Err(err).Msg("failed to clear stored token")
	}
	if hadToken {
		a.log.Info().Msg("credentials cleared")
	}
}

func (a *AuthContext) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil || a.admin != nil
}

func (a *AuthContext) IsAdmin() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.admin != nil
}

func (a *AuthContext) IsUser() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil
}

// Profile returns the current identity.
func (a *AuthContext) Profile() domain.Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return domain.Profile{User: a.user, Admin: a.admin}
}

// tokenExpired reads exp without verifying the signature; the server stays
// authoritative. Tokens that do not parse as JWTs are left to the server.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
