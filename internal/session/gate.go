// Package session guards remote calls behind a usable-session check.
//
// The gate distinguishes "definitely expired, user must log in again" from
// "unreachable, proceed offline": only the former surfaces as an
// authentication failure; the latter silently blocks sync while local work
// continues.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/remote"
	"github.com/dkazakov/paysync/internal/repositories/syncmeta"
)

// Gate verifies credential validity before any remote call.
type Gate interface {
	// EnsureUsableSession returns nil when remote calls may proceed,
	// common.ErrUnavailable when the session cannot be validated right now
	// (offline), and common.ErrSessionExpired when the user must
	// re-authenticate.
	EnsureUsableSession(ctx context.Context) error

	// AccessToken returns the cached access token without validating it.
	AccessToken(ctx context.Context) (string, error)

	// SetTokens stores a fresh token pair (login or refresh).
	SetTokens(ctx context.Context, pair remote.TokenPair) error

	// Ping probes remote reachability.
	Ping(ctx context.Context) error
}

// TokenGate implements Gate over a cached JWT pair. Expiry is inspected
// locally (unverified parse; the server remains the authority) and a refresh
// is attempted only when the access token is stale.
type TokenGate struct {
	api  remote.SessionAPI
	meta syncmeta.Repository
	log  logging.Logger

	// expirySkew widens the local expiry check so a token about to lapse
	// mid-cycle is refreshed up front.
	expirySkew time.Duration

	mu           sync.Mutex
	loaded       bool
	accessToken  string
	refreshToken string
}

func NewTokenGate(api remote.SessionAPI, meta syncmeta.Repository, log logging.Logger) *TokenGate {
	return &TokenGate{api: api, meta: meta, log: log, expirySkew: 30 * time.Second}
}

func (g *TokenGate) load(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	access, err := g.meta.Get(ctx, syncmeta.KeyAccessToken)
	if err != nil {
		return err
	}
	refresh, err := g.meta.Get(ctx, syncmeta.KeyRefreshToken)
	if err != nil {
		return err
	}
	g.accessToken = string(access)
	g.refreshToken = string(refresh)
	g.loaded = true
	return nil
}

func (g *TokenGate) AccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.load(ctx); err != nil {
		return "", err
	}
	return g.accessToken, nil
}

func (g *TokenGate) SetTokens(ctx context.Context, pair remote.TokenPair) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.storeTokens(ctx, pair)
}

// storeTokens persists the pair and updates the in-memory copy. Callers hold g.mu.
func (g *TokenGate) storeTokens(ctx context.Context, pair remote.TokenPair) error {
	if err := g.meta.Set(ctx, syncmeta.KeyAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	if err := g.meta.Set(ctx, syncmeta.KeyRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return err
	}
	g.accessToken = pair.AccessToken
	g.refreshToken = pair.RefreshToken
	g.loaded = true
	return nil
}

// expiresSoon reports whether token is expired or lapses within the skew.
// A token carrying no expiry claim is treated as still usable; the server
// will reject it if the gate is wrong.
func (g *TokenGate) expiresSoon(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(now.Add(g.expirySkew))
}

func (g *TokenGate) EnsureUsableSession(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(ctx); err != nil {
		return err
	}

	if g.accessToken == "" && g.refreshToken == "" {
		return common.ErrSessionExpired
	}

	if g.accessToken != "" && !g.expiresSoon(g.accessToken, time.Now()) {
		return nil
	}

	if g.refreshToken == "" {
		return common.ErrSessionExpired
	}

	pair, err := g.api.Refresh(ctx, g.refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			// the server explicitly rejected the refresh token
			return common.ErrSessionExpired
		}
		if errors.Is(err, common.ErrUnavailable) {
			return common.ErrUnavailable
		}
		return fmt.Errorf("session refresh failed: %w", err)
	}

	if err := g.storeTokens(ctx, pair); err != nil {
		return err
	}
	g.log.Info(ctx, "session refreshed")
	return nil
}

func (g *TokenGate) Ping(ctx context.Context) error {
	return g.api.Ping(ctx)
}
