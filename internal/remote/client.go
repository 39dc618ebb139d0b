// Package remote implements the gateway to the remote payment store.
package remote

import (
	"context"

	"github.com/dkazakov/paysync/internal/models"
)

// TokenPair carries a session's access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenSource returns the current access token for outgoing calls.
type TokenSource func(ctx context.Context) (string, error)

// Client is the remote store gateway. All operations are scoped by the owner
// identity and map transport failures onto common.ErrUnavailable and
// common.ErrUnauthorized so callers can match with errors.Is.
type Client interface {
	// FetchAll returns the full remote record set for the owner.
	FetchAll(ctx context.Context, ownerID string) ([]models.Payment, error)

	// UpsertAll pushes the batch in one call. Success is all-or-nothing
	// from the caller's perspective.
	UpsertAll(ctx context.Context, ownerID string, records []models.Payment) error

	// Delete removes one remote record by id.
	Delete(ctx context.Context, ownerID string, id string) error

	// Ping checks remote reachability.
	Ping(ctx context.Context) error

	Close() error
}

// SessionAPI is the transport surface the session gate needs.
type SessionAPI interface {
	Ping(ctx context.Context) error

	// Refresh exchanges a refresh token for a new token pair. An explicit
	// rejection maps to common.ErrUnauthorized; transport failure maps to
	// common.ErrUnavailable.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}
