// Package common defines shared constants and sentinel errors used across
// the sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors, rejected before any state mutation.
	ErrValidation = errors.New("validation error")

	// Transport / session errors. ErrUnavailable is the recoverable
	// "offline, keep working locally" case; ErrSessionExpired is the hard
	// authentication failure that requires user action.
	ErrUnavailable    = errors.New("remote unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")

	// Engine flow control.
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotConfirmed   = errors.New("destructive operation not confirmed")
)
