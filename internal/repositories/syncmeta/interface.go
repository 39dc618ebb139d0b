package syncmeta

import "context"

// Well-known metadata keys.
const (
	KeyOwnerID       = "owner_id"
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
	KeyLastSyncDate  = "last_sync_date"
	KeyLastSyncError = "last_sync_error"
)

// Repository is a small key/value store for synchronization bookkeeping:
// owner identity, cached session tokens, last sync date and last sync error.
type Repository interface {
	// Get returns the value for key, or nil if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
