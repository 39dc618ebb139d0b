package tombstones

import (
	"context"

	"github.com/dkazakov/paysync/internal/models"
)

// Repository stores deletion-intent markers for previously synced records.
// A tombstone is uploaded during the next sync cycle and removed once the
// remote store acknowledges the delete.
type Repository interface {
	// Add records a deletion intent. Adding the same id twice is a no-op.
	Add(ctx context.Context, t *models.Tombstone) error

	// GetAll returns all pending tombstones.
	GetAll(ctx context.Context) ([]models.Tombstone, error)

	// Remove discards an acknowledged tombstone.
	Remove(ctx context.Context, paymentID string) error

	// Clear wipes the table. Used only by explicit destructive recovery.
	Clear(ctx context.Context) error
}
