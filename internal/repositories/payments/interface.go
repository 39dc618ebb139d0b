package payments

import (
	"context"

	"github.com/dkazakov/paysync/internal/models"
)

// Repository describes the local store gateway for payment records.
// Implementations are backed by a local SQLite database and may be bound to
// either a plain connection or a transaction (see dbx.DBTX); batch
// atomicity is obtained by running against a transactional handle.
type Repository interface {
	// GetAll returns every record in the local store.
	GetAll(ctx context.Context) ([]models.Payment, error)

	// GetByID returns a record by its identifier, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Payment, error)

	// GetByGroupID returns all records sharing the given non-empty group id.
	GetByGroupID(ctx context.Context, groupID string) ([]models.Payment, error)

	// GetDirty returns records with local changes not yet synchronized
	// (status local, modified or error).
	GetDirty(ctx context.Context) ([]models.Payment, error)

	// CountDirty returns the number of dirty records.
	CountDirty(ctx context.Context) (int, error)

	// Insert adds a new record. The id must not already exist.
	Insert(ctx context.Context, p *models.Payment) error

	// Update rewrites an existing record by id.
	Update(ctx context.Context, p *models.Payment) error

	// Upsert inserts or fully overwrites a record by id.
	Upsert(ctx context.Context, p *models.Payment) error

	// Delete removes a record entirely.
	Delete(ctx context.Context, id string) error

	// DeleteAll wipes the table. Used only by explicit destructive recovery.
	DeleteAll(ctx context.Context) error

	// RevertInterrupted rolls any record stuck in the syncing status back to
	// its recorded prior dirty status. Returns the number of reverted rows.
	RevertInterrupted(ctx context.Context) (int, error)
}
