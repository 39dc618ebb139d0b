package tombstones

import (
	"context"
	"fmt"

	"github.com/dkazakov/paysync/internal/dbx"
	"github.com/dkazakov/paysync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, t *models.Tombstone) error {
	query := `INSERT INTO tombstones (payment_id, deleted_at) VALUES (?, ?)
		ON CONFLICT(payment_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, t.PaymentID, t.DeletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Tombstone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payment_id, deleted_at FROM tombstones ORDER BY deleted_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select tombstones: %w", err)
	}
	defer rows.Close()

	var result []models.Tombstone
	for rows.Next() {
		var t models.Tombstone
		if err := rows.Scan(&t.PaymentID, &t.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, paymentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tombstones WHERE payment_id = ?`, paymentID)
	if err != nil {
		return fmt.Errorf("failed to remove tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tombstones`)
	if err != nil {
		return fmt.Errorf("failed to clear tombstones: %w", err)
	}
	return nil
}
