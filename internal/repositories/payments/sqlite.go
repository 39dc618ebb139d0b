package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/dbx"
	"github.com/dkazakov/paysync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, name, amount, currency_code, due_date, is_paid, category,
	external_mirror_ref, group_id, sync_status, prev_status, last_synced_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var lastSynced sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Amount, &p.CurrencyCode, &p.DueDate, &p.IsPaid,
		&p.Category, &p.ExternalMirrorRef, &p.GroupID, &p.SyncStatus, &p.PrevStatus, &lastSynced)
	if err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		p.LastSyncedAt = lastSynced.Time
	}
	return p, nil
}

func (r *SQLiteRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}
	defer rows.Close()

	var result []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func lastSyncedArg(p *models.Payment) any {
	if p.LastSyncedAt.IsZero() {
		return nil
	}
	return p.LastSyncedAt.UTC()
}

// GetAll returns every record in the store.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Payment, error) {
	return r.queryMany(ctx, `SELECT `+selectColumns+` FROM payments ORDER BY due_date, id`)
}

// GetByID returns the record with the given id, or common.ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return p, nil
}

// GetByGroupID returns all records in the given group.
func (r *SQLiteRepository) GetByGroupID(ctx context.Context, groupID string) ([]models.Payment, error) {
	return r.queryMany(ctx, `SELECT `+selectColumns+` FROM payments WHERE group_id = ? ORDER BY id`, groupID)
}

// GetDirty returns records awaiting upload.
func (r *SQLiteRepository) GetDirty(ctx context.Context) ([]models.Payment, error) {
	return r.queryMany(ctx, `SELECT `+selectColumns+` FROM payments WHERE sync_status IN (?, ?, ?) ORDER BY id`,
		models.StatusLocal, models.StatusModified, models.StatusError)
}

// CountDirty returns the number of records awaiting upload.
func (r *SQLiteRepository) CountDirty(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM payments WHERE sync_status IN (?, ?, ?)`,
		models.StatusLocal, models.StatusModified, models.StatusError).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count dirty payments: %w", err)
	}
	return n, nil
}

// Insert adds a new record.
func (r *SQLiteRepository) Insert(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (` + insertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, insertArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

const insertColumns = `id, name, amount, currency_code, due_date, is_paid, category,
	external_mirror_ref, group_id, sync_status, prev_status, last_synced_at`

func insertArgs(p *models.Payment) []any {
	return []any{p.ID, p.Name, p.Amount, p.CurrencyCode, p.DueDate.UTC(), p.IsPaid, p.Category,
		p.ExternalMirrorRef, p.GroupID, p.SyncStatus, p.PrevStatus, lastSyncedArg(p)}
}

// Update rewrites an existing record by id. It expects exactly one row to be affected.
func (r *SQLiteRepository) Update(ctx context.Context, p *models.Payment) error {
	query := `UPDATE payments SET name=?, amount=?, currency_code=?, due_date=?, is_paid=?,
		category=?, external_mirror_ref=?, group_id=?, sync_status=?, prev_status=?, last_synced_at=?
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Amount, p.CurrencyCode, p.DueDate.UTC(),
		p.IsPaid, p.Category, p.ExternalMirrorRef, p.GroupID, p.SyncStatus, p.PrevStatus,
		lastSyncedArg(p), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

// Upsert inserts or fully overwrites a record by id.
func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (` + insertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			amount = excluded.amount,
			currency_code = excluded.currency_code,
			due_date = excluded.due_date,
			is_paid = excluded.is_paid,
			category = excluded.category,
			external_mirror_ref = excluded.external_mirror_ref,
			group_id = excluded.group_id,
			sync_status = excluded.sync_status,
			prev_status = excluded.prev_status,
			last_synced_at = excluded.last_synced_at`
	_, err := r.db.ExecContext(ctx, query, insertArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// Delete removes a record entirely.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteAll wipes the payment table.
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments`)
	if err != nil {
		return fmt.Errorf("failed to wipe payments: %w", err)
	}
	return nil
}

// RevertInterrupted rolls records stuck in the syncing status back to their
// prior dirty status. Records with no recorded prior status fall back to
// local (never synced) or modified (synced at least once).
func (r *SQLiteRepository) RevertInterrupted(ctx context.Context) (int, error) {
	query := `UPDATE payments SET
		sync_status = CASE
			WHEN prev_status != '' THEN prev_status
			WHEN last_synced_at IS NULL THEN ?
			ELSE ?
		END,
		prev_status = ''
		WHERE sync_status = ?`
	res, err := r.db.ExecContext(ctx, query, models.StatusLocal, models.StatusModified, models.StatusSyncing)
	if err != nil {
		return 0, fmt.Errorf("failed to revert interrupted uploads: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(ra), nil
}
