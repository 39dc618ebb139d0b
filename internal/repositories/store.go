// Package repositories wires the local SQLite store: schema migrations,
// repository construction and transactional batches.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dkazakov/paysync/internal/dbx"
	"github.com/dkazakov/paysync/internal/migrations"
	"github.com/dkazakov/paysync/internal/repositories/payments"
	"github.com/dkazakov/paysync/internal/repositories/syncmeta"
	"github.com/dkazakov/paysync/internal/repositories/tombstones"
)

// Store owns the local database handle and hands out repositories bound
// either to the plain connection or, via InTx, to one transaction.
type Store struct {
	db *sql.DB

	Payments   payments.Repository
	Tombstones tombstones.Repository
	Meta       syncmeta.Repository
}

// Tx bundles repositories bound to a single transaction. A batch executed
// through InTx either fully commits or fully rolls back.
type Tx struct {
	Payments   payments.Repository
	Tombstones tombstones.Repository
	Meta       syncmeta.Repository
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn, migrates the
// schema and returns a ready Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc sqlite allows one writer; keep the pool at a single
	// connection so transactions never contend with themselves.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewStore(db), nil
}

// NewStore builds a Store over an already opened and migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		Payments:   payments.NewSQLiteRepository(db),
		Tombstones: tombstones.NewSQLiteRepository(db),
		Meta:       syncmeta.NewSQLiteRepository(db),
	}
}

// DB exposes the underlying handle for callers that need it (tests, close).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// InTx runs fn with repositories bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, h dbx.DBTX) error {
		tx := &Tx{
			Payments:   payments.NewSQLiteRepository(h),
			Tombstones: tombstones.NewSQLiteRepository(h),
			Meta:       syncmeta.NewSQLiteRepository(h),
		}
		return fn(ctx, tx)
	})
}
