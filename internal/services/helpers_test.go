package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/repositories"
)

const testSchema = `
CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  amount REAL NOT NULL,
  currency_code TEXT NOT NULL,
  due_date TIMESTAMP NOT NULL,
  is_paid INTEGER NOT NULL DEFAULT 0,
  category TEXT NOT NULL DEFAULT '',
  external_mirror_ref TEXT NOT NULL DEFAULT '',
  group_id TEXT NOT NULL DEFAULT '',
  sync_status TEXT NOT NULL,
  prev_status TEXT NOT NULL DEFAULT '',
  last_synced_at TIMESTAMP NULL
);

CREATE TABLE tombstones (
  payment_id TEXT PRIMARY KEY,
  deleted_at TIMESTAMP NOT NULL
);

CREATE TABLE syncmeta (
  key TEXT PRIMARY KEY,
  value BLOB
);
`

func setupStore(t *testing.T) *repositories.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return repositories.NewStore(db)
}

func discardLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelError)
}

func validInput() PaymentInput {
	return PaymentInput{
		Name:         "Rent",
		Amount:       1200,
		CurrencyCode: "EUR",
		DueDate:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Category:     "housing",
	}
}

// fakeMirror is a mirror.Service double recording every call.
type fakeMirror struct {
	createErr error
	updateErr error
	removeErr error

	created []string
	updated []string
	removed []string
	seq     int
}

func (f *fakeMirror) CreateMirror(ctx context.Context, title string, date time.Time) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	ref := fmt.Sprintf("mirror-%d", f.seq)
	f.created = append(f.created, ref)
	return ref, nil
}

func (f *fakeMirror) UpdateMirror(ctx context.Context, ref string, title string, date time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, ref)
	return nil
}

func (f *fakeMirror) RemoveMirror(ctx context.Context, ref string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, ref)
	return nil
}
