package syncer

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/models"
	"github.com/dkazakov/paysync/internal/remote"
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

func testPayment(id string, status models.SyncStatus) *models.Payment {
	return &models.Payment{
		ID:           id,
		Name:         "Water",
		Amount:       42.5,
		CurrencyCode: "EUR",
		DueDate:      time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Category:     "utilities",
		SyncStatus:   status,
	}
}

// fakeRemote is a hand-rolled remote.Client double recording every call.
type fakeRemote struct {
	mu sync.Mutex

	fetchRecords []models.Payment
	fetchErr     error
	fetchCalls   int

	upsertErr   error
	upsertCalls int
	upserted    [][]models.Payment
	onUpsert    func(records []models.Payment)

	deleteErr error
	deleted   []string
}

func (f *fakeRemote) FetchAll(ctx context.Context, ownerID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Payment, len(f.fetchRecords))
	copy(out, f.fetchRecords)
	return out, nil
}

func (f *fakeRemote) UpsertAll(ctx context.Context, ownerID string, records []models.Payment) error {
	f.mu.Lock()
	f.upsertCalls++
	batch := make([]models.Payment, len(records))
	copy(batch, records)
	f.upserted = append(f.upserted, batch)
	hook := f.onUpsert
	f.mu.Unlock()

	if hook != nil {
		hook(records)
	}
	return f.upsertErr
}

func (f *fakeRemote) Delete(ctx context.Context, ownerID string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) Ping(ctx context.Context) error { return nil }
func (f *fakeRemote) Close() error                   { return nil }

// fakeGate is a session.Gate double.
type fakeGate struct {
	err     error
	calls   int
	blockCh chan struct{} // when set, EnsureUsableSession waits for a signal
}

func (g *fakeGate) EnsureUsableSession(ctx context.Context) error {
	g.calls++
	if g.blockCh != nil {
		<-g.blockCh
	}
	return g.err
}

func (g *fakeGate) AccessToken(ctx context.Context) (string, error) { return "tok", nil }
func (g *fakeGate) SetTokens(ctx context.Context, pair remote.TokenPair) error {
	return nil
}
func (g *fakeGate) Ping(ctx context.Context) error { return nil }
