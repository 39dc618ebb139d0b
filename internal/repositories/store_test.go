package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newPayment(id string) *models.Payment {
	return &models.Payment{
		ID:           id,
		Name:         "Internet",
		Amount:       30,
		CurrencyCode: "EUR",
		DueDate:      time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		SyncStatus:   models.StatusLocal,
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Payments.Insert(ctx, newPayment("p1")))
	require.NoError(t, s.Tombstones.Add(ctx, &models.Tombstone{PaymentID: "x", DeletedAt: time.Now()}))
	require.NoError(t, s.Meta.Set(ctx, "k", []byte("v")))
}

func TestInTxCommit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := tx.Payments.Insert(ctx, newPayment("p1")); err != nil {
			return err
		}
		return tx.Payments.Insert(ctx, newPayment("p2"))
	})
	require.NoError(t, err)

	all, err := s.Payments.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInTxRollback(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := tx.Payments.Insert(ctx, newPayment("p1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// the batch fully rolled back
	_, err = s.Payments.GetByID(ctx, "p1")
	require.ErrorIs(t, err, common.ErrNotFound)
}
