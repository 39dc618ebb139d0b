package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/models"
)

func TestUploadNothingDirty(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusSynced)))

	rc := &fakeRemote{}
	u := NewUploader(store, rc, discardLogger())

	require.NoError(t, u.Run(ctx, "alice"))
	assert.Zero(t, rc.upsertCalls, "no remote call for an empty dirty set")
}

func TestUploadSuccess(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusLocal)))
	require.NoError(t, store.Payments.Insert(ctx, testPayment("b", models.StatusModified)))
	require.NoError(t, store.Payments.Insert(ctx, testPayment("c", models.StatusError)))
	require.NoError(t, store.Payments.Insert(ctx, testPayment("d", models.StatusSynced)))

	rc := &fakeRemote{}
	// the transitional syncing state must be persisted before the remote call
	rc.onUpsert = func(records []models.Payment) {
		for _, r := range records {
			p, err := store.Payments.GetByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusSyncing, p.SyncStatus)
			assert.NotEmpty(t, p.PrevStatus)
		}
	}

	u := NewUploader(store, rc, discardLogger())
	u.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, u.Run(ctx, "alice"))

	require.Len(t, rc.upserted, 1)
	assert.Len(t, rc.upserted[0], 3, "only dirty records are pushed")

	for _, id := range []string{"a", "b", "c"} {
		p, err := store.Payments.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSynced, p.SyncStatus)
		assert.Empty(t, p.PrevStatus)
		assert.True(t, p.LastSyncedAt.Equal(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))
	}
}

func TestUploadFailure(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	original := testPayment("a", models.StatusLocal)
	original.Amount = 99.9
	require.NoError(t, store.Payments.Insert(ctx, original))

	rc := &fakeRemote{upsertErr: common.ErrUnavailable}
	u := NewUploader(store, rc, discardLogger())

	err := u.Run(ctx, "alice")
	require.ErrorIs(t, err, common.ErrUnavailable)

	p, err := store.Payments.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, p.SyncStatus)
	assert.Empty(t, p.PrevStatus)
	// user-entered fields are never touched on failure
	assert.Equal(t, 99.9, p.Amount)
	assert.Equal(t, "Water", p.Name)
	assert.True(t, p.LastSyncedAt.IsZero())
}

func TestUploadRetryAfterError(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusLocal)))

	rc := &fakeRemote{upsertErr: common.ErrUnavailable}
	u := NewUploader(store, rc, discardLogger())
	require.Error(t, u.Run(ctx, "alice"))

	// error is not terminal: the next run picks the record up again
	rc.upsertErr = nil
	require.NoError(t, u.Run(ctx, "alice"))

	p, err := store.Payments.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, p.SyncStatus)
}

func TestUploadTombstones(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Tombstones.Add(ctx, &models.Tombstone{PaymentID: "dead", DeletedAt: time.Now()}))

	rc := &fakeRemote{}
	u := NewUploader(store, rc, discardLogger())

	require.NoError(t, u.Run(ctx, "alice"))
	assert.Equal(t, []string{"dead"}, rc.deleted)

	// acknowledged tombstone is discarded
	tombs, err := store.Tombstones.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombs)
}

func TestUploadTombstoneFailureKeepsTombstone(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Tombstones.Add(ctx, &models.Tombstone{PaymentID: "dead", DeletedAt: time.Now()}))
	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusLocal)))

	rc := &fakeRemote{deleteErr: common.ErrUnavailable}
	u := NewUploader(store, rc, discardLogger())

	err := u.Run(ctx, "alice")
	require.ErrorIs(t, err, common.ErrUnavailable)

	tombs, err := store.Tombstones.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tombs, 1, "unacknowledged tombstone survives")

	// the dirty batch was never marked syncing
	p, err := store.Payments.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocal, p.SyncStatus)
	assert.Zero(t, rc.upsertCalls)
}

func TestUploadTombstoneForUnknownRemoteRecord(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// a record deleted after a failed upload has a tombstone but may have
	// never reached the remote store
	require.NoError(t, store.Tombstones.Add(ctx, &models.Tombstone{PaymentID: "ghost", DeletedAt: time.Now()}))
	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusLocal)))

	rc := &fakeRemote{deleteErr: common.ErrNotFound}
	u := NewUploader(store, rc, discardLogger())

	require.NoError(t, u.Run(ctx, "alice"), "a missing remote record counts as acknowledged")

	tombs, err := store.Tombstones.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombs, "tombstone discarded instead of retried forever")

	// the rest of the cycle proceeds
	p, err := store.Payments.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, p.SyncStatus)
}

func TestUploadIdempotentWhenSynced(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := testPayment("a", models.StatusSynced)
	p.LastSyncedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Payments.Insert(ctx, p))

	rc := &fakeRemote{}
	u := NewUploader(store, rc, discardLogger())

	require.NoError(t, u.Run(ctx, "alice"))
	require.NoError(t, u.Run(ctx, "alice"))
	assert.Zero(t, rc.upsertCalls)

	got, err := store.Payments.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
	assert.True(t, got.LastSyncedAt.Equal(p.LastSyncedAt))
}

func TestUploadMarkFailureSurfaces(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Payments.Insert(ctx, testPayment("a", models.StatusLocal)))

	rc := &fakeRemote{upsertErr: errors.New("boom")}
	u := NewUploader(store, rc, discardLogger())

	err := u.Run(ctx, "alice")
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
}
