// Package syncer reconciles the local payment store with the remote source
// of truth: upload of dirty records, download/merge of the remote set, and
// the orchestrated full cycle.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/models"
	"github.com/dkazakov/paysync/internal/remote"
	"github.com/dkazakov/paysync/internal/repositories"
)

// Uploader pushes locally-dirty records and pending tombstones to the remote
// store.
type Uploader struct {
	store  *repositories.Store
	client remote.Client
	log    logging.Logger
	now    func() time.Time
}

func NewUploader(store *repositories.Store, client remote.Client, log logging.Logger) *Uploader {
	return &Uploader{store: store, client: client, log: log, now: time.Now}
}

// Run executes one upload pass for the owner. Tombstones are reconciled
// first, then the dirty batch is marked syncing, pushed in one bulk upsert,
// and flipped to synced or error as a whole. User-entered fields are never
// touched on failure.
func (u *Uploader) Run(ctx context.Context, ownerID string) error {
	if err := u.reconcileTombstones(ctx, ownerID); err != nil {
		return err
	}

	dirty, err := u.store.Payments.GetDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to select dirty records: %w", err)
	}
	if len(dirty) == 0 {
		return nil
	}

	// Persist the transitional syncing state before the remote call so a
	// crash mid-upload leaves a recoverable state (see RevertInterrupted).
	err = u.store.InTx(ctx, func(ctx context.Context, tx *repositories.Tx) error {
		for i := range dirty {
			dirty[i].PrevStatus = dirty[i].SyncStatus
			dirty[i].SyncStatus = models.StatusSyncing
			if err := tx.Payments.Update(ctx, &dirty[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark records syncing: %w", err)
	}

	if err := u.client.UpsertAll(ctx, ownerID, dirty); err != nil {
		if merr := u.markAll(ctx, dirty, func(p *models.Payment) {
			p.SyncStatus = models.StatusError
			p.PrevStatus = ""
		}); merr != nil {
			u.log.Error(ctx, "failed to mark records errored after upload failure", "err", merr)
		}
		return fmt.Errorf("upload failed: %w", err)
	}

	now := u.now().UTC()
	err = u.markAll(ctx, dirty, func(p *models.Payment) {
		p.SyncStatus = models.StatusSynced
		p.PrevStatus = ""
		p.LastSyncedAt = now
	})
	if err != nil {
		return fmt.Errorf("failed to mark records synced: %w", err)
	}

	u.log.Info(ctx, "upload complete", "count", len(dirty))
	return nil
}

// markAll applies fn to every record and persists the batch in one
// transaction.
func (u *Uploader) markAll(ctx context.Context, batch []models.Payment, fn func(p *models.Payment)) error {
	return u.store.InTx(ctx, func(ctx context.Context, tx *repositories.Tx) error {
		for i := range batch {
			fn(&batch[i])
			if err := tx.Payments.Update(ctx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// reconcileTombstones uploads pending deletion intents. A tombstone is
// discarded only after the remote acknowledges the delete; a remote that has
// no such record counts as acknowledgement, since the record is gone either
// way (a tombstone can exist for a record whose upload never succeeded).
func (u *Uploader) reconcileTombstones(ctx context.Context, ownerID string) error {
	tombs, err := u.store.Tombstones.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to select tombstones: %w", err)
	}
	for _, t := range tombs {
		if err := u.client.Delete(ctx, ownerID, t.PaymentID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("failed to delete remote record %s: %w", t.PaymentID, err)
		}
		if err := u.store.Tombstones.Remove(ctx, t.PaymentID); err != nil {
			return fmt.Errorf("failed to discard tombstone %s: %w", t.PaymentID, err)
		}
	}
	if len(tombs) > 0 {
		u.log.Info(ctx, "tombstones reconciled", "count", len(tombs))
	}
	return nil
}
