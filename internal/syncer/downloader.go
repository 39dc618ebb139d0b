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

// Downloader pulls the full remote record set and reconciles it into the
// local store. The merge is all-or-nothing per cycle: it runs inside one
// transaction, so a failure leaves the local store exactly as it was.
type Downloader struct {
	store  *repositories.Store
	client remote.Client
	log    logging.Logger
	now    func() time.Time
}

func NewDownloader(store *repositories.Store, client remote.Client, log logging.Logger) *Downloader {
	return &Downloader{store: store, client: client, log: log, now: time.Now}
}

// Run executes one reconciliation pass for the owner. Per remote record:
// fresh records are inserted as synced; records with a dirty local copy are
// skipped (local wins); everything else is overwritten with the remote
// value. Local-only records are never pruned.
func (d *Downloader) Run(ctx context.Context, ownerID string) error {
	remoteRecords, err := d.client.FetchAll(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	now := d.now().UTC()
	var inserted, updated, skipped int

	err = d.store.InTx(ctx, func(ctx context.Context, tx *repositories.Tx) error {
		// A record with a pending tombstone was deleted here; never let a
		// stale remote copy resurrect it.
		tombs, err := tx.Tombstones.GetAll(ctx)
		if err != nil {
			return err
		}
		deletedLocally := make(map[string]struct{}, len(tombs))
		for _, t := range tombs {
			deletedLocally[t.PaymentID] = struct{}{}
		}

		for i := range remoteRecords {
			r := &remoteRecords[i]

			if _, ok := deletedLocally[r.ID]; ok {
				skipped++
				continue
			}

			local, err := tx.Payments.GetByID(ctx, r.ID)
			if errors.Is(err, common.ErrNotFound) {
				fresh := *r
				fresh.SyncStatus = models.StatusSynced
				fresh.LastSyncedAt = now
				if err := tx.Payments.Insert(ctx, &fresh); err != nil {
					return err
				}
				inserted++
				continue
			}
			if err != nil {
				return err
			}

			if !local.SyncStatus.MergeMayOverwrite() {
				skipped++
				continue
			}

			local.ApplyRemote(r, now)
			if err := tx.Payments.Update(ctx, local); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	d.log.Info(ctx, "download complete",
		"remote", len(remoteRecords), "inserted", inserted, "updated", updated, "skipped", skipped)
	return nil
}
