package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/models"
	"github.com/dkazakov/paysync/internal/remote"
	"github.com/dkazakov/paysync/internal/repositories"
	"github.com/dkazakov/paysync/internal/repositories/syncmeta"
	"github.com/dkazakov/paysync/internal/session"
)

// Status is the externally observable synchronization state besides the
// records themselves.
type Status struct {
	PendingCount  int
	LastSyncDate  *time.Time
	LastSyncError string
	InFlight      bool
}

// Orchestrator runs the full reconciliation cycle: session gate, upload,
// download, bookkeeping. It is the only entry point external callers should
// use for a complete sync.
type Orchestrator struct {
	store      *repositories.Store
	client     remote.Client
	gate       session.Gate
	uploader   *Uploader
	downloader *Downloader
	events     *Broadcaster
	log        logging.Logger
	now        func() time.Time

	inFlight atomic.Bool
}

func NewOrchestrator(store *repositories.Store, client remote.Client, gate session.Gate, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		client:     client,
		gate:       gate,
		uploader:   NewUploader(store, client, log),
		downloader: NewDownloader(store, client, log),
		events:     NewBroadcaster(),
		log:        log,
		now:        time.Now,
	}
}

// Subscribe registers a listener for sync-cycle completion events.
func (o *Orchestrator) Subscribe() (<-chan CycleResult, func()) {
	return o.events.Subscribe()
}

// Recover rolls back records left in the syncing status by an interrupted
// run. Call once at startup, before the first PerformSync.
func (o *Orchestrator) Recover(ctx context.Context) error {
	n, err := o.store.Payments.RevertInterrupted(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		o.log.Warn(ctx, "reverted records from interrupted upload", "count", n)
	}
	return nil
}

func (o *Orchestrator) ownerID(ctx context.Context) (string, error) {
	owner, err := o.store.Meta.Get(ctx, syncmeta.KeyOwnerID)
	if err != nil {
		return "", err
	}
	if len(owner) == 0 {
		return "", common.ErrSessionExpired
	}
	return string(owner), nil
}

// PerformSync runs one full cycle. A call made while another cycle is in
// flight returns common.ErrSyncInProgress without starting anything.
// A session that cannot be validated right now aborts the cycle with
// common.ErrUnavailable and leaves every record's sync status untouched.
func (o *Orchestrator) PerformSync(ctx context.Context) error {
	if !o.inFlight.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	defer o.inFlight.Store(false)

	err := o.runCycle(ctx)
	o.finish(ctx, err)
	return err
}

func (o *Orchestrator) runCycle(ctx context.Context) error {
	owner, err := o.ownerID(ctx)
	if err != nil {
		return err
	}

	if err := o.gate.EnsureUsableSession(ctx); err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			o.log.Info(ctx, "sync skipped, remote unavailable")
		}
		return err
	}

	// Upload strictly precedes download so locally authored changes reach
	// the server before anything is pulled back.
	if err := o.uploader.Run(ctx, owner); err != nil {
		return err
	}
	return o.downloader.Run(ctx, owner)
}

// finish recomputes the pending count, persists last sync date/error and
// notifies subscribers.
func (o *Orchestrator) finish(ctx context.Context, cycleErr error) {
	now := o.now().UTC()

	pending, err := o.store.Payments.CountDirty(ctx)
	if err != nil {
		o.log.Error(ctx, "failed to recompute pending count", "err", err)
	}

	if cycleErr == nil {
		if err := o.store.Meta.Set(ctx, syncmeta.KeyLastSyncDate, []byte(now.Format(time.RFC3339Nano))); err != nil {
			o.log.Error(ctx, "failed to store last sync date", "err", err)
		}
		if err := o.store.Meta.Delete(ctx, syncmeta.KeyLastSyncError); err != nil {
			o.log.Error(ctx, "failed to clear last sync error", "err", err)
		}
		o.log.Info(ctx, "sync complete", "pending", pending)
	} else {
		if err := o.store.Meta.Set(ctx, syncmeta.KeyLastSyncError, []byte(cycleErr.Error())); err != nil {
			o.log.Error(ctx, "failed to store last sync error", "err", err)
		}
		o.log.Warn(ctx, "sync failed", "err", cycleErr, "pending", pending)
	}

	o.events.Publish(CycleResult{Err: cycleErr, PendingCount: pending, CompletedAt: now})
}

// Status returns the persisted synchronization state surfaced to callers.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	pending, err := o.store.Payments.CountDirty(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{PendingCount: pending, InFlight: o.inFlight.Load()}

	if raw, err := o.store.Meta.Get(ctx, syncmeta.KeyLastSyncDate); err != nil {
		return nil, err
	} else if len(raw) > 0 {
		ts, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return nil, fmt.Errorf("corrupt last sync date: %w", err)
		}
		st.LastSyncDate = &ts
	}

	if raw, err := o.store.Meta.Get(ctx, syncmeta.KeyLastSyncError); err != nil {
		return nil, err
	} else if len(raw) > 0 {
		st.LastSyncError = string(raw)
	}

	return st, nil
}

// ResetFromRemote discards the entire local record set, including any
// not-yet-uploaded changes and pending tombstones, and rebuilds it from the
// remote store. It is the last-resort recovery path for local corruption and
// must be explicitly confirmed; it is never run automatically.
func (o *Orchestrator) ResetFromRemote(ctx context.Context, confirm bool) error {
	if !confirm {
		return common.ErrNotConfirmed
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	defer o.inFlight.Store(false)

	owner, err := o.ownerID(ctx)
	if err != nil {
		return err
	}
	if err := o.gate.EnsureUsableSession(ctx); err != nil {
		return err
	}

	remoteRecords, err := o.client.FetchAll(ctx, owner)
	if err != nil {
		return fmt.Errorf("fetch for rebuild failed: %w", err)
	}

	now := o.now().UTC()
	err = o.store.InTx(ctx, func(ctx context.Context, tx *repositories.Tx) error {
		if err := tx.Payments.DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Tombstones.Clear(ctx); err != nil {
			return err
		}
		for i := range remoteRecords {
			r := remoteRecords[i]
			r.SyncStatus = models.StatusSynced
			r.LastSyncedAt = now
			if err := tx.Payments.Insert(ctx, &r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	o.log.Warn(ctx, "local store rebuilt from remote", "records", len(remoteRecords))
	o.finish(ctx, nil)
	return nil
}
