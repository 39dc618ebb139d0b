// Package services contains the application-facing use cases over the local
// store: create, update, pay and delete payments, with group consistency
// and mirror bookkeeping applied around each write.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkazakov/paysync/internal/common"
	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/mirror"
	"github.com/dkazakov/paysync/internal/models"
	"github.com/dkazakov/paysync/internal/repositories"
)

// PaymentInput carries the user-editable fields of a payment.
type PaymentInput struct {
	Name         string
	Amount       float64
	CurrencyCode string
	DueDate      time.Time
	Category     string
	GroupID      string
}

// PaymentService implements the create/update/delete use cases. Validation
// failures are rejected before any state mutation; writes to group siblings
// and the mirror service are best-effort.
type PaymentService struct {
	store   *repositories.Store
	groups  *GroupManager
	mirrors mirror.Service
	log     logging.Logger
}

func NewPaymentService(store *repositories.Store, mirrors mirror.Service, log logging.Logger) *PaymentService {
	return &PaymentService{
		store:   store,
		groups:  NewGroupManager(store, mirrors, log),
		mirrors: mirrors,
		log:     log,
	}
}

// List returns all local records.
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	return s.store.Payments.GetAll(ctx)
}

// Get returns one record by id.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.store.Payments.GetByID(ctx, id)
}

// Add creates a new record in the local status. A mirror reference is
// resolved (reused from a group sibling or freshly created) before the
// insert, and shared fields are propagated to siblings afterwards.
func (s *PaymentService) Add(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	p := &models.Payment{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Amount:       in.Amount,
		CurrencyCode: in.CurrencyCode,
		DueDate:      in.DueDate.UTC(),
		Category:     in.Category,
		GroupID:      in.GroupID,
		SyncStatus:   models.StatusLocal,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.groups.EnsureMirrorRef(ctx, p)

	if err := s.store.Payments.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	s.groups.PropagateShared(ctx, p)
	return p, nil
}

// Update applies the user-editable fields to an existing record and marks it
// edited. Records with an upload in flight are rejected with
// common.ErrSyncInProgress.
func (s *PaymentService) Update(ctx context.Context, id string, in PaymentInput) (*models.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SyncStatus == models.StatusSyncing {
		return nil, common.ErrSyncInProgress
	}

	p.Name = in.Name
	p.Amount = in.Amount
	p.CurrencyCode = in.CurrencyCode
	p.DueDate = in.DueDate.UTC()
	p.Category = in.Category
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.MarkEdited()

	if err := s.store.Payments.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	if p.ExternalMirrorRef != "" {
		if err := s.mirrors.UpdateMirror(ctx, p.ExternalMirrorRef, p.Name, p.DueDate); err != nil {
			s.log.Warn(ctx, "mirror update failed", "ref", p.ExternalMirrorRef, "err", err)
		}
	}

	s.groups.PropagateShared(ctx, p)
	return p, nil
}

// SetPaid flips the paid flag. The flag is sibling-specific and is not
// propagated across the group.
func (s *PaymentService) SetPaid(ctx context.Context, id string, paid bool) (*models.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SyncStatus == models.StatusSyncing {
		return nil, common.ErrSyncInProgress
	}

	p.IsPaid = paid
	p.MarkEdited()

	if err := s.store.Payments.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return p, nil
}

// Delete removes a record locally. If the record may exist remotely, a
// tombstone is written in the same transaction so the remote copy is deleted
// on the next cycle; a never-synced record is removed with no trace. The
// group mirror is removed only with the last group member.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	p, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.SyncStatus == models.StatusSyncing {
		return common.ErrSyncInProgress
	}

	// A record that is not purely local may have reached the remote store
	// at some point; only those need a deletion intent.
	needsTombstone := p.SyncStatus != models.StatusLocal || !p.LastSyncedAt.IsZero()

	err = s.store.InTx(ctx, func(ctx context.Context, tx *repositories.Tx) error {
		if needsTombstone {
			t := &models.Tombstone{PaymentID: p.ID, DeletedAt: time.Now().UTC()}
			if err := tx.Tombstones.Add(ctx, t); err != nil {
				return err
			}
		}
		return tx.Payments.Delete(ctx, p.ID)
	})
	if err != nil {
		return fmt.Errorf("error deleting payment: %w", err)
	}

	s.groups.HandleDelete(ctx, p)
	return nil
}
