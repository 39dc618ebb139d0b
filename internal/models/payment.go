// Package models defines the synchronizable payment record and its
// synchronization metadata.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkazakov/paysync/internal/common"
)

// Payment is a locally mutable record reconciled against the remote store.
type Payment struct {
	// ID is a globally unique identifier, assigned at creation and never
	// reassigned.
	ID string

	// User-visible fields.
	Name         string
	Amount       float64
	CurrencyCode string
	DueDate      time.Time
	IsPaid       bool
	Category     string

	// ExternalMirrorRef references a mirrored external artifact (such as a
	// calendar event). The artifact is owned by the mirror service; only the
	// reference is stored here.
	ExternalMirrorRef string

	// GroupID links records that must stay consistent, e.g. the two
	// currency legs of one bill. Empty means ungrouped.
	GroupID string

	// SyncStatus tracks where this record stands relative to the remote
	// store.
	SyncStatus SyncStatus

	// PrevStatus records the dirty status a record had before being marked
	// StatusSyncing, so an interrupted upload can be reverted on restart.
	// Empty unless SyncStatus == StatusSyncing.
	PrevStatus SyncStatus

	// LastSyncedAt is set only on successful upload or download.
	LastSyncedAt time.Time
}

// Validate rejects a payment before any store write. Errors wrap
// common.ErrValidation.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrValidation)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", common.ErrValidation, p.Amount)
	}
	if len(p.CurrencyCode) != 3 || strings.ToUpper(p.CurrencyCode) != p.CurrencyCode {
		return fmt.Errorf("%w: currency code must be a 3-letter uppercase code, got %q", common.ErrValidation, p.CurrencyCode)
	}
	if p.DueDate.IsZero() {
		return fmt.Errorf("%w: due date must be set", common.ErrValidation)
	}
	return nil
}

// MarkEdited adjusts sync metadata after a local edit. A previously synced
// record becomes modified and loses its LastSyncedAt (the timestamp is only
// set while the record matches the remote value); records that are already
// dirty keep their status.
func (p *Payment) MarkEdited() {
	if p.SyncStatus == StatusSynced {
		p.SyncStatus = StatusModified
	}
	p.LastSyncedAt = time.Time{}
}

// ApplyRemote overwrites the user-visible fields with values from the remote
// copy r and marks the record synced as of now. Sync bookkeeping fields other
// than SyncStatus/LastSyncedAt are left alone.
func (p *Payment) ApplyRemote(r *Payment, now time.Time) {
	p.Name = r.Name
	p.Amount = r.Amount
	p.CurrencyCode = r.CurrencyCode
	p.DueDate = r.DueDate
	p.IsPaid = r.IsPaid
	p.Category = r.Category
	p.ExternalMirrorRef = r.ExternalMirrorRef
	p.GroupID = r.GroupID
	p.SyncStatus = StatusSynced
	p.PrevStatus = ""
	p.LastSyncedAt = now
}

// Tombstone is a deletion-intent marker for a previously synced record. It is
// kept until the remote store acknowledges the corresponding delete.
type Tombstone struct {
	// PaymentID is the id of the deleted record.
	PaymentID string

	// DeletedAt is when the local delete happened, in UTC.
	DeletedAt time.Time
}
