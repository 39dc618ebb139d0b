package services

import (
	"context"

	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/mirror"
	"github.com/dkazakov/paysync/internal/models"
	"github.com/dkazakov/paysync/internal/repositories"
)

// GroupManager keeps linked records (the currency legs of one bill)
// consistent: shared fields are copied across the group and exactly one
// external mirror reference exists per group.
//
// Sibling writes are best-effort: a failure to update a sibling is logged
// and never fails the primary record's operation.
type GroupManager struct {
	store   *repositories.Store
	mirrors mirror.Service
	log     logging.Logger
}

func NewGroupManager(store *repositories.Store, mirrors mirror.Service, log logging.Logger) *GroupManager {
	return &GroupManager{store: store, mirrors: mirrors, log: log}
}

func (m *GroupManager) siblings(ctx context.Context, p *models.Payment) []models.Payment {
	if p.GroupID == "" {
		return nil
	}
	group, err := m.store.Payments.GetByGroupID(ctx, p.GroupID)
	if err != nil {
		m.log.Warn(ctx, "failed to load group siblings", "group", p.GroupID, "err", err)
		return nil
	}
	sibs := group[:0]
	for _, s := range group {
		if s.ID != p.ID {
			sibs = append(sibs, s)
		}
	}
	return sibs
}

// EnsureMirrorRef guarantees p carries the group's single mirror reference.
// If a sibling already has one it is reused; otherwise a new mirror is
// created for this record. Mirror creation failure is logged and the record
// proceeds without a reference.
func (m *GroupManager) EnsureMirrorRef(ctx context.Context, p *models.Payment) {
	if p.ExternalMirrorRef != "" {
		return
	}

	for _, s := range m.siblings(ctx, p) {
		if s.ExternalMirrorRef != "" {
			p.ExternalMirrorRef = s.ExternalMirrorRef
			return
		}
	}

	ref, err := m.mirrors.CreateMirror(ctx, p.Name, p.DueDate)
	if err != nil {
		m.log.Warn(ctx, "mirror creation failed", "payment", p.ID, "err", err)
		return
	}
	p.ExternalMirrorRef = ref
}

// PropagateShared copies the shared fields (name, due date, category) and
// the mirror reference from primary to every sibling, preserving
// sibling-specific fields (amount, currency, paid flag). Each updated
// sibling is marked edited so the change is uploaded on the next cycle.
func (m *GroupManager) PropagateShared(ctx context.Context, primary *models.Payment) {
	for _, s := range m.siblings(ctx, primary) {
		sib := s
		changed := sib.Name != primary.Name ||
			!sib.DueDate.Equal(primary.DueDate) ||
			sib.Category != primary.Category ||
			(primary.ExternalMirrorRef != "" && sib.ExternalMirrorRef != primary.ExternalMirrorRef)
		if !changed {
			continue
		}

		sib.Name = primary.Name
		sib.DueDate = primary.DueDate
		sib.Category = primary.Category
		if primary.ExternalMirrorRef != "" {
			sib.ExternalMirrorRef = primary.ExternalMirrorRef
		}
		sib.MarkEdited()

		if err := m.store.Payments.Update(ctx, &sib); err != nil {
			m.log.Warn(ctx, "sibling propagation failed", "payment", sib.ID, "err", err)
		}
	}
}

// HandleDelete decides the mirror's fate when p is removed: the mirror is
// kept while other group members remain and removed with the last one.
// Removal failure is logged; the local delete stands.
func (m *GroupManager) HandleDelete(ctx context.Context, p *models.Payment) {
	if p.ExternalMirrorRef == "" {
		return
	}
	if len(m.siblings(ctx, p)) > 0 {
		return
	}
	if err := m.mirrors.RemoveMirror(ctx, p.ExternalMirrorRef); err != nil {
		m.log.Warn(ctx, "mirror removal failed", "ref", p.ExternalMirrorRef, "err", err)
	}
}
