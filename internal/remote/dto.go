package remote

import (
	"time"

	"github.com/dkazakov/paysync/internal/models"
)

// paymentDTO is the wire form of a payment record. Sync bookkeeping fields
// stay local and never cross the wire.
type paymentDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Amount            float64   `json:"amount"`
	CurrencyCode      string    `json:"currency_code"`
	DueDate           time.Time `json:"due_date"`
	IsPaid            bool      `json:"is_paid"`
	Category          string    `json:"category"`
	ExternalMirrorRef string    `json:"external_mirror_ref,omitempty"`
	GroupID           string    `json:"group_id,omitempty"`
}

func toDTO(p *models.Payment) paymentDTO {
	return paymentDTO{
		ID:                p.ID,
		Name:              p.Name,
		Amount:            p.Amount,
		CurrencyCode:      p.CurrencyCode,
		DueDate:           p.DueDate.UTC(),
		IsPaid:            p.IsPaid,
		Category:          p.Category,
		ExternalMirrorRef: p.ExternalMirrorRef,
		GroupID:           p.GroupID,
	}
}

func fromDTO(d paymentDTO) models.Payment {
	return models.Payment{
		ID:                d.ID,
		Name:              d.Name,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		DueDate:           d.DueDate,
		IsPaid:            d.IsPaid,
		Category:          d.Category,
		ExternalMirrorRef: d.ExternalMirrorRef,
		GroupID:           d.GroupID,
	}
}
