package models

import (
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
)

const (
	ReservationPending   = "pending"
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

type Reservation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TableID         uint      `gorm:"not null;index" json:"table_id"`
	CustomerID      *uint     `gorm:"index" json:"customer_id,omitempty"`
	CustomerName    string    `gorm:"type:varchar(100);not null" json:"customer_name"`
	Phone           string    `gorm:"type:varchar(20)" json:"phone"`
	ReservationTime time.Time `gorm:"not null;index" json:"reservation_time"`
	DurationMinutes int       `gorm:"not null;default:60" json:"duration_minutes"`
	BookingType     string    `gorm:"type:varchar(10);not null;default:'timer'" json:"booking_type"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes           string    `gorm:"type:text" json:"notes"`
	AdvanceAmount   float64   `gorm:"type:decimal(10,2);not null;default:0" json:"advance_amount"`
	AdvanceMethod   string    `gorm:"type:varchar(10)" json:"advance_method,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r Reservation) Advance() billing.AdvancePayment {
	return billing.AdvancePayment{
		Amount: r.AdvanceAmount,
		Method: billing.PaymentMethod(r.AdvanceMethod),
	}
}

// NormalizeAdvance moves a legacy "[PAID_<MODE>: amount]" tag out of the notes into the
// structured advance fields. Structured fields win when both are present.
func (r *Reservation) NormalizeAdvance() {
	adv, ok := billing.ParseAdvanceTag(r.Notes)
	if !ok {
		return
	}
	r.Notes = billing.StripAdvanceTag(r.Notes)
	if r.AdvanceAmount > 0 {
		return
	}
	r.AdvanceAmount = adv.Amount
	r.AdvanceMethod = string(adv.Method)
}
