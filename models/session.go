package models

import (
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/reconcile"
)

const (
	SessionRunning  = "running"
	SessionBilled   = "billed"
	SessionReleased = "released"
)

// ActiveSession is a table currently occupied by a running booking.
type ActiveSession struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	TableID         uint           `gorm:"not null;index" json:"table_id"`
	Table           Table          `gorm:"foreignKey:TableID" json:"-"`
	GameID          uint           `gorm:"not null" json:"game_id"`
	CustomerID      *uint          `gorm:"index" json:"customer_id,omitempty"`
	CustomerName    string         `gorm:"type:varchar(100)" json:"customer_name"`
	ReservationID   *uint          `gorm:"index" json:"reservation_id,omitempty"`
	BookingType     string         `gorm:"type:varchar(10);not null;default:'timer'" json:"booking_type"`
	StartTime       time.Time      `gorm:"not null" json:"start_time"`
	DurationMinutes int            `gorm:"not null;default:0" json:"duration_minutes"`
	FrameCount      int            `gorm:"not null;default:0" json:"frame_count"`
	FoodOrders      billing.Cart   `gorm:"type:text;serializer:json" json:"food_orders"`
	Status          string         `gorm:"type:varchar(20);not null;default:'running';index" json:"status"`
	AutoBilled      bool           `gorm:"not null;default:false" json:"auto_billed"`
	Version         int64          `gorm:"not null;default:1" json:"version"`
	AppliedSeqs     reconcile.Acks `gorm:"type:text;serializer:json" json:"applied_seqs"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Snapshot converts the row into the estimator's input.
func (s ActiveSession) Snapshot(advance float64) billing.Session {
	bt, err := billing.ParseBookingType(s.BookingType)
	if err != nil {
		bt = billing.BookingTimer
	}
	return billing.Session{
		BookingType:     bt,
		StartTime:       s.StartTime,
		DurationMinutes: s.DurationMinutes,
		FrameCount:      s.FrameCount,
		Cart:            s.FoodOrders,
		AdvancePayment:  advance,
	}
}
