package models

import "time"

const (
	QueueWaiting   = "waiting"
	QueueAssigned  = "assigned"
	QueueCancelled = "cancelled"
)

type QueueEntry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Token           string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"token"`
	GameID          uint      `gorm:"not null;index" json:"game_id"`
	TableID         *uint     `gorm:"index" json:"table_id,omitempty"`
	CustomerID      *uint     `json:"customer_id,omitempty"`
	CustomerName    string    `gorm:"type:varchar(100);not null" json:"customer_name"`
	Phone           string    `gorm:"type:varchar(20)" json:"phone"`
	BookingType     string    `gorm:"type:varchar(10);not null;default:'timer'" json:"booking_type"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	FrameCount      int       `gorm:"not null;default:0" json:"frame_count"`
	Status          string    `gorm:"type:varchar(20);not null;default:'waiting';index" json:"status"`
	SessionID       *uint     `json:"session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
