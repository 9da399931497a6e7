package models

import (
	"time"
)

// DBChange is an outbox row written in the same transaction as the change it describes.
// The change monitor drains unprocessed rows and broadcasts them.
type DBChange struct {
	ID         uint      `gorm:"primaryKey"`
	TableName  string    `gorm:"type:varchar(50);not null;index:idx_table_action"`
	RecordID   int64     `gorm:"not null"`
	ActionType string    `gorm:"type:varchar(10);not null;index:idx_table_action"`
	ChangedAt  time.Time `gorm:"not null"`
	Processed  bool      `gorm:"default:false;index:idx_processed"`
}

const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Game{},
		&Table{},
		&Customer{},
		&WalletTransaction{},
		&MenuItem{},
		&ActiveSession{},
		&Reservation{},
		&QueueEntry{},
		&Bill{},
		&BillItem{},
		&DBChange{},
	}
}
