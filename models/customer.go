package models

import (
	"time"
)

// Customer is a member with a prepaid wallet. The balance may go negative when staff
// explicitly confirm an underfunded payment.
type Customer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone         string    `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	WalletBalance float64   `gorm:"type:decimal(12,2);not null;default:0" json:"wallet_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	WalletTopUp   = "topup"
	WalletAdvance = "advance"
	WalletBill    = "bill"
	WalletRefund  = "refund"
)

type WalletTransaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Amount     float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Kind       string    `gorm:"type:varchar(20);not null" json:"kind"`
	Reference  string    `gorm:"type:varchar(100)" json:"reference"`
	Balance    float64   `gorm:"type:decimal(12,2);not null" json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}
