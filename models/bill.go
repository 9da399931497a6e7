package models

import "time"

type Bill struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BillNumber       string     `gorm:"type:varchar(40);not null;uniqueIndex" json:"bill_number"`
	SessionID        *uint      `gorm:"uniqueIndex" json:"session_id,omitempty"`
	TableID          uint       `gorm:"index" json:"table_id"`
	CustomerID       *uint      `gorm:"index" json:"customer_id,omitempty"`
	ReservationID    *uint      `json:"reservation_id,omitempty"`
	BookingType      string     `gorm:"type:varchar(10);not null" json:"booking_type"`
	SessionDuration  int        `gorm:"not null;default:0" json:"session_duration"`
	TablePricePerMin float64    `gorm:"type:decimal(10,2);not null;default:0" json:"table_price_per_min"`
	FrameCharges     float64    `gorm:"type:decimal(10,2);not null;default:0" json:"frame_charges"`
	FrameCount       int        `gorm:"not null;default:0" json:"frame_count"`
	TableCharges     float64    `gorm:"type:decimal(12,2);not null" json:"table_charges"`
	FoodCharges      float64    `gorm:"type:decimal(12,2);not null" json:"food_charges"`
	TotalAmount      float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	AdvancePayment   float64    `gorm:"type:decimal(12,2);not null;default:0" json:"advance_payment"`
	Payable          float64    `gorm:"type:decimal(12,2);not null" json:"payable"`
	FullyPaid        bool       `gorm:"not null;default:false" json:"fully_paid"`
	PaymentMethod    string     `gorm:"type:varchar(10);not null;default:'CASH'" json:"payment_method"`
	BillingChoice    string     `gorm:"type:varchar(10)" json:"billing_choice,omitempty"`
	AutoGenerated    bool       `gorm:"not null;default:false" json:"auto_generated"`
	Items            []BillItem `gorm:"foreignKey:BillID" json:"items"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type BillItem struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	BillID     uint    `gorm:"not null;index" json:"bill_id"`
	MenuItemID uint    `gorm:"not null" json:"menu_item_id"`
	Name       string  `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice  float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	Subtotal   float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}
