package models

import "time"

const (
	TableAvailable   = "available"
	TableOccupied    = "occupied"
	TableMaintenance = "maintenance"
)

type Game struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Table struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GameID         uint      `gorm:"not null;index" json:"game_id"`
	Game           Game      `gorm:"foreignKey:GameID" json:"-"`
	Name           string    `gorm:"type:varchar(50);not null" json:"name"`
	Status         string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	PricePerMinute float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price_per_minute"`
	FrameCharge    float64   `gorm:"type:decimal(10,2);not null;default:0" json:"frame_charge"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t Table) Occupied() bool {
	return t.Status == TableOccupied
}
