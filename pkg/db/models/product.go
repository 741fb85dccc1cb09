package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductGroup struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Product is the catalog snapshot used for pricing; the catalog service owns writes.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string          `gorm:"column:code;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	GroupID   uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	Weight    decimal.Decimal `gorm:"column:weight;type:numeric(12,3);not null;default:0"`
	Volume    decimal.Decimal `gorm:"column:volume;type:numeric(12,4);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
