package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Branch struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string    `gorm:"column:code;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;not null"`
}

// AvailabilityRow is the latest stock figure for a product at a branch, written by ingestion.
type AvailabilityRow struct {
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	BranchID  uuid.UUID       `gorm:"column:branch_id;type:uuid;primaryKey"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	AsOf      time.Time       `gorm:"column:as_of;not null"`
}
