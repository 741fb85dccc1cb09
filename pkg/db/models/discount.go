package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// DiscountProfile is a tier template assigned to users.
type DiscountProfile struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Tier      enums.DiscountTier     `gorm:"column:tier;type:text;not null"`
	Name      string                 `gorm:"column:name;not null"`
	Entries   []DiscountProfileEntry `gorm:"foreignKey:ProfileID;references:ID"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// DiscountProfileEntry is a default discount of a profile for one product group.
type DiscountProfileEntry struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID      uuid.UUID       `gorm:"column:profile_id;type:uuid;not null"`
	ProductGroupID uuid.UUID       `gorm:"column:product_group_id;type:uuid;not null"`
	Percent        decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null"`
}

// SpecialDiscount overrides the profile default for a single (user, group) pair.
type SpecialDiscount struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	ProductGroupID uuid.UUID       `gorm:"column:product_group_id;type:uuid;not null"`
	Percent        decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null"`
	Active         bool            `gorm:"column:active;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
