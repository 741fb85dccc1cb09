package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user basket header. Totals are derived from items and never stored.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Version   int64      `gorm:"column:version;not null;default:0"`
	Items     []CartItem `gorm:"foreignKey:CartID;references:ID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem keeps the prices captured at the last mutation of the line.
type CartItem struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID                uuid.UUID       `gorm:"column:cart_id;type:uuid;not null"`
	ProductID             uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Position              int             `gorm:"column:position;not null"`
	Quantity              decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice             decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitPriceWithDiscount decimal.Decimal `gorm:"column:unit_price_with_discount;type:numeric(12,2);not null"`
	DiscountPercent       decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
