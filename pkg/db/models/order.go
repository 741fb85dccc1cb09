package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/pkg/enums"
)

// Order is written once by conversion and never updated.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber          int64               `gorm:"column:order_number;not null;uniqueIndex"`
	CreatedByUserID      uuid.UUID           `gorm:"column:created_by_user_id;type:uuid;not null"`
	ManagerUserID        *uuid.UUID          `gorm:"column:manager_user_id;type:uuid"`
	ShippingDepartmentID *uuid.UUID          `gorm:"column:shipping_department_id;type:uuid"`
	OrderType            enums.OrderType     `gorm:"column:order_type;type:text;not null"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Comment              *string             `gorm:"column:comment"`
	TotalQuantity        decimal.Decimal     `gorm:"column:total_quantity;type:numeric(14,3);not null"`
	TotalWeight          decimal.Decimal     `gorm:"column:total_weight;type:numeric(14,3);not null"`
	TotalVolume          decimal.Decimal     `gorm:"column:total_volume;type:numeric(14,4);not null"`
	TotalOriginal        decimal.Decimal     `gorm:"column:total_original;type:numeric(14,2);not null"`
	TotalDiscounted      decimal.Decimal     `gorm:"column:total_discounted;type:numeric(14,2);not null"`
	SourceCartID         uuid.UUID           `gorm:"column:source_cart_id;type:uuid;not null"`
	SourceCartVersion    int64               `gorm:"column:source_cart_version;not null"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt            time.Time           `gorm:"column:created_at;not null"`
}

// OrderItem snapshots the product and the prices resolved at conversion.
type OrderItem struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Position              int             `gorm:"column:position;not null"`
	ProductID             uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductCode           string          `gorm:"column:product_code;not null"`
	ProductName           string          `gorm:"column:product_name;not null"`
	Quantity              decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice             decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitPriceWithDiscount decimal.Decimal `gorm:"column:unit_price_with_discount;type:numeric(12,2);not null"`
	DiscountPercent       decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	Weight                decimal.Decimal `gorm:"column:weight;type:numeric(12,3);not null"`
	Volume                decimal.Decimal `gorm:"column:volume;type:numeric(12,4);not null"`
}
