package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	"github.com/wholesaledesk/ordering-backend/pkg/pagination"
)

// ConvertInput carries the checkout choices for turning a cart into an order.
type ConvertInput struct {
	UserID        uuid.UUID
	OrderType     string
	PaymentMethod string
	Comment       *string
}

// HistoryQuery filters an order history page. Scope is the raw scope token.
type HistoryQuery struct {
	Scope           string
	CreatedByUserID *uuid.UUID
	From            *time.Time
	To              *time.Time
	OrderType       string
	PaymentMethod   string
	Page            int
	PageSize        int
}

// OrderItemDTO is an order line as shown to clients.
type OrderItemDTO struct {
	ID                    uuid.UUID        `json:"id"`
	Position              int              `json:"position"`
	ProductID             uuid.UUID        `json:"product_id"`
	ProductCode           string           `json:"product_code"`
	ProductName           string           `json:"product_name"`
	Quantity              decimal.Decimal  `json:"quantity"`
	UnitPrice             *decimal.Decimal `json:"unit_price"`
	UnitPriceWithDiscount *decimal.Decimal `json:"unit_price_with_discount"`
	DiscountPercent       *decimal.Decimal `json:"discount_percent"`
	TotalOriginal         *decimal.Decimal `json:"total_original_price"`
	TotalDiscounted       *decimal.Decimal `json:"total_discounted_price"`
	Weight                decimal.Decimal  `json:"weight"`
	Volume                decimal.Decimal  `json:"volume"`
}

// OrderDTO is the order snapshot. Money fields are null when the viewer may not see prices.
type OrderDTO struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          int64               `json:"order_number"`
	CreatedByUserID      uuid.UUID           `json:"created_by_user_id"`
	ManagerUserID        *uuid.UUID          `json:"manager_user_id"`
	ShippingDepartmentID *uuid.UUID          `json:"shipping_department_id"`
	OrderType            enums.OrderType     `json:"order_type"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	Comment              *string             `json:"comment"`
	TotalQuantity        decimal.Decimal     `json:"total_quantity"`
	TotalWeight          decimal.Decimal     `json:"total_weight"`
	TotalVolume          decimal.Decimal     `json:"total_volume"`
	TotalOriginal        *decimal.Decimal    `json:"total_original_price"`
	TotalDiscounted      *decimal.Decimal    `json:"total_discounted_price"`
	Items                []OrderItemDTO      `json:"items"`
	CreatedAt            time.Time           `json:"created_at"`
}

// HistoryResult is one page of order history.
type HistoryResult struct {
	Orders     []OrderDTO `json:"orders"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// RepeatResult is the rebuilt cart plus the order products that could not be re-added.
type RepeatResult struct {
	Cart            *cart.View
	SkippedProducts []uuid.UUID
}

func newOrderDTO(order models.Order, pricingVisible bool) OrderDTO {
	dto := OrderDTO{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		CreatedByUserID:      order.CreatedByUserID,
		ManagerUserID:        order.ManagerUserID,
		ShippingDepartmentID: order.ShippingDepartmentID,
		OrderType:            order.OrderType,
		PaymentMethod:        order.PaymentMethod,
		Comment:              order.Comment,
		TotalQuantity:        order.TotalQuantity,
		TotalWeight:          order.TotalWeight,
		TotalVolume:          order.TotalVolume,
		Items:                make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:            order.CreatedAt,
	}
	if pricingVisible {
		dto.TotalOriginal = decimalPtr(order.TotalOriginal)
		dto.TotalDiscounted = decimalPtr(order.TotalDiscounted)
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			ID:          item.ID,
			Position:    item.Position,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Weight:      item.Weight,
			Volume:      item.Volume,
		}
		if pricingVisible {
			line.UnitPrice = decimalPtr(item.UnitPrice)
			line.UnitPriceWithDiscount = decimalPtr(item.UnitPriceWithDiscount)
			line.DiscountPercent = decimalPtr(item.DiscountPercent)
			line.TotalOriginal = decimalPtr(item.Quantity.Mul(item.UnitPrice).Round(2))
			line.TotalDiscounted = decimalPtr(item.Quantity.Mul(item.UnitPriceWithDiscount).Round(2))
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

func newHistoryResult(rows []models.Order, total int64, params pagination.Params, pricingVisible bool) *HistoryResult {
	meta := pagination.NewMeta(params, total)
	result := &HistoryResult{
		Orders:     make([]OrderDTO, 0, len(rows)),
		TotalCount: meta.TotalCount,
		Page:       meta.Page,
		PageSize:   meta.PageSize,
		TotalPages: meta.TotalPages,
	}
	for _, row := range rows {
		result.Orders = append(result.Orders, newOrderDTO(row, pricingVisible))
	}
	return result
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
