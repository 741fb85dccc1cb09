package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is the full cart state returned by every operation.
type View struct {
	CartID         uuid.UUID
	UserID         uuid.UUID
	Version        int64
	PricingVisible bool
	Lines          []Line
	Totals         Totals
}

// LineInput is a product and quantity to place in the cart.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

type CartItemDTO struct {
	ID                    uuid.UUID        `json:"id"`
	ProductID             uuid.UUID        `json:"product_id"`
	ProductCode           string           `json:"product_code"`
	ProductName           string           `json:"product_name"`
	Position              int              `json:"position"`
	Quantity              decimal.Decimal  `json:"quantity"`
	UnitPrice             *decimal.Decimal `json:"unit_price"`
	UnitPriceWithDiscount *decimal.Decimal `json:"unit_price_with_discount"`
	DiscountPercent       *decimal.Decimal `json:"discount_percent"`
	TotalOriginal         *decimal.Decimal `json:"total_original_price"`
	TotalDiscounted       *decimal.Decimal `json:"total_discounted_price"`
	Weight                decimal.Decimal  `json:"weight"`
	Volume                decimal.Decimal  `json:"volume"`
}

type TotalsDTO struct {
	Quantity   decimal.Decimal  `json:"quantity"`
	Weight     decimal.Decimal  `json:"weight"`
	Volume     decimal.Decimal  `json:"volume"`
	Original   *decimal.Decimal `json:"total_original_price"`
	Discounted *decimal.Decimal `json:"total_discounted_price"`
}

// CartDTO is the transport shape of a View. Money fields are null when the
// owner may not see prices.
type CartDTO struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	Version        int64         `json:"version"`
	PricingVisible bool          `json:"pricing_visible"`
	Items          []CartItemDTO `json:"items"`
	Totals         TotalsDTO     `json:"totals"`
}

// NewCartDTO renders a view for transport.
func NewCartDTO(view *View) CartDTO {
	dto := CartDTO{
		ID:             view.CartID,
		UserID:         view.UserID,
		Version:        view.Version,
		PricingVisible: view.PricingVisible,
		Items:          make([]CartItemDTO, 0, len(view.Lines)),
		Totals: TotalsDTO{
			Quantity: view.Totals.Quantity,
			Weight:   view.Totals.Weight,
			Volume:   view.Totals.Volume,
		},
	}
	if view.PricingVisible {
		dto.Totals.Original = decimalPtr(view.Totals.Original)
		dto.Totals.Discounted = decimalPtr(view.Totals.Discounted)
	}
	for _, line := range view.Lines {
		item := CartItemDTO{
			ID:          line.ItemID,
			ProductID:   line.ProductID,
			ProductCode: line.ProductCode,
			ProductName: line.ProductName,
			Position:    line.Position,
			Quantity:    line.Quantity,
			Weight:      line.TotalWeight(),
			Volume:      line.TotalVolume(),
		}
		if view.PricingVisible {
			item.UnitPrice = decimalPtr(line.UnitPrice)
			item.UnitPriceWithDiscount = decimalPtr(line.UnitPriceWithDiscount)
			item.DiscountPercent = decimalPtr(line.DiscountPercent)
			item.TotalOriginal = decimalPtr(line.TotalOriginal())
			item.TotalDiscounted = decimalPtr(line.TotalDiscounted())
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
