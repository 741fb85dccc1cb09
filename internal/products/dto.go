package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// PriceDTO is the caller-specific price of one unit.
type PriceDTO struct {
	Base            decimal.Decimal  `json:"base"`
	Discounted      decimal.Decimal  `json:"discounted"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountSource  discounts.Source `json:"discount_source"`
}

// ProductDTO is a catalog entry. Price is null when the caller may not see prices.
type ProductDTO struct {
	ID      uuid.UUID       `json:"id"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	GroupID uuid.UUID       `json:"group_id"`
	Weight  decimal.Decimal `json:"weight"`
	Volume  decimal.Decimal `json:"volume"`
	Price   *PriceDTO       `json:"price"`
}

// GroupListing is one product group as shown to a specific caller.
type GroupListing struct {
	GroupID        uuid.UUID    `json:"group_id"`
	GroupName      string       `json:"group_name"`
	PricingVisible bool         `json:"pricing_visible"`
	Products       []ProductDTO `json:"products"`
}

func newProductDTO(p models.Product, price *discounts.Price) ProductDTO {
	dto := ProductDTO{
		ID:      p.ID,
		Code:    p.Code,
		Name:    p.Name,
		GroupID: p.GroupID,
		Weight:  p.Weight,
		Volume:  p.Volume,
	}
	if price != nil {
		dto.Price = &PriceDTO{
			Base:            price.Base,
			Discounted:      price.Discounted,
			DiscountPercent: price.Percent,
			DiscountSource:  price.Source,
		}
	}
	return dto
}
