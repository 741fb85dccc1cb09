package discounts

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// Source tells which rule produced a percent.
type Source string

const (
	SourceNone    Source = "none"
	SourceProfile Source = "profile"
	SourceSpecial Source = "special"
)

var hundred = decimal.NewFromInt(100)

// Catalog holds one user's discount data for the duration of a request.
type Catalog struct {
	defaults map[uuid.UUID]decimal.Decimal
	specials map[uuid.UUID]decimal.Decimal
}

// NewCatalog builds a Catalog from profile defaults and special overrides, both keyed by product group.
func NewCatalog(defaults, specials map[uuid.UUID]decimal.Decimal) Catalog {
	return Catalog{defaults: defaults, specials: specials}
}

// PercentFor applies the fixed precedence: special override, then profile default, then zero.
func (c Catalog) PercentFor(groupID uuid.UUID) (decimal.Decimal, Source) {
	if pct, ok := c.specials[groupID]; ok {
		return pct, SourceSpecial
	}
	if pct, ok := c.defaults[groupID]; ok {
		return pct, SourceProfile
	}
	return decimal.Zero, SourceNone
}

// Price is the resolved price of one unit.
type Price struct {
	Base       decimal.Decimal
	Discounted decimal.Decimal
	Percent    decimal.Decimal
	Source     Source
}

// ResolvePrice returns the price the catalog's user pays for one unit of product.
// The discounted price is rounded half-up to cents and never negative.
func ResolvePrice(catalog Catalog, product models.Product) Price {
	percent, source := catalog.PercentFor(product.GroupID)
	return Price{
		Base:       product.BasePrice,
		Discounted: applyPercent(product.BasePrice, percent),
		Percent:    percent,
		Source:     source,
	}
}

func applyPercent(base, percent decimal.Decimal) decimal.Decimal {
	discounted := base.Mul(hundred.Sub(percent)).Div(hundred).Round(2)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}
