package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart row joined with the product data needed for display and totals.
type Line struct {
	ItemID                uuid.UUID
	ProductID             uuid.UUID
	Position              int
	ProductCode           string
	ProductName           string
	Quantity              decimal.Decimal
	UnitPrice             decimal.Decimal
	UnitPriceWithDiscount decimal.Decimal
	DiscountPercent       decimal.Decimal
	UnitWeight            decimal.Decimal
	UnitVolume            decimal.Decimal
}

// TotalOriginal is exact. Only the cart total is rounded, so line totals always add up to
// the amount that total was rounded from.
func (l Line) TotalOriginal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

func (l Line) TotalDiscounted() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPriceWithDiscount)
}

func (l Line) TotalWeight() decimal.Decimal {
	return l.Quantity.Mul(l.UnitWeight)
}

func (l Line) TotalVolume() decimal.Decimal {
	return l.Quantity.Mul(l.UnitVolume)
}

// Totals is derived from the current lines on every read and never stored for a cart.
type Totals struct {
	Quantity   decimal.Decimal
	Weight     decimal.Decimal
	Volume     decimal.Decimal
	Original   decimal.Decimal
	Discounted decimal.Decimal
}

// ComputeTotals sums the lines. Money is summed exactly and rounded half-up to cents once.
func ComputeTotals(lines []Line) Totals {
	totals := Totals{
		Quantity:   decimal.Zero,
		Weight:     decimal.Zero,
		Volume:     decimal.Zero,
		Original:   decimal.Zero,
		Discounted: decimal.Zero,
	}
	for _, line := range lines {
		totals.Quantity = totals.Quantity.Add(line.Quantity)
		totals.Weight = totals.Weight.Add(line.TotalWeight())
		totals.Volume = totals.Volume.Add(line.TotalVolume())
		totals.Original = totals.Original.Add(line.TotalOriginal())
		totals.Discounted = totals.Discounted.Add(line.TotalDiscounted())
	}
	totals.Original = totals.Original.Round(2)
	totals.Discounted = totals.Discounted.Round(2)
	return totals
}
