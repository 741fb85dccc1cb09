package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	lines := []Line{
		{Quantity: dec("3"), UnitPrice: dec("100.00"), UnitPriceWithDiscount: dec("70.00"), UnitWeight: dec("1.5"), UnitVolume: dec("0.01")},
		{Quantity: dec("0.5"), UnitPrice: dec("9.99"), UnitPriceWithDiscount: dec("9.99"), UnitWeight: dec("2"), UnitVolume: dec("0.2")},
	}

	totals := ComputeTotals(lines)
	assert.True(t, totals.Quantity.Equal(dec("3.5")))
	assert.True(t, totals.Weight.Equal(dec("5.5")))
	assert.True(t, totals.Volume.Equal(dec("0.13")))
	// 300 + 4.995 rounds half-up once at the end
	assert.Equal(t, "305.00", totals.Original.StringFixed(2))
	assert.Equal(t, "215.00", totals.Discounted.StringFixed(2))
}

func TestLineTotalsAddUpToCartTotal(t *testing.T) {
	lines := []Line{
		{Quantity: dec("0.5"), UnitPrice: dec("0.01"), UnitPriceWithDiscount: dec("0.01")},
		{Quantity: dec("0.5"), UnitPrice: dec("0.01"), UnitPriceWithDiscount: dec("0.01")},
	}
	totals := ComputeTotals(lines)

	sum := lines[0].TotalDiscounted().Add(lines[1].TotalDiscounted())
	assert.True(t, lines[0].TotalDiscounted().Equal(dec("0.005")))
	assert.True(t, sum.Round(2).Equal(totals.Discounted))
	assert.Equal(t, "0.01", totals.Discounted.StringFixed(2))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.True(t, totals.Quantity.IsZero())
	assert.True(t, totals.Original.IsZero())
	assert.True(t, totals.Discounted.IsZero())
}

func TestNewCartDTOHidesMoneyWhenGateClosed(t *testing.T) {
	view := &View{
		CartID: uuid.New(),
		UserID: uuid.New(),
		Lines: []Line{
			{ItemID: uuid.New(), Quantity: dec("2"), UnitPrice: dec("10"), UnitPriceWithDiscount: dec("9"), UnitWeight: dec("1")},
		},
	}
	view.Totals = ComputeTotals(view.Lines)

	hidden := NewCartDTO(view)
	require.Len(t, hidden.Items, 1)
	assert.Nil(t, hidden.Items[0].UnitPrice)
	assert.Nil(t, hidden.Items[0].TotalDiscounted)
	assert.Nil(t, hidden.Totals.Discounted)
	assert.True(t, hidden.Totals.Quantity.Equal(dec("2")))

	view.PricingVisible = true
	shown := NewCartDTO(view)
	require.NotNil(t, shown.Items[0].UnitPriceWithDiscount)
	assert.Equal(t, "18.00", shown.Items[0].TotalDiscounted.StringFixed(2))
	assert.Equal(t, "20.00", shown.Totals.Original.StringFixed(2))
}
