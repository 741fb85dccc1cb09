package enums

// DiscountTier identifies a discount profile template.
type DiscountTier string

const (
	DiscountTierNone           DiscountTier = "none"
	DiscountTierSmallWholesale DiscountTier = "small_wholesale"
	DiscountTierWholesale      DiscountTier = "wholesale"
	DiscountTierLargeWholesale DiscountTier = "large_wholesale"
)

var discountTiers = set[DiscountTier]{
	DiscountTierNone,
	DiscountTierSmallWholesale,
	DiscountTierWholesale,
	DiscountTierLargeWholesale,
}

func (d DiscountTier) String() string { return string(d) }

func (d DiscountTier) IsValid() bool { return discountTiers.has(d) }

func ParseDiscountTier(value string) (DiscountTier, error) {
	return discountTiers.parse("discount tier", value)
}
