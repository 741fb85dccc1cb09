package enums

// OrderType tells fulfillment how an order should be handled.
type OrderType string

const (
	OrderTypeStandard OrderType = "standard"
	OrderTypeUrgent   OrderType = "urgent"
	OrderTypePickup   OrderType = "pickup"
)

var orderTypes = set[OrderType]{OrderTypeStandard, OrderTypeUrgent, OrderTypePickup}

func (o OrderType) String() string { return string(o) }

func (o OrderType) IsValid() bool { return orderTypes.has(o) }

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	return orderTypes.parse("order type", value)
}

// OrderTypeValues lists accepted order types for error messages.
func OrderTypeValues() string { return orderTypes.String() }
