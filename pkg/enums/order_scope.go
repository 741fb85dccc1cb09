package enums

// OrderScope is the requested breadth of an order history query.
type OrderScope string

const (
	OrderScopeMy           OrderScope = "my"
	OrderScopeManaged      OrderScope = "managed"
	OrderScopeMyAndManaged OrderScope = "my-and-managed"
	OrderScopeAll          OrderScope = "all"
)

var orderScopes = set[OrderScope]{
	OrderScopeMy,
	OrderScopeManaged,
	OrderScopeMyAndManaged,
	OrderScopeAll,
}

func (s OrderScope) String() string { return string(s) }

func (s OrderScope) IsValid() bool { return orderScopes.has(s) }

// ParseOrderScope converts raw input into an OrderScope. Empty input means "my".
func ParseOrderScope(value string) (OrderScope, error) {
	if value == "" {
		return OrderScopeMy, nil
	}
	return orderScopes.parse("order scope", value)
}
