package enums

// PaymentMethod records how the customer intends to settle an order. The
// engine stores it; settlement happens elsewhere.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodDeferred     PaymentMethod = "deferred"
	PaymentMethodCash         PaymentMethod = "cash"
)

var paymentMethods = set[PaymentMethod]{
	PaymentMethodBankTransfer,
	PaymentMethodDeferred,
	PaymentMethodCash,
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return paymentMethods.parse("payment method", value)
}

func PaymentMethodValues() string { return paymentMethods.String() }
