package request

type Checkout struct {
	ShippingAddress string `json:"shippingAddress" validate:"required"`
	PaymentMethod   string `json:"paymentMethod"   validate:"required,oneof=credit_card debit_card paypal"`
	IdempotencyKey  string `json:"idempotencyKey"`
}
