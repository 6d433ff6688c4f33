package common

const (
	AppSportShop = "sport-shop"
	AppServer    = "sport-shop-api"
	AppSeeder    = "sport-shop-seeder"

	AudienceShopper = "audience-shopper"

	ChannelOrderCompleted = "order_completed"
)

const (
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodDebitCard  = "debit_card"
	PaymentMethodPaypal     = "paypal"

	OrderStatusCompleted = "completed"
)
