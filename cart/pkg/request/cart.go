package request

type AddCartItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int32  `json:"quantity"  validate:"required,min=1"`
}
