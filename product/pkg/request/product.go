package request

import (
	"github.com/shopspring/decimal"
)

type FindProducts struct {
	Category string `json:"category"`
	Search   string `json:"search"`
	Page     int32  `json:"page"     validate:"omitempty,min=1"`
	Limit    int32  `json:"limit"    validate:"omitempty,min=1,max=100"`
}

type InsertProduct struct {
	Name        string          `json:"name"        validate:"required,min=2"`
	Category    string          `json:"category"    validate:"required"`
	Price       decimal.Decimal `json:"price"       validate:"required"`
	Stock       int32           `json:"stock"       validate:"min=0"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}
