package response

import (
	"github.com/sportshop/ecommerce/internal/repository"
)

type Pagination struct {
	Page       int32 `json:"page"`
	Limit      int32 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type ProductList struct {
	Products   []repository.Product `json:"products"`
	Pagination Pagination           `json:"pagination"`
}
