package response

import "github.com/sportshop/ecommerce/internal/repository"

type Auth struct {
	User  repository.User `json:"user"`
	Token string          `json:"token"`
}
