package response

import "github.com/sportshop/ecommerce/internal/repository"

type Checkout struct {
	Order                 repository.Order `json:"order"`
	Message               string           `json:"message"`
	NotificationReference string           `json:"notificationReference,omitempty"`
}
