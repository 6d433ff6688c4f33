package cache

import "time"

const (
	KeyProducts = "products:%s"

	ProductTTL = time.Hour
)
