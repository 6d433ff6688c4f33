package log

const (
	KeyAppName        = "app"
	KeyRequestID      = "requestId"
	KeyProcess        = "process"
	KeyTag            = "tag"
	KeyConfig         = "config"
	KeyEmail          = "email"
	KeyUserID         = "userId"
	KeyProductID      = "productId"
	KeyProductName    = "productName"
	KeyProductStock   = "productStock"
	KeyOrderID        = "orderId"
	KeyOrders         = "orders"
	KeyCart           = "cart"
	KeyCartItems      = "cartItems"
	KeyCartTotal      = "cartTotal"
	KeyCartVersion    = "cartVersion"
	KeyQuantity       = "quantity"
	KeyIdempotencyKey = "idempotencyKey"
	KeyCacheKey       = "cacheKey"
	KeyPathValues     = "pathValues"
	KeyRequestBody    = "requestBody"
	KeyRequestHost    = "host"
	KeyRequestIp      = "requesterIP"
	KeyRequestMethod  = "requestMethod"
	KeyRequestURI     = "requestURI"
	KeyRequestURL     = "requestURL"
	KeyDbURL          = "dbUrl"
)
