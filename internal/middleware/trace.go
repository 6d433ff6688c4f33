package middleware

import (
	"go.opentelemetry.io/otel"

	"github.com/sportshop/ecommerce/internal/common"
)

var Tracer = otel.Tracer(common.AppServer)
