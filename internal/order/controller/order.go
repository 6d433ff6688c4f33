package controller

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/middleware"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/order/otel"
	"github.com/sportshop/ecommerce/internal/order/service"
)

type OrderController struct {
	service service.OrderService
}

func AttachOrderController(
	router *mux.Router,
	service service.OrderService,
	appConfig config.Application,
) {
	controller := OrderController{service: service}

	orderRouter := router.PathPrefix("/orders").Subrouter()
	orderRouter.Use(middleware.Auth(appConfig))
	orderRouter.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	orderRouter.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)
}

func (ctrl OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrders").
		Logger()

	user, err := common.AuthUserFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	c = logger.WithContext(c)
	orders, err := ctrl.service.FindOrders(c, user.ID)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "failed to fetch orders")
		return
	}
	logger.Info().Msg("found orders")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, orders)
}

func (ctrl OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderById").
		Logger()

	user, err := common.AuthUserFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting pathValue orderId").Logger()
	logger.Trace().Msg("getting pathValue orderId")
	pathValues := mux.Vars(r)
	orderId, err := uuid.Parse(pathValues["orderId"])
	if err != nil {
		err = fmt.Errorf("failed getting pathValue orderId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid order id")
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()
	logger.Trace().Msg("got pathValue orderId")

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	c = logger.WithContext(c)
	order, err := ctrl.service.FindOrderById(c, user.ID, orderId)
	if err != nil {
		wrapped := fmt.Errorf("failed finding order with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "order not found")
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, order)
}
