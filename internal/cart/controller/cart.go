package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/cart/otel"
	"github.com/sportshop/ecommerce/internal/cart/service"
	"github.com/sportshop/ecommerce/cart/pkg/request"
	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/middleware"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
)

type CartController struct {
	service service.CartService
}

func AttachCartController(
	router *mux.Router,
	service service.CartService,
	appConfig config.Application,
) {
	controller := CartController{service: service}

	cartRouter := router.PathPrefix("/cart").Subrouter()
	cartRouter.Use(middleware.Auth(appConfig))
	cartRouter.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	cartRouter.HandleFunc("", controller.AddItem).Methods(http.MethodPost)
	cartRouter.HandleFunc("/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetCart").
		Logger()

	user, err := common.AuthUserFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting cart").Logger()
	logger.Info().Msg("getting cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.GetCart(c, user.ID)
	if err != nil {
		err = fmt.Errorf("failed getting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "failed to fetch cart")
		return
	}
	logger.Info().Msg("got cart")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, cart)
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	user, err := common.AuthUserFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.AddCartItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid request body")
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("validated request body")

	productId, err := uuid.Parse(reqBody.ProductID)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid product id")
		return
	}
	logger = logger.With().
		Str(log.KeyProductID, productId.String()).
		Str(log.KeyProcess, "adding item to cart").
		Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.AddItem(c, user.ID, productId, reqBody.Quantity)
	if err != nil {
		wrapped := fmt.Errorf("failed adding item to cart with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), err.Error())
		return
	}
	logger.Info().Msg("added item to cart")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, cart)
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Logger()

	user, err := common.AuthUserFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting pathValue productId").Logger()
	logger.Trace().Msg("getting pathValue productId")
	pathValues := mux.Vars(r)
	logger = logger.With().Any(log.KeyPathValues, pathValues).Logger()
	productId, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed getting pathValue productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid product id")
		return
	}
	logger = logger.With().Str(log.KeyProductID, productId.String()).Logger()
	logger.Trace().Msg("got pathValue productId")

	logger = logger.With().Str(log.KeyProcess, "removing item from cart").Logger()
	logger.Info().Msg("removing item from cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.RemoveItem(c, user.ID, productId)
	if err != nil {
		wrapped := fmt.Errorf("failed removing item from cart with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "failed to remove item from cart")
		return
	}
	logger.Info().Msg("removed item from cart")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, cart)
}
