package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/checkout/otel"
	"github.com/sportshop/ecommerce/internal/checkout/service"
	"github.com/sportshop/ecommerce/checkout/pkg/request"
	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/middleware"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
)

type CheckoutController struct {
	service service.CheckoutService
}

func AttachCheckoutController(
	router *mux.Router,
	service service.CheckoutService,
	appConfig config.Application,
) {
	controller := CheckoutController{service: service}

	checkoutRouter := router.PathPrefix("/checkout").Subrouter()
	checkoutRouter.Use(middleware.Auth(appConfig))
	checkoutRouter.HandleFunc("", controller.Checkout).Methods(http.MethodPost)
}

func (ctrl CheckoutController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Checkout").
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
	reqBody := request.Checkout{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if key := r.Header.Get(inHttp.HeaderIdempotencyKey); key != "" {
		reqBody.IdempotencyKey = key
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

	logger = logger.With().
		Str(log.KeyProcess, "processing checkout").
		Str(log.KeyIdempotencyKey, reqBody.IdempotencyKey).
		Logger()
	logger.Info().Msg("processing checkout")
	c = logger.WithContext(c)
	result, err := ctrl.service.Checkout(c, user, reqBody)
	if err != nil {
		wrapped := fmt.Errorf("failed processing checkout with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), checkoutErrorMessage(err))
		return
	}
	logger.Info().Msg("processed checkout")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, result)
}

func checkoutErrorMessage(err error) string {
	if inHttp.StatusCodeFromError(err) == http.StatusInternalServerError {
		return "Checkout failed"
	}
	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
