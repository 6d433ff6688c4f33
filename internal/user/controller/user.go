package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/user/otel"
	"github.com/sportshop/ecommerce/internal/user/service"
	"github.com/sportshop/ecommerce/user/pkg/request"
)

type UserController struct {
	service service.UserService
}

func AttachUserController(router *mux.Router, service service.UserService) {
	controller := UserController{service: service}

	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
}

func (ctrl UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.Register{}
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

	logger = logger.With().
		Str(log.KeyProcess, "registering user").
		Str(log.KeyEmail, reqBody.Email).
		Logger()
	logger.Info().Msg("registering user")
	c = logger.WithContext(c)
	auth, err := ctrl.service.Register(c, reqBody)
	if err != nil {
		wrapped := fmt.Errorf("failed registering user with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		if errors.Is(err, inErrors.ErrEmailAlreadyRegistered) {
			inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "Registration failed")
		return
	}
	logger.Info().Msg("registered user")

	inHttp.WriteSuccessResponse(c, w, http.StatusCreated, auth)
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.Login{}
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

	logger = logger.With().
		Str(log.KeyProcess, "logging in user").
		Str(log.KeyEmail, reqBody.Email).
		Logger()
	logger.Info().Msg("logging in user")
	c = logger.WithContext(c)
	auth, err := ctrl.service.Login(c, reqBody)
	if err != nil {
		wrapped := fmt.Errorf("failed logging in user with error=%w", err)
		inOtel.RecordError(wrapped, span)
		logger.Error().Err(wrapped).Msg(wrapped.Error())
		if errors.Is(err, inErrors.ErrInvalidCredentials) {
			inHttp.WriteErrorResponse(c, w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "Login failed")
		return
	}
	logger.Info().Msg("logged in user")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, auth)
}
