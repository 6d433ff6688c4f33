package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/config"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/middleware"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/product/otel"
	"github.com/sportshop/ecommerce/internal/product/service"
	"github.com/sportshop/ecommerce/product/pkg/request"
)

type ProductController struct {
	service service.ProductService
}

func AttachProductController(
	router *mux.Router,
	service service.ProductService,
	appConfig config.Application,
) {
	controller := ProductController{service: service}

	publicRouter := router.PathPrefix("/products").Methods(http.MethodGet).Subrouter()
	publicRouter.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	publicRouter.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)

	authedRouter := router.PathPrefix("/products").Methods(http.MethodPost).Subrouter()
	authedRouter.Use(middleware.Auth(appConfig))
	authedRouter.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
}

func (ctrl ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing query params").Logger()
	logger.Trace().Msg("parsing query params")
	query := r.URL.Query()
	page, _ := strconv.ParseInt(query.Get("page"), 10, 32)
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 32)
	reqParam := request.FindProducts{
		Category: query.Get("category"),
		Search:   query.Get("search"),
		Page:     int32(page),
		Limit:    int32(limit),
	}
	logger.Trace().Msg("parsed query params")

	logger = logger.With().Str(log.KeyProcess, "validating query params").Logger()
	logger.Trace().Msg("validating query params")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqParam); err != nil {
		err = fmt.Errorf("failed validating query params with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("validated query params")

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Info().Msg("finding products")
	c = logger.WithContext(c)
	products, err := ctrl.service.FindProducts(c, reqParam)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "failed to fetch products")
		return
	}
	logger.Info().Msg("found products")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, products)
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProductById").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting pathValue productId").Logger()
	logger.Trace().Msg("getting pathValue productId")
	pathValues := mux.Vars(r)
	id, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed getting pathValue productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "invalid product id")
		return
	}
	logger = logger.With().Str(log.KeyProductID, id.String()).Logger()
	logger.Trace().Msg("got pathValue productId")

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	c = logger.WithContext(c)
	product, err := ctrl.service.FindProductById(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%s with error=%w", id.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "product not found")
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteSuccessResponse(c, w, http.StatusOK, product)
}

func (ctrl ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController InsertProduct").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.InsertProduct{}
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

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := ctrl.service.InsertProduct(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inHttp.StatusCodeFromError(err), "failed to insert product")
		return
	}
	logger.Info().Msg("inserted product")

	inHttp.WriteSuccessResponse(c, w, http.StatusCreated, product)
}
