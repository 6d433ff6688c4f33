package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartController "github.com/sportshop/ecommerce/internal/cart/controller"
	cartService "github.com/sportshop/ecommerce/internal/cart/service"
	checkoutController "github.com/sportshop/ecommerce/internal/checkout/controller"
	checkoutService "github.com/sportshop/ecommerce/internal/checkout/service"
	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	"github.com/sportshop/ecommerce/internal/infra"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/middleware"
	"github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/notification"
	orderController "github.com/sportshop/ecommerce/internal/order/controller"
	orderService "github.com/sportshop/ecommerce/internal/order/service"
	productController "github.com/sportshop/ecommerce/internal/product/controller"
	productService "github.com/sportshop/ecommerce/internal/product/service"
	userController "github.com/sportshop/ecommerce/internal/user/controller"
	userService "github.com/sportshop/ecommerce/internal/user/service"
)

func runServer(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, common.AppServer).
		Str(log.KeyTag, "main runServer").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, common.AppSportShop)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, common.AppServer, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down otel").Logger()
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		if err := otel.ShutdownOtel(c, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer func() {
		logger.Info().Msg("shutting down database")
		pool.Close()
		logger.Info().Msg("shutdown database")
	}()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger.Info().Msg("shutting down cache")
		if err := cache.Close(); err != nil {
			logger.Error().Err(err).Msg("failed shutting down cache")
			return
		}
		logger.Info().Msg("shutdown cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	queries := repository.New(pool)
	mailer := notification.NewSendGridMailer(cfg.Email)
	products := productService.NewProductService(queries, cache)
	carts := cartService.NewCartService(queries, queries)
	orders := orderService.NewOrderService(queries)
	checkouts := checkoutService.NewCheckoutService(queries, queries, products, mailer, cache)
	users := userService.NewUserService(queries, cfg.Application)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(common.AppServer),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	userController.AttachUserController(router, users)
	productController.AttachProductController(router, products, cfg.Application)
	cartController.AttachCartController(router, carts, cfg.Application)
	orderController.AttachOrderController(router, orders, cfg.Application)
	checkoutController.AttachCheckoutController(router, checkouts, cfg.Application)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "starting order completed listener").Logger()
	logger.Info().Msg("starting order completed listener")
	listener := notification.NewListener(cache)
	go listener.Run(logger.WithContext(c))

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interruption signal, shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
