package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/checkout/otel"
	"github.com/sportshop/ecommerce/checkout/pkg/request"
	"github.com/sportshop/ecommerce/checkout/pkg/response"
	"github.com/sportshop/ecommerce/internal/common"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/notification"
)

// notifyTimeout caps how long checkout waits for the confirmation email
// before responding without it.
const notifyTimeout = 3 * time.Second

var checkoutCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sport_shop_checkout_total",
	Help: "Checkout attempts partitioned by outcome.",
}, []string{"outcome"})

// StockAdjuster mutates the authoritative stock count for a product.
type StockAdjuster interface {
	DecrementStock(c context.Context, id uuid.UUID, quantity int32) (repository.Product, error)
	IncrementStock(c context.Context, id uuid.UUID, quantity int32) (repository.Product, error)
}

type CheckoutService struct {
	carts         repository.CartStore
	orders        repository.OrderStore
	stock         StockAdjuster
	mailer        notification.Mailer
	cache         *redis.Client
	notifyTimeout time.Duration
}

func NewCheckoutService(
	carts repository.CartStore,
	orders repository.OrderStore,
	stock StockAdjuster,
	mailer notification.Mailer,
	cache *redis.Client,
) CheckoutService {
	return CheckoutService{
		carts:         carts,
		orders:        orders,
		stock:         stock,
		mailer:        mailer,
		cache:         cache,
		notifyTimeout: notifyTimeout,
	}
}

// Checkout converts the user's cart into a completed order. Stock is
// decremented atomically per item; when one item cannot be fulfilled all
// earlier decrements from the same attempt are restored and no order is
// written. A replay carrying an idempotency key of an already completed
// checkout returns the original order without touching stock again.
func (svc CheckoutService) Checkout(
	c context.Context,
	user common.AuthUser,
	param request.Checkout,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Checkout").
		Str(log.KeyUserID, user.ID.String()).
		Str(log.KeyIdempotencyKey, param.IdempotencyKey).
		Logger()

	if param.IdempotencyKey != "" {
		logger = logger.With().Str(log.KeyProcess, "checking idempotency key").Logger()
		logger.Info().Msg("checking idempotency key")
		existing, err := svc.orders.FindOrderByIdempotencyKey(c, param.IdempotencyKey)
		if err == nil {
			if existing.UserID != user.ID {
				inOtel.RecordError(inErrors.ErrIdempotencyKeyConflict, span)
				logger.Error().Msg("idempotency key already used by another user")
				checkoutCounter.WithLabelValues("error").Inc()
				return response.Checkout{}, inErrors.ErrIdempotencyKeyConflict
			}
			logger = logger.With().Str(log.KeyOrderID, existing.ID.String()).Logger()
			logger.Info().Msg("idempotency key already used, returning existing order")
			checkoutCounter.WithLabelValues("replayed").Inc()
			return response.Checkout{
				Order:   existing,
				Message: "Order completed successfully",
			}, nil
		}
		if !errors.Is(err, inErrors.ErrOrderNotFound) {
			err = fmt.Errorf("failed checking idempotency key with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			checkoutCounter.WithLabelValues("error").Inc()
			return response.Checkout{}, err
		}
	}

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	cart, err := svc.carts.FindCartByUserId(c, user.ID)
	if err != nil {
		if errors.Is(err, inErrors.ErrCartNotFound) {
			checkoutCounter.WithLabelValues("empty_cart").Inc()
			return response.Checkout{}, inErrors.ErrEmptyCart
		}
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		checkoutCounter.WithLabelValues("error").Inc()
		return response.Checkout{}, err
	}
	if len(cart.Items) == 0 {
		checkoutCounter.WithLabelValues("empty_cart").Inc()
		return response.Checkout{}, inErrors.ErrEmptyCart
	}
	logger.Info().Msgf("loaded cart with %d items", len(cart.Items))

	logger = logger.With().Str(log.KeyProcess, "decrementing stock").Logger()
	if err := svc.decrementAll(c, logger, cart.Items); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		outcome := "insufficient_stock"
		if errors.Is(err, inErrors.ErrStockRestoreFailed) {
			outcome = "stock_restore_failed"
		}
		checkoutCounter.WithLabelValues(outcome).Inc()
		return response.Checkout{}, err
	}
	logger.Info().Msg("decremented stock for all items")

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	order, existed, err := svc.orders.InsertOrder(c, repository.Order{
		ID:              uuid.New(),
		UserID:          user.ID,
		UserEmail:       user.Email,
		Items:           cart.Items,
		Total:           cart.Total,
		ShippingAddress: param.ShippingAddress,
		PaymentMethod:   param.PaymentMethod,
		Status:          common.OrderStatusCompleted,
		IdempotencyKey:  param.IdempotencyKey,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		if restoreErr := svc.compensate(c, logger, cart.Items); restoreErr != nil {
			inOtel.RecordError(restoreErr, span)
			logger.Error().Err(restoreErr).Msg(restoreErr.Error())
			checkoutCounter.WithLabelValues("stock_restore_failed").Inc()
			return response.Checkout{}, restoreErr
		}
		err = fmt.Errorf("failed creating order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		checkoutCounter.WithLabelValues("error").Inc()
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	if existed {
		logger.Info().Msg("order already created by concurrent replay, restoring stock")
		if restoreErr := svc.compensate(c, logger, cart.Items); restoreErr != nil {
			inOtel.RecordError(restoreErr, span)
			logger.Error().Err(restoreErr).Msg(restoreErr.Error())
			checkoutCounter.WithLabelValues("stock_restore_failed").Inc()
			return response.Checkout{}, restoreErr
		}
		if order.UserID != user.ID {
			inOtel.RecordError(inErrors.ErrIdempotencyKeyConflict, span)
			logger.Error().Msg("idempotency key already used by another user")
			checkoutCounter.WithLabelValues("error").Inc()
			return response.Checkout{}, inErrors.ErrIdempotencyKeyConflict
		}
		checkoutCounter.WithLabelValues("replayed").Inc()
		return response.Checkout{
			Order:   order,
			Message: "Order completed successfully",
		}, nil
	}
	logger.Info().Msg("created order")

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	if err := svc.carts.DeleteCart(c, user.ID); err != nil {
		logger.Warn().Err(err).Msg("failed clearing cart after checkout")
	}

	svc.publishOrderCompleted(c, logger, order)
	reference := svc.notify(c, logger, order)

	checkoutCounter.WithLabelValues("completed").Inc()
	return response.Checkout{
		Order:                 order,
		Message:               "Order completed successfully",
		NotificationReference: reference,
	}, nil
}

// decrementAll applies the per item conditional decrements in cart order.
// On the first failure every decrement already applied is rolled back.
func (svc CheckoutService) decrementAll(
	c context.Context,
	logger zerolog.Logger,
	items []repository.CartItem,
) error {
	succeeded := make([]repository.CartItem, 0, len(items))
	for _, item := range items {
		if _, err := svc.stock.DecrementStock(c, item.ProductID, item.Quantity); err != nil {
			if restoreErr := svc.compensate(c, logger, succeeded); restoreErr != nil {
				return restoreErr
			}
			if errors.Is(err, inErrors.ErrInsufficientStock) ||
				errors.Is(err, inErrors.ErrProductNotFound) {
				return fmt.Errorf("%w for product: %s", inErrors.ErrInsufficientStock, item.Name)
			}
			return fmt.Errorf(
				"failed decrementing stock for productId=%s with error=%w",
				item.ProductID.String(),
				err,
			)
		}
		succeeded = append(succeeded, item)
	}
	return nil
}

// compensate restores stock for decrements that must not stand. Every item
// still gets its restore attempt after an earlier one fails, but any failure
// means the stock counts can no longer be trusted, so the returned error
// reports the invariant violation rather than the original business failure.
func (svc CheckoutService) compensate(
	c context.Context,
	logger zerolog.Logger,
	items []repository.CartItem,
) error {
	var unrestored []string
	for _, item := range items {
		if _, err := svc.stock.IncrementStock(c, item.ProductID, item.Quantity); err != nil {
			logger.Error().
				Err(err).
				Str(log.KeyProductID, item.ProductID.String()).
				Int32(log.KeyQuantity, item.Quantity).
				Msg("failed restoring stock during compensation")
			unrestored = append(unrestored, item.ProductID.String())
		}
	}
	if len(unrestored) > 0 {
		return fmt.Errorf(
			"%w for productIds=%s",
			inErrors.ErrStockRestoreFailed,
			strings.Join(unrestored, ","),
		)
	}
	return nil
}

func (svc CheckoutService) publishOrderCompleted(
	c context.Context,
	logger zerolog.Logger,
	order repository.Order,
) {
	if svc.cache == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"orderId": order.ID.String(),
		"userId":  order.UserID.String(),
		"total":   order.Total,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed marshaling order completed event")
		return
	}
	if err := svc.cache.Publish(c, common.ChannelOrderCompleted, payload).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed publishing order completed event")
	}
}

// notify sends the confirmation email but never longer than notifyTimeout.
// Delivery failure does not fail the checkout.
func (svc CheckoutService) notify(
	c context.Context,
	logger zerolog.Logger,
	order repository.Order,
) string {
	logger = logger.With().Str(log.KeyProcess, "sending confirmation email").Logger()
	if svc.mailer == nil {
		return ""
	}

	type mailResult struct {
		reference string
		err       error
	}
	resultCh := make(chan mailResult, 1)

	mailCtx, cancel := context.WithTimeout(c, svc.notifyTimeout)
	defer cancel()
	go func() {
		reference, err := svc.mailer.Send(
			mailCtx,
			order.UserEmail,
			notification.OrderConfirmationSubject(order),
			notification.OrderConfirmationBody(order),
		)
		resultCh <- mailResult{reference: reference, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			logger.Warn().Err(result.err).Msg("failed sending confirmation email")
			return ""
		}
		logger.Info().Msg("sent confirmation email")
		return result.reference
	case <-mailCtx.Done():
		logger.Warn().Msg("confirmation email timed out")
		return ""
	}
}
