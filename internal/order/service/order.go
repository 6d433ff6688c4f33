package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/internal/order/otel"
)

type OrderService struct {
	orders repository.OrderStore
}

func NewOrderService(orders repository.OrderStore) OrderService {
	return OrderService{orders: orders}
}

func (svc OrderService) FindOrders(
	c context.Context,
	userId uuid.UUID,
) ([]repository.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "finding orders in database").
		Logger()

	logger.Info().Msg("finding orders in database")
	orders, err := svc.orders.FindOrdersByUserId(c, userId)
	if err != nil {
		err = fmt.Errorf("failed finding orders for userId=%s with error=%w", userId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Any(log.KeyOrders, orders).Msg("found orders")

	return orders, nil
}

// FindOrderById returns the order only when it belongs to the requesting
// user. Another user's order reads as not found.
func (svc OrderService) FindOrderById(
	c context.Context,
	userId uuid.UUID,
	orderId uuid.UUID,
) (repository.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderById").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyOrderID, orderId.String()).
		Str(log.KeyProcess, "finding order in database").
		Logger()

	logger.Info().Msg("finding order in database")
	order, err := svc.orders.FindOrderById(c, orderId)
	if err != nil {
		err = fmt.Errorf("failed finding orderId=%s with error=%w", orderId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Order{}, err
	}
	if order.UserID != userId {
		err = fmt.Errorf(
			"failed finding orderId=%s with error=%w",
			orderId.String(),
			inErrors.ErrOrderNotFound,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Order{}, err
	}
	logger.Info().Msg("found order in database")

	return order, nil
}
