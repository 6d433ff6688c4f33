package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/repository"
)

type fakeOrderStore struct {
	orders []repository.Order
}

func (s *fakeOrderStore) InsertOrder(
	c context.Context,
	order repository.Order,
) (repository.Order, bool, error) {
	s.orders = append(s.orders, order)
	return order, false, nil
}

func (s *fakeOrderStore) FindOrderById(c context.Context, id uuid.UUID) (repository.Order, error) {
	for _, order := range s.orders {
		if order.ID == id {
			return order, nil
		}
	}
	return repository.Order{}, inErrors.ErrOrderNotFound
}

func (s *fakeOrderStore) FindOrdersByUserId(
	c context.Context,
	userId uuid.UUID,
) ([]repository.Order, error) {
	orders := []repository.Order{}
	for _, order := range s.orders {
		if order.UserID == userId {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) FindOrderByIdempotencyKey(
	c context.Context,
	key string,
) (repository.Order, error) {
	for _, order := range s.orders {
		if key != "" && order.IdempotencyKey == key {
			return order, nil
		}
	}
	return repository.Order{}, inErrors.ErrOrderNotFound
}

func seededOrders(userId uuid.UUID) *fakeOrderStore {
	return &fakeOrderStore{orders: []repository.Order{
		{
			ID:        uuid.New(),
			UserID:    userId,
			Total:     decimal.NewFromInt(120),
			Status:    "completed",
			CreatedAt: time.Now(),
		},
		{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Total:     decimal.NewFromInt(30),
			Status:    "completed",
			CreatedAt: time.Now(),
		},
	}}
}

func TestFindOrdersOnlyReturnsOwn(t *testing.T) {
	c := context.Background()
	userId := uuid.New()
	store := seededOrders(userId)
	svc := NewOrderService(store)

	orders, err := svc.FindOrders(c, userId)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, userId, orders[0].UserID)
}

func TestFindOrderByIdDeniesForeignOrder(t *testing.T) {
	c := context.Background()
	userId := uuid.New()
	store := seededOrders(userId)
	svc := NewOrderService(store)

	foreign := store.orders[1]
	_, err := svc.FindOrderById(c, userId, foreign.ID)
	assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

	own := store.orders[0]
	order, err := svc.FindOrderById(c, userId, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, order.ID)
}
