package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sportshop/ecommerce/checkout/pkg/request"
	"github.com/sportshop/ecommerce/internal/common"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/repository"
)

type fakeStock struct {
	mu       sync.Mutex
	products map[uuid.UUID]*repository.Product
}

func newFakeStock(products ...repository.Product) *fakeStock {
	s := &fakeStock{products: map[uuid.UUID]*repository.Product{}}
	for i := range products {
		product := products[i]
		s.products[product.ID] = &product
	}
	return s
}

func (s *fakeStock) DecrementStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (repository.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return repository.Product{}, inErrors.ErrProductNotFound
	}
	if product.Stock < quantity {
		return repository.Product{}, fmt.Errorf(
			"%w for product: %s",
			inErrors.ErrInsufficientStock,
			product.Name,
		)
	}
	product.Stock -= quantity
	return *product, nil
}

func (s *fakeStock) IncrementStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (repository.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return repository.Product{}, inErrors.ErrProductNotFound
	}
	product.Stock += quantity
	return *product, nil
}

func (s *fakeStock) stockOf(id uuid.UUID) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]repository.Cart
}

func newFakeCartStore(carts ...repository.Cart) *fakeCartStore {
	s := &fakeCartStore{carts: map[uuid.UUID]repository.Cart{}}
	for _, cart := range carts {
		s.carts[cart.UserID] = cart
	}
	return s
}

func (s *fakeCartStore) FindCartByUserId(
	c context.Context,
	userId uuid.UUID,
) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userId]
	if !ok {
		return repository.Cart{}, inErrors.ErrCartNotFound
	}
	return cart, nil
}

func (s *fakeCartStore) SaveCart(c context.Context, cart repository.Cart) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart.Version++
	s.carts[cart.UserID] = cart
	return cart, nil
}

func (s *fakeCartStore) DeleteCart(c context.Context, userId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userId)
	return nil
}

func (s *fakeCartStore) has(userId uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.carts[userId]
	return ok
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]repository.Order
	byKey  map[string]uuid.UUID
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: map[uuid.UUID]repository.Order{},
		byKey:  map[string]uuid.UUID{},
	}
}

func (s *fakeOrderStore) InsertOrder(
	c context.Context,
	order repository.Order,
) (repository.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.IdempotencyKey != "" {
		if existingId, ok := s.byKey[order.IdempotencyKey]; ok {
			return s.orders[existingId], true, nil
		}
		s.byKey[order.IdempotencyKey] = order.ID
	}
	s.orders[order.ID] = order
	return order, false, nil
}

func (s *fakeOrderStore) FindOrderById(
	c context.Context,
	id uuid.UUID,
) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *fakeOrderStore) FindOrdersByUserId(
	c context.Context,
	userId uuid.UUID,
) ([]repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	id, ok := s.byKey[key]
	if !ok {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	return s.orders[id], nil
}

func (s *fakeOrderStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeMailer struct {
	err  error
	sent atomic.Int32
}

func (m *fakeMailer) Send(c context.Context, to, subject, htmlBody string) (string, error) {
	m.sent.Add(1)
	if m.err != nil {
		return "", m.err
	}
	return "msg-ref-1", nil
}

// restoreFailingStock decrements normally but refuses every restore, as a
// store would when the connection dies mid compensation.
type restoreFailingStock struct {
	*fakeStock
}

func (s restoreFailingStock) IncrementStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (repository.Product, error) {
	return repository.Product{}, fmt.Errorf("connection reset by peer")
}

// blockingMailer never answers until the send context is cancelled.
type blockingMailer struct {
	sent atomic.Int32
}

func (m *blockingMailer) Send(c context.Context, to, subject, htmlBody string) (string, error) {
	m.sent.Add(1)
	<-c.Done()
	return "", c.Err()
}

func newProduct(name string, price int64, stock int32) repository.Product {
	return repository.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}
}

func cartOf(userId uuid.UUID, products map[repository.Product]int32) repository.Cart {
	items := []repository.CartItem{}
	total := decimal.Zero
	for product, quantity := range products {
		items = append(items, repository.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt32(quantity)))
	}
	return repository.Cart{UserID: userId, Items: items, Total: total, Version: 1}
}

func TestCheckoutSuccess(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	ball := newProduct("Soccer Ball", 30, 4)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes, ball)
	carts := newFakeCartStore(cartOf(user.ID, map[repository.Product]int32{shoes: 2, ball: 1}))
	orders := newFakeOrderStore()
	mailer := &fakeMailer{}
	svc := NewCheckoutService(carts, orders, stock, mailer, nil)

	result, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
	})

	require.NoError(t, err)
	assert.Equal(t, "Order completed successfully", result.Message)
	assert.Equal(t, common.OrderStatusCompleted, result.Order.Status)
	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(270)))
	assert.Equal(t, user.Email, result.Order.UserEmail)
	assert.Equal(t, "msg-ref-1", result.NotificationReference)
	assert.EqualValues(t, 8, stock.stockOf(shoes.ID))
	assert.EqualValues(t, 3, stock.stockOf(ball.ID))
	assert.False(t, carts.has(user.ID), "cart should be cleared after checkout")
	assert.Equal(t, 1, orders.count())
}

func TestCheckoutEmptyCart(t *testing.T) {
	c := context.Background()
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}
	svc := NewCheckoutService(newFakeCartStore(), newFakeOrderStore(), newFakeStock(), &fakeMailer{}, nil)

	_, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodPaypal,
	})

	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestCheckoutInsufficientStockRestoresEarlierDecrements(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	ball := newProduct("Soccer Ball", 30, 0)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes, ball)
	carts := newFakeCartStore(repository.Cart{
		UserID: user.ID,
		Items: []repository.CartItem{
			{ProductID: shoes.ID, Name: shoes.Name, Price: shoes.Price, Quantity: 5},
			{ProductID: ball.ID, Name: ball.Name, Price: ball.Price, Quantity: 2},
		},
		Total:   decimal.NewFromInt(660),
		Version: 1,
	})
	orders := newFakeOrderStore()
	svc := NewCheckoutService(carts, orders, stock, &fakeMailer{}, nil)

	_, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodDebitCard,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, inErrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "for product: Soccer Ball")
	assert.EqualValues(t, 10, stock.stockOf(shoes.ID), "earlier decrement should be restored")
	assert.EqualValues(t, 0, stock.stockOf(ball.ID))
	assert.Equal(t, 0, orders.count(), "no order should be written")
	assert.True(t, carts.has(user.ID), "cart should survive a failed checkout")
}

func TestCheckoutCompensationFailureReportsStockRestoreError(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	ball := newProduct("Soccer Ball", 30, 0)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes, ball)
	carts := newFakeCartStore(repository.Cart{
		UserID: user.ID,
		Items: []repository.CartItem{
			{ProductID: shoes.ID, Name: shoes.Name, Price: shoes.Price, Quantity: 5},
			{ProductID: ball.ID, Name: ball.Name, Price: ball.Price, Quantity: 2},
		},
		Total:   decimal.NewFromInt(660),
		Version: 1,
	})
	orders := newFakeOrderStore()
	svc := NewCheckoutService(carts, orders, restoreFailingStock{stock}, &fakeMailer{}, nil)

	_, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, inErrors.ErrStockRestoreFailed,
		"a failed restore must not masquerade as a routine stock rejection")
	assert.NotErrorIs(t, err, inErrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), shoes.ID.String())
	assert.Equal(t, 0, orders.count())
	assert.True(t, carts.has(user.ID))
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes)
	carts := newFakeCartStore(cartOf(user.ID, map[repository.Product]int32{shoes: 1}))
	orders := newFakeOrderStore()
	mailer := &fakeMailer{}
	svc := NewCheckoutService(carts, orders, stock, mailer, nil)

	first, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
		IdempotencyKey:  "retry-abc",
	})
	require.NoError(t, err)
	require.EqualValues(t, 9, stock.stockOf(shoes.ID))
	sentAfterFirst := mailer.sent.Load()

	second, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
		IdempotencyKey:  "retry-abc",
	})

	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 9, stock.stockOf(shoes.ID), "replay must not decrement stock again")
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, sentAfterFirst, mailer.sent.Load(), "replay must not resend the email")
}

func TestCheckoutMailerFailureDoesNotFailOrder(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes)
	carts := newFakeCartStore(cartOf(user.ID, map[repository.Product]int32{shoes: 1}))
	orders := newFakeOrderStore()
	svc := NewCheckoutService(carts, orders, stock, &fakeMailer{err: fmt.Errorf("smtp down")}, nil)

	result, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
	})

	require.NoError(t, err)
	assert.Empty(t, result.NotificationReference)
	assert.Equal(t, 1, orders.count())
}

func TestCheckoutRejectsForeignIdempotencyKey(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	alice := common.AuthUser{ID: uuid.New(), Email: "alice@example.com"}
	bob := common.AuthUser{ID: uuid.New(), Email: "bob@example.com"}

	stock := newFakeStock(shoes)
	carts := newFakeCartStore(
		cartOf(alice.ID, map[repository.Product]int32{shoes: 1}),
		cartOf(bob.ID, map[repository.Product]int32{shoes: 1}),
	)
	orders := newFakeOrderStore()
	svc := NewCheckoutService(carts, orders, stock, &fakeMailer{}, nil)

	_, err := svc.Checkout(c, alice, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
		IdempotencyKey:  "retry-abc",
	})
	require.NoError(t, err)
	require.EqualValues(t, 9, stock.stockOf(shoes.ID))

	_, err = svc.Checkout(c, bob, request.Checkout{
		ShippingAddress: "2 Side Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
		IdempotencyKey:  "retry-abc",
	})

	assert.ErrorIs(t, err, inErrors.ErrIdempotencyKeyConflict,
		"another user's key must never hand out their order")
	assert.Equal(t, 1, orders.count())
	assert.EqualValues(t, 9, stock.stockOf(shoes.ID))
	assert.True(t, carts.has(bob.ID))
}

func TestCheckoutMailerTimeoutDoesNotFailOrder(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 10)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}

	stock := newFakeStock(shoes)
	carts := newFakeCartStore(cartOf(user.ID, map[repository.Product]int32{shoes: 1}))
	orders := newFakeOrderStore()
	mailer := &blockingMailer{}
	svc := NewCheckoutService(carts, orders, stock, mailer, nil)
	svc.notifyTimeout = 50 * time.Millisecond

	result, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
	})

	require.NoError(t, err)
	assert.Empty(t, result.NotificationReference)
	assert.EqualValues(t, 1, mailer.sent.Load())
	assert.Equal(t, 1, orders.count())
	assert.False(t, carts.has(user.ID), "cart should be cleared even when the email times out")
}

func TestCheckoutConcurrentDoesNotOversell(t *testing.T) {
	c := context.Background()
	shoes := newProduct("Running Shoes", 120, 5)
	stock := newFakeStock(shoes)
	orders := newFakeOrderStore()

	users := make([]common.AuthUser, 10)
	carts := newFakeCartStore()
	for i := range users {
		users[i] = common.AuthUser{ID: uuid.New(), Email: fmt.Sprintf("shopper%d@example.com", i)}
		_, err := carts.SaveCart(c, cartOf(users[i].ID, map[repository.Product]int32{shoes: 1}))
		require.NoError(t, err)
	}
	svc := NewCheckoutService(carts, orders, stock, &fakeMailer{}, nil)

	var succeeded, rejected atomic.Int32
	group, groupCtx := errgroup.WithContext(c)
	for i := range users {
		user := users[i]
		group.Go(func() error {
			_, err := svc.Checkout(groupCtx, user, request.Checkout{
				ShippingAddress: "1 Main Street",
				PaymentMethod:   common.PaymentMethodCreditCard,
			})
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if !assert.ErrorIs(t, err, inErrors.ErrInsufficientStock) {
				return err
			}
			rejected.Add(1)
			return nil
		})
	}
	require.NoError(t, group.Wait())

	assert.EqualValues(t, 5, succeeded.Load())
	assert.EqualValues(t, 5, rejected.Load())
	assert.EqualValues(t, 0, stock.stockOf(shoes.ID))
	assert.Equal(t, 5, orders.count())
}
