package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
)

func setup(t *testing.T, c context.Context) (*pgxpool.Pool, *Queries) {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join("..", "..", "migrations", "20250812093015_create_table_products.up.sql"),
			filepath.Join("..", "..", "migrations", "20250812093512_create_table_users.up.sql"),
			filepath.Join("..", "..", "migrations", "20250812094126_create_table_carts.up.sql"),
			filepath.Join("..", "..", "migrations", "20250812094730_create_table_orders.up.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	pgConnStr, err := pgContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pgConfig, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		t.Fatalf("failed parsing pgconfig with error: %s", err)
	}

	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)

	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	return pool, New(pool)
}

func TestDecrementProductStockIsAtomic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	product, err := queries.InsertProduct(c, InsertProductParams{
		Name:     "Running Shoes",
		Category: "footwear",
		Price:    decimal.NewFromInt(120),
		Stock:    5,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := queries.DecrementProductStock(c, product.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.ErrorIs(t, err, inErrors.ErrInsufficientStock)
			rejected++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, rejected)

	got, err := queries.FindProductById(c, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Stock)
}

func TestDecrementProductStockUnknownProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	_, err := queries.DecrementProductStock(c, uuid.New(), 1)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestIncrementProductStockRestores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	product, err := queries.InsertProduct(c, InsertProductParams{
		Name:     "Soccer Ball",
		Category: "balls",
		Price:    decimal.NewFromInt(30),
		Stock:    3,
	})
	require.NoError(t, err)

	_, err = queries.DecrementProductStock(c, product.ID, 2)
	require.NoError(t, err)
	restored, err := queries.IncrementProductStock(c, product.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, restored.Stock)
}

func TestSaveCartVersionConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	userId := uuid.New()
	item := CartItem{
		ProductID: uuid.New(),
		Name:      "Running Shoes",
		Price:     decimal.NewFromInt(120),
		Quantity:  1,
	}

	saved, err := queries.SaveCart(c, Cart{
		UserID: userId,
		Items:  []CartItem{item},
		Total:  decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Version)

	// second writer starting from the same snapshot
	stale := saved

	saved.Items[0].Quantity = 2
	saved.Total = decimal.NewFromInt(240)
	fresh, err := queries.SaveCart(c, saved)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.Version)

	_, err = queries.SaveCart(c, stale)
	assert.ErrorIs(t, err, inErrors.ErrCartConflict)

	// fresh insert racing an existing row must also conflict
	_, err = queries.SaveCart(c, Cart{UserID: userId, Items: []CartItem{item}, Total: decimal.NewFromInt(120)})
	assert.ErrorIs(t, err, inErrors.ErrCartConflict)
}

func TestInsertOrderIdempotencyKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	userId := uuid.New()
	order := Order{
		ID:     uuid.New(),
		UserID: userId,
		Items: []CartItem{{
			ProductID: uuid.New(),
			Name:      "Running Shoes",
			Price:     decimal.NewFromInt(120),
			Quantity:  1,
		}},
		Total:           decimal.NewFromInt(120),
		ShippingAddress: "1 Main Street",
		PaymentMethod:   "credit_card",
		Status:          "completed",
		IdempotencyKey:  "retry-abc",
		CreatedAt:       time.Now(),
	}

	inserted, existed, err := queries.InsertOrder(c, order)
	require.NoError(t, err)
	assert.False(t, existed)

	replay := order
	replay.ID = uuid.New()
	got, existed, err := queries.InsertOrder(c, replay)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, inserted.ID, got.ID)

	orders, err := queries.FindOrdersByUserId(c, userId)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestInsertOrderWithoutKeyNeverCollides(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	_, queries := setup(t, c)

	userId := uuid.New()
	for i := 0; i < 2; i++ {
		_, existed, err := queries.InsertOrder(c, Order{
			ID:            uuid.New(),
			UserID:        userId,
			Items:         []CartItem{},
			Total:         decimal.NewFromInt(10),
			PaymentMethod: "paypal",
			Status:        "completed",
			CreatedAt:     time.Now(),
		})
		require.NoError(t, err)
		assert.False(t, existed)
	}

	orders, err := queries.FindOrdersByUserId(c, userId)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
