package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/sportshop/ecommerce/checkout/pkg/request"
	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/repository"
)

func setupRedis(t *testing.T, c context.Context) *redis.Client {
	t.Helper()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	client := redis.NewClient(redisOpt)
	t.Cleanup(func() { client.Close() })
	if err = client.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}
	return client
}

func TestCheckoutPublishesOrderCompletedEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	cache := setupRedis(t, c)

	pubsub := cache.Subscribe(c, common.ChannelOrderCompleted)
	defer pubsub.Close()
	_, err := pubsub.Receive(c)
	require.NoError(t, err, "subscription must be established before checkout")

	shoes := newProduct("Running Shoes", 120, 10)
	user := common.AuthUser{ID: uuid.New(), Email: "shopper@example.com"}
	carts := newFakeCartStore(cartOf(user.ID, map[repository.Product]int32{shoes: 1}))
	svc := NewCheckoutService(carts, newFakeOrderStore(), newFakeStock(shoes), &fakeMailer{}, cache)

	result, err := svc.Checkout(c, user, request.Checkout{
		ShippingAddress: "1 Main Street",
		PaymentMethod:   common.PaymentMethodCreditCard,
	})
	require.NoError(t, err)

	select {
	case message := <-pubsub.Channel():
		event := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
		assert.Equal(t, result.Order.ID.String(), event["orderId"])
		assert.Equal(t, user.ID.String(), event["userId"])
	case <-time.After(5 * time.Second):
		t.Fatal("no order completed event received")
	}
}
