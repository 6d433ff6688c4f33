package notification

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/log"
)

type orderCompletedEvent struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

// Listener consumes order completed events published by checkout.
type Listener struct {
	cache *redis.Client
}

func NewListener(cache *redis.Client) Listener {
	return Listener{cache: cache}
}

// Run blocks until the context is cancelled.
func (l Listener) Run(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Listener Run").
		Str(log.KeyProcess, "consuming order completed events").
		Logger()

	pubsub := l.cache.Subscribe(c, common.ChannelOrderCompleted)
	defer pubsub.Close()

	logger.Info().Msgf("subscribed to channel=%s", common.ChannelOrderCompleted)
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stopping order completed listener")
			return
		case message, ok := <-pubsub.Channel():
			if !ok {
				logger.Info().Msg("subscription channel closed")
				return
			}
			event := orderCompletedEvent{}
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				logger.Warn().Err(err).Msg("failed unmarshaling order completed event")
				continue
			}
			logger.Info().
				Str(log.KeyOrderID, event.OrderID).
				Str(log.KeyUserID, event.UserID).
				Msg("order completed")
		}
	}
}
