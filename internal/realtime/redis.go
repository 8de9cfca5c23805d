package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel every instance publishes to and
// listens on.
const Channel = "deliverypro:changes"

// RedisBroker publishes changes through Redis so that hubs on every
// instance, including this one, dispatch them. Run must be running for
// local subscribers to receive anything.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewRedisBroker(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, hub: hub, logger: logger}
}

// Publish sends c to Redis. If Redis is unreachable the change is still
// dispatched locally so this instance's subscribers are not starved.
func (b *RedisBroker) Publish(ctx context.Context, c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		b.logger.Error("failed to encode change", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, Channel, payload).Err(); err != nil {
		b.logger.Error("failed to publish change, dispatching locally",
			zap.String("table", c.Table),
			zap.Error(err),
		)
		b.hub.Dispatch(c)
	}
}

// Run relays messages from Redis into the hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("realtime broker subscribed", zap.String("channel", Channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				b.logger.Warn("discarding malformed change", zap.Error(err))
				continue
			}
			b.hub.Dispatch(c)
		}
	}
}
